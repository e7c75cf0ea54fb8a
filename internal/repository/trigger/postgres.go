package trigger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"restaurant-segments/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool, now: time.Now}
}

const triggerColumns = `id::text, restaurant_id::text, customer_id::text, dimension, old_tag, new_tag, processed, created_at, campaign_sent_at`

func (r *postgresRepo) Append(ctx context.Context, restaurantID string, triggers []domain.AutomationTrigger) ([]domain.AutomationTrigger, error) {
	if len(triggers) == 0 {
		return []domain.AutomationTrigger{}, nil
	}
	createdAt := r.now().UTC()
	out := make([]domain.AutomationTrigger, 0, len(triggers))

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, t := range triggers {
		t.ID = uuid.NewString()
		t.RestaurantID = restaurantID
		t.CreatedAt = createdAt
		t.Processed = false
		t.CampaignSentAt = nil
		if _, err := tx.Exec(ctx, `
INSERT INTO automation_triggers (id, restaurant_id, customer_id, dimension, old_tag, new_tag, processed, created_at)
VALUES ($1, $2, $3, $4, $5, $6, false, $7)
`, t.ID, restaurantID, t.CustomerID, string(t.Dimension), t.OldTag, t.NewTag, t.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert trigger customer=%s dimension=%s: %w", t.CustomerID, t.Dimension, err)
		}
		out = append(out, t)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Get(ctx context.Context, restaurantID, id string) (*domain.AutomationTrigger, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + triggerColumns + `
FROM automation_triggers
WHERE restaurant_id = $1 AND id = $2
`
	return scanTrigger(r.pool.QueryRow(ctx, q, restaurantID, id))
}

func (r *postgresRepo) List(ctx context.Context, restaurantID string, f ListFilter) ([]domain.AutomationTrigger, error) {
	var (
		where = []string{"restaurant_id = $1"}
		args  = []interface{}{restaurantID}
	)
	if f.Processed != nil {
		args = append(args, *f.Processed)
		where = append(where, fmt.Sprintf("processed = $%d", len(args)))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	q := `SELECT ` + triggerColumns + `
FROM automation_triggers
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY seq ASC
`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf("LIMIT $%d\n", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.AutomationTrigger{}
	for rows.Next() {
		t, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Claim(ctx context.Context, restaurantID string, limit int, until time.Time) ([]domain.AutomationTrigger, error) {
	q := `
WITH claimed AS (
    UPDATE automation_triggers
    SET claimed_until = $3
    WHERE id IN (
        SELECT id
        FROM automation_triggers
        WHERE restaurant_id = $1
          AND NOT processed
          AND (claimed_until IS NULL OR claimed_until < $4)
        ORDER BY seq ASC
        LIMIT $2
        FOR UPDATE SKIP LOCKED
    )
    RETURNING seq, ` + triggerColumns + `
)
SELECT ` + triggerColumns + `
FROM claimed
ORDER BY seq ASC
`
	rows, err := r.pool.Query(ctx, q, restaurantID, limit, until.UTC(), r.now().UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.AutomationTrigger{}
	for rows.Next() {
		t, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Release(ctx context.Context, restaurantID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
UPDATE automation_triggers
SET claimed_until = NULL
WHERE restaurant_id = $1 AND id::text = ANY($2) AND NOT processed
`, restaurantID, ids)
	return err
}

func (r *postgresRepo) MarkProcessed(ctx context.Context, restaurantID, id string, sentAt time.Time) (*domain.AutomationTrigger, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `
UPDATE automation_triggers
SET processed = true, campaign_sent_at = $1, claimed_until = NULL
WHERE restaurant_id = $2 AND id = $3 AND NOT processed
RETURNING ` + triggerColumns
	t, err := scanTrigger(r.pool.QueryRow(ctx, q, sentAt.UTC(), restaurantID, id))
	if errors.Is(err, domain.ErrNotFound) {
		// distinguish a missing trigger from one that is already processed
		if _, getErr := r.Get(ctx, restaurantID, id); getErr == nil {
			return nil, domain.ErrAlreadyProcessed
		}
	}
	return t, err
}

func scanTrigger(row pgx.Row) (*domain.AutomationTrigger, error) {
	var (
		t   domain.AutomationTrigger
		dim string
	)
	err := row.Scan(&t.ID, &t.RestaurantID, &t.CustomerID, &dim, &t.OldTag, &t.NewTag, &t.Processed, &t.CreatedAt, &t.CampaignSentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	t.Dimension = domain.TagDimension(dim)
	return &t, nil
}
