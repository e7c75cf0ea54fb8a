package summary

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"restaurant-segments/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Save(ctx context.Context, restaurantID string, s domain.RestaurantCustomerSummary) (*domain.SummaryRecord, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO customer_summaries (restaurant_id, summary)
VALUES ($1, $2)
RETURNING id::text, created_at
`
	rec := domain.SummaryRecord{RestaurantID: restaurantID, Summary: s}
	if err := r.pool.QueryRow(ctx, q, restaurantID, payload).Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *postgresRepo) Latest(ctx context.Context, restaurantID string) (*domain.SummaryRecord, error) {
	const q = `
SELECT id::text, restaurant_id::text, summary, created_at
FROM customer_summaries
WHERE restaurant_id = $1
ORDER BY created_at DESC
LIMIT 1
`
	var (
		rec     domain.SummaryRecord
		payload []byte
	)
	err := r.pool.QueryRow(ctx, q, restaurantID).Scan(&rec.ID, &rec.RestaurantID, &payload, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &rec.Summary); err != nil {
		return nil, err
	}
	return &rec, nil
}
