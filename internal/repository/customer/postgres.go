package customer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"restaurant-segments/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const customerColumns = `
id::text, restaurant_id::text, name, phone, email, first_visit_date, last_visit_date,
total_visits, total_spend::float8, average_order_value::float8, average_visit_gap_days::float8,
spend_tag, activity_tag, behavior_tags, is_active, created_at, updated_at`

func (r *postgresRepo) CreateWithOrder(ctx context.Context, c domain.Customer, o domain.Order) (*domain.Customer, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q := `
INSERT INTO customers (
    restaurant_id, name, phone, email, first_visit_date, last_visit_date,
    total_visits, total_spend, average_order_value, average_visit_gap_days,
    spend_tag, activity_tag, behavior_tags, is_active
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, true)
RETURNING ` + customerColumns
	created, err := r.scanCustomer(tx.QueryRow(
		ctx,
		q,
		c.RestaurantID,
		strings.TrimSpace(c.Name),
		strings.TrimSpace(c.Phone),
		strings.ToLower(strings.TrimSpace(c.Email)),
		c.FirstVisitDate,
		c.LastVisitDate,
		c.TotalVisits,
		c.TotalSpend,
		c.AverageOrderValue,
		c.AverageVisitGapDays,
		string(c.Tags.Spend),
		string(c.Tags.Activity),
		c.Tags.Behaviors.Strings(),
	))
	if err != nil {
		return nil, err
	}

	o.CustomerID = created.ID
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if err := insertOrder(ctx, tx, created.RestaurantID, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	created.Orders = []domain.Order{o}
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, restaurantID, id string) (*domain.Customer, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + customerColumns + `
FROM customers
WHERE restaurant_id = $1 AND id = $2
LIMIT 1
`
	c, err := r.scanCustomer(r.pool.QueryRow(ctx, q, restaurantID, id))
	if err != nil {
		return nil, err
	}
	orders, err := r.ordersFor(ctx, restaurantID, []string{c.ID})
	if err != nil {
		return nil, err
	}
	c.Orders = orders[c.ID]
	return c, nil
}

func (r *postgresRepo) GetByPhone(ctx context.Context, restaurantID, phone string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + `
FROM customers
WHERE restaurant_id = $1 AND phone = $2 AND phone <> ''
LIMIT 1
`
	c, err := r.scanCustomer(r.pool.QueryRow(ctx, q, restaurantID, strings.TrimSpace(phone)))
	if err != nil {
		return nil, err
	}
	orders, err := r.ordersFor(ctx, restaurantID, []string{c.ID})
	if err != nil {
		return nil, err
	}
	c.Orders = orders[c.ID]
	return c, nil
}

func (r *postgresRepo) List(ctx context.Context, restaurantID string, f ListFilter) ([]domain.Customer, error) {
	var (
		where = []string{"restaurant_id = $1"}
		args  = []interface{}{restaurantID}
	)
	if f.ActiveOnly {
		where = append(where, "is_active")
	}
	if f.SpendTag != "" {
		args = append(args, string(f.SpendTag))
		where = append(where, fmt.Sprintf("spend_tag = $%d", len(args)))
	}
	if f.ActivityTag != "" {
		args = append(args, string(f.ActivityTag))
		where = append(where, fmt.Sprintf("activity_tag = $%d", len(args)))
	}
	if f.BehaviorTag != "" {
		args = append(args, string(f.BehaviorTag))
		where = append(where, fmt.Sprintf("$%d = ANY(behavior_tags)", len(args)))
	}
	q := `SELECT ` + customerColumns + `
FROM customers
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY id
`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out = []domain.Customer{}
		ids []string
	)
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if f.WithOrders && len(ids) > 0 {
		orders, err := r.ordersFor(ctx, restaurantID, ids)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i].Orders = orders[out[i].ID]
		}
	}
	return out, nil
}

func (r *postgresRepo) AppendOrder(ctx context.Context, c domain.Customer, o domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CustomerID = c.ID

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertOrder(ctx, tx, c.RestaurantID, o); err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, `
UPDATE customers
SET first_visit_date = $1,
    last_visit_date = $2,
    total_visits = $3,
    total_spend = $4,
    average_order_value = $5,
    average_visit_gap_days = $6,
    is_active = true,
    updated_at = now()
WHERE restaurant_id = $7 AND id = $8
`, c.FirstVisitDate, c.LastVisitDate, c.TotalVisits, c.TotalSpend, c.AverageOrderValue, c.AverageVisitGapDays, c.RestaurantID, c.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit(ctx)
}

// insertOrder writes one order row. A reused order id maps to
// domain.ErrAlreadyExists.
func insertOrder(ctx context.Context, tx pgx.Tx, restaurantID string, o domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO orders (id, customer_id, restaurant_id, placed_at, items, total_amount, guest_count, source)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, o.ID, o.CustomerID, restaurantID, o.PlacedAt, items, o.TotalAmount, o.GuestCount, string(o.Source)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *postgresRepo) SaveTags(ctx context.Context, restaurantID string, results []domain.TagResult) error {
	if len(results) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, res := range results {
		batch.Queue(`
UPDATE customers
SET spend_tag = $1,
    activity_tag = $2,
    behavior_tags = $3,
    updated_at = now()
WHERE restaurant_id = $4 AND id = $5
`, string(res.NewTags.Spend), string(res.NewTags.Activity), res.NewTags.Behaviors.Strings(), restaurantID, res.CustomerID)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, res := range results {
		cmd, err := br.Exec()
		if err != nil {
			r.logger.Printf("customer repo: save tags id=%s err=%v", res.CustomerID, err)
			return err
		}
		if cmd.RowsAffected() == 0 {
			r.logger.Printf("customer repo: save tags id=%s matched no row", res.CustomerID)
		}
	}
	return nil
}

func (r *postgresRepo) Deactivate(ctx context.Context, restaurantID, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE customers
SET is_active = false, updated_at = now()
WHERE restaurant_id = $1 AND id = $2
`, restaurantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ordersFor(ctx context.Context, restaurantID string, customerIDs []string) (map[string][]domain.Order, error) {
	const q = `
SELECT id::text, customer_id::text, placed_at, items, total_amount::float8, guest_count, source
FROM orders
WHERE restaurant_id = $1 AND customer_id::text = ANY($2)
ORDER BY customer_id, placed_at ASC, id
`
	rows, err := r.pool.Query(ctx, q, restaurantID, customerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Order, len(customerIDs))
	for rows.Next() {
		var (
			o         domain.Order
			itemsJSON []byte
			source    string
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.PlacedAt, &itemsJSON, &o.TotalAmount, &o.GuestCount, &source); err != nil {
			return nil, err
		}
		if len(itemsJSON) > 0 {
			if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
				r.logger.Printf("customer repo: decode items order=%s err=%v", o.ID, err)
				return nil, err
			}
		}
		o.Source = domain.OrderSource(source)
		out[o.CustomerID] = append(out[o.CustomerID], o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		c         domain.Customer
		spend     string
		activity  string
		behaviors []string
	)
	err := row.Scan(
		&c.ID,
		&c.RestaurantID,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.FirstVisitDate,
		&c.LastVisitDate,
		&c.TotalVisits,
		&c.TotalSpend,
		&c.AverageOrderValue,
		&c.AverageVisitGapDays,
		&spend,
		&activity,
		&behaviors,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("customer repo: scan error=%v", err)
		return nil, err
	}
	c.Tags.Spend = domain.SpendTag(spend)
	c.Tags.Activity = domain.ActivityTag(activity)
	tags := make([]domain.BehaviorTag, 0, len(behaviors))
	for _, b := range behaviors {
		tags = append(tags, domain.BehaviorTag(b))
	}
	c.Tags.Behaviors = domain.NewBehaviorSet(tags...)
	return &c, nil
}

// validID filters ids that cannot exist before they reach a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
