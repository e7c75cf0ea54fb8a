package customer

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"restaurant-segments/internal/domain"
	"restaurant-segments/internal/migrate"
)

func TestPostgres_AppendOrderAndTags(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)
	restaurantID := insertRestaurant(ctx, t, pool, "tandoor")

	repo := NewPostgres(pool, nil)
	placed := time.Date(2026, 2, 3, 19, 0, 0, 0, time.UTC)
	order := domain.Order{
		ID:          "3a5c7e9b-1d2f-4a6b-8c0d-e1f2a3b4c5d6",
		PlacedAt:    placed,
		Items:       []domain.LineItem{{Name: "Dal makhani", Category: "mains", Price: 280, Quantity: 2}},
		TotalAmount: 560,
		GuestCount:  2,
		Source:      domain.SourceDineIn,
	}
	c, err := repo.CreateWithOrder(ctx, domain.Customer{
		RestaurantID:      restaurantID,
		Name:              "Isha",
		Phone:             "+919800000021",
		TotalVisits:       1,
		TotalSpend:        560,
		AverageOrderValue: 560,
		FirstVisitDate:    &placed,
		LastVisitDate:     &placed,
	}, order)
	if err != nil {
		t.Fatalf("create with order: %v", err)
	}
	if len(c.Orders) != 1 || c.Orders[0].CustomerID != c.ID {
		t.Fatalf("first order not linked: %+v", c.Orders)
	}
	if _, err := repo.CreateWithOrder(ctx, domain.Customer{RestaurantID: restaurantID, Name: "Dup", Phone: "+919800000021"}, domain.Order{
		PlacedAt: placed, Items: order.Items, TotalAmount: 560, GuestCount: 1, Source: domain.SourceDineIn,
	}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for duplicate phone, got %v", err)
	}
	// a reused order id must roll back the new customer as well
	if _, err := repo.CreateWithOrder(ctx, domain.Customer{RestaurantID: restaurantID, Name: "Walk-in"}, order); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for reused order id, got %v", err)
	}
	all, err := repo.List(ctx, restaurantID, ListFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected only the first customer, got %d", len(all))
	}

	later := placed.AddDate(0, 0, 4)
	second := domain.Order{
		PlacedAt:    later,
		Items:       []domain.LineItem{{Name: "Lassi", Category: "drinks", Price: 90, Quantity: 1}},
		TotalAmount: 90,
		GuestCount:  1,
		Source:      domain.SourceTakeaway,
	}
	c.TotalVisits, c.TotalSpend, c.AverageOrderValue, c.AverageVisitGapDays = 2, 650, 325, 4
	c.LastVisitDate = &later
	if err := repo.AppendOrder(ctx, *c, second); err != nil {
		t.Fatalf("append order: %v", err)
	}

	got, err := repo.GetByPhone(ctx, restaurantID, "+919800000021")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if got.TotalVisits != 2 || got.TotalSpend != 650 || len(got.Orders) != 2 {
		t.Fatalf("unexpected customer %+v", got)
	}
	if got.Orders[0].Items[0].Name != "Dal makhani" || got.Orders[0].Source != domain.SourceDineIn {
		t.Fatalf("order not round-tripped: %+v", got.Orders[0])
	}

	tags := domain.Tags{Spend: domain.SpendMid, Activity: domain.ActivityActive, Behaviors: domain.NewBehaviorSet(domain.BehaviorCategoryLoyalist)}
	if err := repo.SaveTags(ctx, restaurantID, []domain.TagResult{{CustomerID: c.ID, NewTags: tags}}); err != nil {
		t.Fatalf("save tags: %v", err)
	}
	list, err := repo.List(ctx, restaurantID, ListFilter{ActiveOnly: true, BehaviorTag: domain.BehaviorCategoryLoyalist})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].Tags.Equal(tags) {
		t.Fatalf("unexpected list %+v", list)
	}

	if err := repo.Deactivate(ctx, restaurantID, c.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	list, err = repo.List(ctx, restaurantID, ListFilter{ActiveOnly: true})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no active customers, got %d", len(list))
	}
}

func TestPostgres_NotFound(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)
	restaurantID := insertRestaurant(ctx, t, pool, "empty")

	repo := NewPostgres(pool, nil)
	if _, err := repo.GetByID(ctx, restaurantID, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Deactivate(ctx, restaurantID, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE automation_triggers, customer_summaries, orders, customers, restaurants RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func insertRestaurant(ctx context.Context, t *testing.T, pool *pgxpool.Pool, key string) string {
	t.Helper()
	var id string
	if err := pool.QueryRow(ctx, `INSERT INTO restaurants (key, name) VALUES ($1, $1) RETURNING id::text`, key).Scan(&id); err != nil {
		t.Fatalf("insert restaurant: %v", err)
	}
	return id
}
