package customer

import (
	"context"

	"restaurant-segments/internal/domain"
)

// ListFilter narrows customer listings. Empty fields match everything.
type ListFilter struct {
	ActiveOnly  bool
	SpendTag    domain.SpendTag
	ActivityTag domain.ActivityTag
	BehaviorTag domain.BehaviorTag
	WithOrders  bool
}

// Repository persists customers and their order history.
type Repository interface {
	// CreateWithOrder stores a new customer together with its first order in
	// one transaction. Nothing is written when either insert fails, so a
	// rejected order never leaves a customer without history behind.
	CreateWithOrder(ctx context.Context, c domain.Customer, o domain.Order) (*domain.Customer, error)
	GetByID(ctx context.Context, restaurantID, id string) (*domain.Customer, error)
	GetByPhone(ctx context.Context, restaurantID, phone string) (*domain.Customer, error)
	List(ctx context.Context, restaurantID string, f ListFilter) ([]domain.Customer, error)
	// AppendOrder stores a new order and the customer's recalculated stats
	// in one transaction.
	AppendOrder(ctx context.Context, c domain.Customer, o domain.Order) error
	// SaveTags upserts derived tags keyed by customer id.
	SaveTags(ctx context.Context, restaurantID string, results []domain.TagResult) error
	Deactivate(ctx context.Context, restaurantID, id string) error
}
