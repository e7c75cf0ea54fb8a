package restaurant

import (
	"context"

	"restaurant-segments/internal/domain"
)

// Repository persists and fetches restaurants.
type Repository interface {
	GetByKey(ctx context.Context, key string) (*domain.Restaurant, error)
	Create(ctx context.Context, r domain.Restaurant) (*domain.Restaurant, error)
	List(ctx context.Context) ([]domain.Restaurant, error)
}
