package summary

import (
	"context"

	"restaurant-segments/internal/domain"
)

// Repository stores summary snapshots. Records are append-only; the latest
// one per restaurant is the current view.
type Repository interface {
	Save(ctx context.Context, restaurantID string, s domain.RestaurantCustomerSummary) (*domain.SummaryRecord, error)
	Latest(ctx context.Context, restaurantID string) (*domain.SummaryRecord, error)
}
