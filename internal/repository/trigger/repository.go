package trigger

import (
	"context"
	"time"

	"restaurant-segments/internal/domain"
)

// ListFilter narrows trigger listings. A nil Processed matches both states.
type ListFilter struct {
	Processed  *bool
	CustomerID string
	Limit      int
}

// Repository appends triggers and records their processing. Triggers are
// never deleted.
type Repository interface {
	// Append stores new triggers, assigning ID, restaurant and CreatedAt.
	Append(ctx context.Context, restaurantID string, triggers []domain.AutomationTrigger) ([]domain.AutomationTrigger, error)
	Get(ctx context.Context, restaurantID, id string) (*domain.AutomationTrigger, error)
	// List returns triggers in insertion order.
	List(ctx context.Context, restaurantID string, f ListFilter) ([]domain.AutomationTrigger, error)
	// Claim leases up to limit pending triggers, oldest first, until the
	// given time. Triggers under a live lease are not returned to other
	// callers, so overlapping dispatchers never share a trigger.
	Claim(ctx context.Context, restaurantID string, limit int, until time.Time) ([]domain.AutomationTrigger, error)
	// Release drops the lease on triggers that were claimed but not sent.
	Release(ctx context.Context, restaurantID string, ids []string) error
	// MarkProcessed moves a trigger to its terminal state. It returns
	// domain.ErrAlreadyProcessed when the trigger was processed before.
	MarkProcessed(ctx context.Context, restaurantID, id string, sentAt time.Time) (*domain.AutomationTrigger, error)
}
