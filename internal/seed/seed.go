package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"

	"restaurant-segments/internal/domain"
	customersvc "restaurant-segments/internal/service/customer"
	"restaurant-segments/internal/service/segmentation"
)

// DataProvider supplies a restaurant and its order history.
type DataProvider interface {
	Restaurant() domain.Restaurant
	Orders() []customersvc.OrderInput
}

type restaurantStore interface {
	GetByKey(ctx context.Context, key string) (*domain.Restaurant, error)
	Create(ctx context.Context, r domain.Restaurant) (*domain.Restaurant, error)
}

type orderRecorder interface {
	RecordOrder(ctx context.Context, restaurantID string, in customersvc.OrderInput) (*customersvc.OrderResult, error)
}

type recalculator interface {
	Recalculate(ctx context.Context, restaurantID string) (*segmentation.PassResult, error)
}

// Seeder loads provider data through the same services real traffic uses.
type Seeder struct {
	restaurants restaurantStore
	orders      orderRecorder
	passes      recalculator
	logger      *log.Logger
}

func New(restaurants restaurantStore, orders orderRecorder, passes recalculator, logger *log.Logger) *Seeder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Seeder{restaurants: restaurants, orders: orders, passes: passes, logger: logger}
}

// Apply inserts the provider's data and runs one recalculation pass. It is
// idempotent: orders that already exist are skipped.
func (s *Seeder) Apply(ctx context.Context, provider DataProvider) (*segmentation.PassResult, error) {
	r, err := s.ensureRestaurant(ctx, provider.Restaurant())
	if err != nil {
		return nil, fmt.Errorf("ensure restaurant: %w", err)
	}

	orders := provider.Orders()
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].PlacedAt.Before(*orders[j].PlacedAt) })

	var recorded, skipped int
	for _, in := range orders {
		if _, err := s.orders.RecordOrder(ctx, r.ID, in); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("record order %s: %w", in.OrderID, err)
		}
		recorded++
	}
	s.logger.Printf("seed: restaurant=%s recorded=%d skipped=%d", r.Key, recorded, skipped)

	return s.passes.Recalculate(ctx, r.ID)
}

func (s *Seeder) ensureRestaurant(ctx context.Context, want domain.Restaurant) (*domain.Restaurant, error) {
	r, err := s.restaurants.GetByKey(ctx, want.Key)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.restaurants.Create(ctx, want)
}
