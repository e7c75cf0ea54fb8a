package customer

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"restaurant-segments/internal/domain"
)

// memoryRepo keeps customers in process. Order ids are unique across the
// whole store, like the orders primary key.
type memoryRepo struct {
	mu           sync.Mutex
	byRestaurant map[string]map[string]domain.Customer
	orderIDs     map[string]bool
}

// NewMemory returns a Repository held in memory. It backs tests and local
// tooling that should not need Postgres.
func NewMemory() Repository {
	return &memoryRepo{
		byRestaurant: make(map[string]map[string]domain.Customer),
		orderIDs:     make(map[string]bool),
	}
}

func (r *memoryRepo) CreateWithOrder(_ context.Context, c domain.Customer, o domain.Order) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.Phone != "" {
		for _, existing := range r.byRestaurant[c.RestaurantID] {
			if existing.Phone == c.Phone {
				return nil, domain.ErrAlreadyExists
			}
		}
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if r.orderIDs[o.ID] {
		return nil, domain.ErrAlreadyExists
	}

	c.ID = uuid.NewString()
	c.IsActive = true
	o.CustomerID = c.ID
	c.Orders = []domain.Order{o}
	if r.byRestaurant[c.RestaurantID] == nil {
		r.byRestaurant[c.RestaurantID] = make(map[string]domain.Customer)
	}
	r.byRestaurant[c.RestaurantID][c.ID] = c
	r.orderIDs[o.ID] = true
	return clone(c), nil
}

func (r *memoryRepo) GetByID(_ context.Context, restaurantID, id string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byRestaurant[restaurantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(c), nil
}

func (r *memoryRepo) GetByPhone(_ context.Context, restaurantID, phone string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if phone == "" {
		return nil, domain.ErrNotFound
	}
	for _, c := range r.byRestaurant[restaurantID] {
		if c.Phone == phone {
			return clone(c), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) List(_ context.Context, restaurantID string, f ListFilter) ([]domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Customer{}
	for _, c := range r.byRestaurant[restaurantID] {
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		if f.SpendTag != "" && c.Tags.Spend != f.SpendTag {
			continue
		}
		if f.ActivityTag != "" && c.Tags.Activity != f.ActivityTag {
			continue
		}
		if f.BehaviorTag != "" && !c.Tags.Behaviors.Has(f.BehaviorTag) {
			continue
		}
		cp := clone(c)
		if !f.WithOrders {
			cp.Orders = nil
		}
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) AppendOrder(_ context.Context, c domain.Customer, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byRestaurant[c.RestaurantID][c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if r.orderIDs[o.ID] {
		return domain.ErrAlreadyExists
	}
	o.CustomerID = c.ID

	stored.FirstVisitDate = c.FirstVisitDate
	stored.LastVisitDate = c.LastVisitDate
	stored.TotalVisits = c.TotalVisits
	stored.TotalSpend = c.TotalSpend
	stored.AverageOrderValue = c.AverageOrderValue
	stored.AverageVisitGapDays = c.AverageVisitGapDays
	stored.IsActive = true
	stored.Orders = append(append([]domain.Order(nil), stored.Orders...), o)
	r.byRestaurant[c.RestaurantID][c.ID] = stored
	r.orderIDs[o.ID] = true
	return nil
}

func (r *memoryRepo) SaveTags(_ context.Context, restaurantID string, results []domain.TagResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range results {
		c, ok := r.byRestaurant[restaurantID][res.CustomerID]
		if !ok {
			continue
		}
		c.Tags = res.NewTags
		r.byRestaurant[restaurantID][res.CustomerID] = c
	}
	return nil
}

func (r *memoryRepo) Deactivate(_ context.Context, restaurantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byRestaurant[restaurantID][id]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = false
	r.byRestaurant[restaurantID][id] = c
	return nil
}

func clone(c domain.Customer) *domain.Customer {
	c.Orders = append([]domain.Order(nil), c.Orders...)
	c.Tags.Behaviors = append(domain.BehaviorSet(nil), c.Tags.Behaviors...)
	return &c
}
