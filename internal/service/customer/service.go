package customer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"restaurant-segments/internal/domain"
	custrepo "restaurant-segments/internal/repository/customer"
	"restaurant-segments/internal/tagging"
)

type retagger interface {
	Retag(ctx context.Context, c domain.Customer) (domain.Tags, []domain.AutomationTrigger, error)
}

// Service records orders and exposes customer lookups.
type Service struct {
	repo   custrepo.Repository
	tagger retagger
	logger *log.Logger
	now    func() time.Time
}

// New creates a Service.
func New(repo custrepo.Repository, tagger retagger, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, tagger: tagger, logger: logger, now: time.Now}
}

// LineItemInput mirrors incoming line item payloads.
type LineItemInput struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	IsCombo  bool    `json:"isCombo"`
}

// OrderInput captures one order together with the identity of who placed it.
type OrderInput struct {
	OrderID       string          `json:"orderId"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	CustomerEmail string          `json:"customerEmail"`
	PlacedAt      *time.Time      `json:"placedAt"`
	Items         []LineItemInput `json:"items"`
	TotalAmount   *float64        `json:"totalAmount"`
	GuestCount    int             `json:"guestCount"`
	Source        string          `json:"source"`
}

// OrderResult is what RecordOrder produced.
type OrderResult struct {
	Customer domain.Customer            `json:"customer"`
	Order    domain.Order               `json:"order"`
	Triggers []domain.AutomationTrigger `json:"triggers"`
}

// ValidateOrder checks an order payload at the boundary. Every problem is
// reported in one error wrapping domain.ErrInvalidInput.
func ValidateOrder(in OrderInput) error {
	var problems []string
	if in.OrderID != "" {
		if _, err := uuid.Parse(in.OrderID); err != nil {
			problems = append(problems, "orderId must be a UUID")
		}
	}
	if strings.TrimSpace(in.CustomerPhone) == "" && strings.TrimSpace(in.CustomerName) == "" {
		problems = append(problems, "customer phone or name required")
	}
	if len(in.Items) == 0 {
		problems = append(problems, "at least one item required")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.Name) == "" {
			problems = append(problems, fmt.Sprintf("items[%d]: name required", i))
		}
		if it.Price < 0 {
			problems = append(problems, fmt.Sprintf("items[%d]: price must not be negative", i))
		}
		if it.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("items[%d]: quantity must be positive", i))
		}
	}
	if in.TotalAmount != nil && *in.TotalAmount < 0 {
		problems = append(problems, "totalAmount must not be negative")
	}
	if in.GuestCount < 0 {
		problems = append(problems, "guestCount must not be negative")
	}
	if in.Source != "" && !domain.OrderSource(in.Source).Valid() {
		problems = append(problems, fmt.Sprintf("unknown source %q", in.Source))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// RecordOrder validates the payload, finds the customer by phone, appends
// the order, refreshes stats and re-derives tags. A customer seen for the
// first time is stored together with its first order, so a rejected order
// never creates one.
func (s *Service) RecordOrder(ctx context.Context, restaurantID string, in OrderInput) (*OrderResult, error) {
	if err := ValidateOrder(in); err != nil {
		return nil, err
	}

	existing, err := s.findByPhone(ctx, restaurantID, in.CustomerPhone)
	if err != nil {
		return nil, err
	}

	order := buildOrder(in, s.now())
	if existing == nil {
		fresh := newCustomer(restaurantID, in)
		fresh.Orders = []domain.Order{order}
		created, err := s.repo.CreateWithOrder(ctx, tagging.RecalculateStats(fresh), order)
		if err == nil {
			return s.retag(ctx, *created, created.Orders[len(created.Orders)-1])
		}
		if !errors.Is(err, domain.ErrAlreadyExists) || fresh.Phone == "" {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		// a concurrent order may have created the same phone first
		existing, err = s.findByPhone(ctx, restaurantID, fresh.Phone)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("create customer: %w", domain.ErrAlreadyExists)
		}
	}

	for _, o := range existing.Orders {
		if o.ID == order.ID {
			return nil, fmt.Errorf("order %s: %w", order.ID, domain.ErrAlreadyExists)
		}
	}
	order.CustomerID = existing.ID
	existing.Orders = append(existing.Orders, order)
	updated := tagging.RecalculateStats(*existing)
	updated.IsActive = true
	if err := s.repo.AppendOrder(ctx, updated, order); err != nil {
		return nil, fmt.Errorf("append order: %w", err)
	}
	return s.retag(ctx, updated, order)
}

func (s *Service) retag(ctx context.Context, updated domain.Customer, order domain.Order) (*OrderResult, error) {
	tags, triggers, err := s.tagger.Retag(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("retag customer: %w", err)
	}
	updated.Tags = tags
	s.logger.Printf("customer: recorded order=%s customer=%s triggers=%d", order.ID, updated.ID, len(triggers))
	return &OrderResult{Customer: updated, Order: order, Triggers: triggers}, nil
}

// findByPhone returns nil without error when the phone is empty or unknown.
func (s *Service) findByPhone(ctx context.Context, restaurantID, phone string) (*domain.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	c, err := s.repo.GetByPhone(ctx, restaurantID, phone)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	return c, nil
}

func newCustomer(restaurantID string, in OrderInput) domain.Customer {
	return domain.Customer{
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(in.CustomerName),
		Phone:        strings.TrimSpace(in.CustomerPhone),
		Email:        strings.TrimSpace(strings.ToLower(in.CustomerEmail)),
		IsActive:     true,
	}
}

func buildOrder(in OrderInput, now time.Time) domain.Order {
	items := make([]domain.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, domain.LineItem{
			Name:     strings.TrimSpace(it.Name),
			Category: strings.TrimSpace(strings.ToLower(it.Category)),
			Price:    it.Price,
			Quantity: it.Quantity,
			IsCombo:  it.IsCombo,
		})
	}
	o := domain.Order{
		ID:         in.OrderID,
		PlacedAt:   now.UTC(),
		Items:      items,
		GuestCount: in.GuestCount,
		Source:     domain.OrderSource(in.Source),
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if in.PlacedAt != nil {
		o.PlacedAt = in.PlacedAt.UTC()
	}
	if o.Source == "" {
		o.Source = domain.SourceDineIn
	}
	if o.GuestCount == 0 {
		o.GuestCount = 1
	}
	if in.TotalAmount != nil {
		o.TotalAmount = *in.TotalAmount
	} else {
		o.TotalAmount = tagging.OrderTotal(items)
	}
	return o
}

// Get returns a customer with its order history.
func (s *Service) Get(ctx context.Context, restaurantID, id string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, restaurantID, id)
}

// ListInput narrows List by tag. Unknown tag values are rejected.
type ListInput struct {
	SpendTag    string
	ActivityTag string
	BehaviorTag string
	ActiveOnly  bool
}

// List returns customers matching the tag filters.
func (s *Service) List(ctx context.Context, restaurantID string, in ListInput) ([]domain.Customer, error) {
	f := custrepo.ListFilter{ActiveOnly: in.ActiveOnly}
	if in.SpendTag != "" {
		f.SpendTag = domain.SpendTag(in.SpendTag)
		if !f.SpendTag.Valid() {
			return nil, fmt.Errorf("%w: unknown spend tag %q", domain.ErrInvalidInput, in.SpendTag)
		}
	}
	if in.ActivityTag != "" {
		f.ActivityTag = domain.ActivityTag(in.ActivityTag)
		if !f.ActivityTag.Valid() {
			return nil, fmt.Errorf("%w: unknown activity tag %q", domain.ErrInvalidInput, in.ActivityTag)
		}
	}
	if in.BehaviorTag != "" {
		f.BehaviorTag = domain.BehaviorTag(in.BehaviorTag)
		if !f.BehaviorTag.Valid() {
			return nil, fmt.Errorf("%w: unknown behavior tag %q", domain.ErrInvalidInput, in.BehaviorTag)
		}
	}
	return s.repo.List(ctx, restaurantID, f)
}

// Deactivate excludes a customer from future passes. History is kept.
func (s *Service) Deactivate(ctx context.Context, restaurantID, id string) error {
	return s.repo.Deactivate(ctx, restaurantID, id)
}
