package segmentation

import (
	"context"
	"fmt"
	"io"
	"log"

	"restaurant-segments/internal/automation"
	"restaurant-segments/internal/domain"
	customerrepo "restaurant-segments/internal/repository/customer"
	"restaurant-segments/internal/segment"
	"restaurant-segments/internal/tagging"
)

type customerStore interface {
	List(ctx context.Context, restaurantID string, f customerrepo.ListFilter) ([]domain.Customer, error)
	SaveTags(ctx context.Context, restaurantID string, results []domain.TagResult) error
}

type summaryStore interface {
	Save(ctx context.Context, restaurantID string, s domain.RestaurantCustomerSummary) (*domain.SummaryRecord, error)
	Latest(ctx context.Context, restaurantID string) (*domain.SummaryRecord, error)
}

type triggerStore interface {
	Append(ctx context.Context, restaurantID string, triggers []domain.AutomationTrigger) ([]domain.AutomationTrigger, error)
}

// Service runs recalculation passes: evaluate tags, summarize, detect
// transitions, persist.
type Service struct {
	customers customerStore
	summaries summaryStore
	triggers  triggerStore
	evaluator *tagging.Evaluator
	logger    *log.Logger
}

// New creates a Service.
func New(customers customerStore, summaries summaryStore, triggers triggerStore, evaluator *tagging.Evaluator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		customers: customers,
		summaries: summaries,
		triggers:  triggers,
		evaluator: evaluator,
		logger:    logger,
	}
}

// PassResult reports what a full recalculation produced.
type PassResult struct {
	RestaurantID string                     `json:"restaurantId"`
	Evaluated    int                        `json:"evaluated"`
	Changed      int                        `json:"changed"`
	Summary      domain.SummaryRecord       `json:"summary"`
	Triggers     []domain.AutomationTrigger `json:"triggers"`
}

// Recalculate runs a full pass over the restaurant's active customers.
// Running it twice on unchanged data yields the same summary and no new
// triggers on the second run.
func (s *Service) Recalculate(ctx context.Context, restaurantID string) (*PassResult, error) {
	customers, err := s.customers.List(ctx, restaurantID, customerrepo.ListFilter{ActiveOnly: true, WithOrders: true})
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}

	// snapshot must be taken from the same load that is evaluated
	previous := make(map[string]domain.Tags, len(customers))
	for _, c := range customers {
		if !c.Tags.IsZero() {
			previous[c.ID] = c.Tags
		}
	}

	results := s.evaluator.EvaluateTags(customers, restaurantGap(customers))

	tagged := make([]domain.Customer, len(customers))
	changed := make([]domain.TagResult, 0, len(results))
	for i, res := range results {
		tagged[i] = customers[i]
		tagged[i].Tags = res.NewTags
		if prev, ok := previous[res.CustomerID]; !ok || !prev.Equal(res.NewTags) {
			changed = append(changed, res)
		}
	}

	summary := segment.Summarize(tagged)
	triggers := automation.ProcessTagChanges(results, previous)

	if err := s.customers.SaveTags(ctx, restaurantID, changed); err != nil {
		return nil, fmt.Errorf("save tags: %w", err)
	}
	rec, err := s.summaries.Save(ctx, restaurantID, summary)
	if err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	stored, err := s.triggers.Append(ctx, restaurantID, triggers)
	if err != nil {
		return nil, fmt.Errorf("append triggers: %w", err)
	}

	s.logger.Printf("segmentation: restaurant=%s evaluated=%d changed=%d triggers=%d", restaurantID, len(customers), len(changed), len(stored))
	return &PassResult{
		RestaurantID: restaurantID,
		Evaluated:    len(customers),
		Changed:      len(changed),
		Summary:      *rec,
		Triggers:     stored,
	}, nil
}

// Retag re-evaluates one customer after new order data arrived. The
// customer's stored tags are the previous snapshot, so transitions between
// full passes still produce triggers. The restaurant gap is derived from the
// current stats of active customers, the same way Recalculate derives it.
func (s *Service) Retag(ctx context.Context, c domain.Customer) (domain.Tags, []domain.AutomationTrigger, error) {
	active, err := s.customers.List(ctx, c.RestaurantID, customerrepo.ListFilter{ActiveOnly: true})
	if err != nil {
		return domain.Tags{}, nil, fmt.Errorf("load customers: %w", err)
	}
	active = withCustomer(active, c)

	next := s.evaluator.Evaluate(c, restaurantGap(active))
	previous := map[string]domain.Tags{}
	if !c.Tags.IsZero() {
		previous[c.ID] = c.Tags
	}
	result := domain.TagResult{CustomerID: c.ID, NewTags: next}
	triggers := automation.ProcessTagChanges([]domain.TagResult{result}, previous)
	if len(triggers) == 0 {
		return next, []domain.AutomationTrigger{}, nil
	}

	if err := s.customers.SaveTags(ctx, c.RestaurantID, []domain.TagResult{result}); err != nil {
		return domain.Tags{}, nil, fmt.Errorf("save tags: %w", err)
	}
	stored, err := s.triggers.Append(ctx, c.RestaurantID, triggers)
	if err != nil {
		return domain.Tags{}, nil, fmt.Errorf("append triggers: %w", err)
	}
	return next, stored, nil
}

// LatestSummary returns the most recent stored summary.
func (s *Service) LatestSummary(ctx context.Context, restaurantID string) (*domain.SummaryRecord, error) {
	return s.summaries.Latest(ctx, restaurantID)
}

// restaurantGap is the average personal visit gap over customers whose gap
// is known. Both passes evaluate against it.
func restaurantGap(customers []domain.Customer) float64 {
	return segment.Summarize(customers).AverageVisitGapDays
}

// withCustomer replaces c's stored entry with its fresh stats, or adds it
// when it is not stored as active yet.
func withCustomer(customers []domain.Customer, c domain.Customer) []domain.Customer {
	out := make([]domain.Customer, 0, len(customers)+1)
	found := false
	for _, existing := range customers {
		if existing.ID == c.ID {
			existing = c
			found = true
		}
		out = append(out, existing)
	}
	if !found && c.IsActive {
		out = append(out, c)
	}
	return out
}
