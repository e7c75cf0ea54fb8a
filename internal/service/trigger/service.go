package trigger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"restaurant-segments/internal/composer"
	"restaurant-segments/internal/delivery"
	"restaurant-segments/internal/domain"
	triggerrepo "restaurant-segments/internal/repository/trigger"
)

const (
	defaultBatchSize = 200
	// claimLease bounds how long a crashed dispatcher can hold a batch.
	claimLease = 10 * time.Minute
)

type customerGetter interface {
	GetByID(ctx context.Context, restaurantID, id string) (*domain.Customer, error)
}

// Service lists triggers, previews their messages and dispatches pending ones.
type Service struct {
	triggers    triggerrepo.Repository
	customers   customerGetter
	sender      delivery.Sender
	concurrency int
	logger      *log.Logger
	now         func() time.Time
}

// New creates a Service. concurrency bounds in-flight sends.
func New(triggers triggerrepo.Repository, customers customerGetter, sender delivery.Sender, concurrency int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		triggers:    triggers,
		customers:   customers,
		sender:      sender,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns triggers oldest first; a nil processed matches both states.
func (s *Service) List(ctx context.Context, restaurantID string, processed *bool) ([]domain.AutomationTrigger, error) {
	return s.triggers.List(ctx, restaurantID, triggerrepo.ListFilter{Processed: processed})
}

// Preview is a composed message that has not been sent.
type Preview struct {
	Trigger domain.AutomationTrigger `json:"trigger"`
	Message domain.Message           `json:"message"`
}

// Preview composes the message for a trigger without sending it.
func (s *Service) Preview(ctx context.Context, restaurantID, triggerID string) (*Preview, error) {
	t, err := s.triggers.Get(ctx, restaurantID, triggerID)
	if err != nil {
		return nil, err
	}
	c, err := s.customers.GetByID(ctx, restaurantID, t.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer %s: %w", t.CustomerID, err)
	}
	return &Preview{Trigger: *t, Message: composer.GenerateMessage(*t, *c)}, nil
}

// DispatchResult counts what one ProcessPending call did.
type DispatchResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// ProcessPending claims up to limit unprocessed triggers, sends them and
// marks the delivered ones processed. Failed sends stay pending for the next
// run. Concurrent calls work on disjoint batches.
func (s *Service) ProcessPending(ctx context.Context, restaurantID string, limit int) (DispatchResult, error) {
	if limit <= 0 {
		limit = defaultBatchSize
	}
	batch, err := s.triggers.Claim(ctx, restaurantID, limit, s.now().Add(claimLease))
	if err != nil {
		return DispatchResult{}, fmt.Errorf("claim pending triggers: %w", err)
	}

	var unsent []string
	defer func() {
		if len(unsent) == 0 {
			return
		}
		if err := s.triggers.Release(context.WithoutCancel(ctx), restaurantID, unsent); err != nil {
			s.logger.Printf("trigger: release claims restaurant=%s: %v", restaurantID, err)
		}
	}()

	var res DispatchResult
	customers := make(map[string]*domain.Customer)
	for _, t := range batch {
		if _, ok := customers[t.CustomerID]; ok {
			continue
		}
		c, err := s.customers.GetByID(ctx, restaurantID, t.CustomerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			for _, b := range batch {
				unsent = append(unsent, b.ID)
			}
			return DispatchResult{}, fmt.Errorf("load customer %s: %w", t.CustomerID, err)
		}
		customers[t.CustomerID] = c
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, s.concurrency)
	)
	record := func(fn func(*DispatchResult)) {
		mu.Lock()
		fn(&res)
		mu.Unlock()
	}
	keep := func(id string) {
		mu.Lock()
		unsent = append(unsent, id)
		mu.Unlock()
	}

	for i, t := range batch {
		c := customers[t.CustomerID]
		if c == nil || !c.IsActive {
			record(func(r *DispatchResult) { r.Skipped++ })
			keep(t.ID)
			continue
		}
		if ctx.Err() != nil {
			for _, rest := range batch[i:] {
				keep(rest.ID)
			}
			break
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(t domain.AutomationTrigger, c domain.Customer) {
			defer wg.Done()
			defer func() { <-semaphore }()

			msg := composer.GenerateMessage(t, c)
			if err := s.sender.Send(ctx, delivery.RecipientFor(c), msg); err != nil {
				s.logger.Printf("trigger: send failed trigger=%s customer=%s: %v", t.ID, c.ID, err)
				record(func(r *DispatchResult) { r.Failed++ })
				keep(t.ID)
				return
			}
			if _, err := s.triggers.MarkProcessed(ctx, restaurantID, t.ID, s.now().UTC()); err != nil {
				s.logger.Printf("trigger: mark processed trigger=%s: %v", t.ID, err)
				record(func(r *DispatchResult) { r.Failed++ })
				return
			}
			record(func(r *DispatchResult) { r.Sent++ })
		}(t, *c)
	}

	wg.Wait()
	s.logger.Printf("trigger: restaurant=%s sent=%d failed=%d skipped=%d", restaurantID, res.Sent, res.Failed, res.Skipped)
	return res, ctx.Err()
}
