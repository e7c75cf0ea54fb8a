// Package scheduler runs the periodic recalculation pass and dispatch for
// every restaurant.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"restaurant-segments/internal/domain"
	"restaurant-segments/internal/service/segmentation"
	"restaurant-segments/internal/service/trigger"
)

type restaurantLister interface {
	List(ctx context.Context) ([]domain.Restaurant, error)
}

type recalculator interface {
	Recalculate(ctx context.Context, restaurantID string) (*segmentation.PassResult, error)
}

type dispatcher interface {
	ProcessPending(ctx context.Context, restaurantID string, limit int) (trigger.DispatchResult, error)
}

// Scheduler wraps a cron runner with one job: recalculate, then dispatch.
type Scheduler struct {
	cron        *cron.Cron
	restaurants restaurantLister
	passes      recalculator
	dispatch    dispatcher
	batchSize   int
	timeout     time.Duration
	logger      *log.Logger
}

// New registers the job under the given cron spec (standard five fields).
// A nil dispatch skips sending.
func New(spec string, restaurants restaurantLister, passes recalculator, dispatch dispatcher, batchSize int, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Scheduler{
		restaurants: restaurants,
		passes:      passes,
		dispatch:    dispatch,
		batchSize:   batchSize,
		timeout:     30 * time.Minute,
		logger:      logger,
	}
	cronLogger := cron.PrintfLogger(logger)
	s.cron = cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Printf("scheduler: started")
}

// Stop halts the scheduler and waits for a running job until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Printf("scheduler: stop timed out waiting for running job")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Printf("scheduler: run failed: %v", err)
	}
}

// RunOnce processes every restaurant in turn. A failing restaurant is logged
// and does not stop the others; the first error is returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	restaurants, err := s.restaurants.List(ctx)
	if err != nil {
		return fmt.Errorf("list restaurants: %w", err)
	}
	var firstErr error
	for _, r := range restaurants {
		if err := s.runRestaurant(ctx, r); err != nil {
			s.logger.Printf("scheduler: restaurant=%s: %v", r.Key, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Scheduler) runRestaurant(ctx context.Context, r domain.Restaurant) error {
	pass, err := s.passes.Recalculate(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("recalculate: %w", err)
	}
	s.logger.Printf("scheduler: restaurant=%s evaluated=%d triggers=%d", r.Key, pass.Evaluated, len(pass.Triggers))
	if s.dispatch == nil {
		return nil
	}
	if _, err := s.dispatch.ProcessPending(ctx, r.ID, s.batchSize); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}
