package scheduler

import (
	"context"
	"errors"
	"testing"

	"restaurant-segments/internal/domain"
	"restaurant-segments/internal/service/segmentation"
	"restaurant-segments/internal/service/trigger"
)

type stubRestaurants []domain.Restaurant

func (s stubRestaurants) List(context.Context) ([]domain.Restaurant, error) { return s, nil }

type stubPasses struct {
	failFor string
	ran     []string
}

func (s *stubPasses) Recalculate(_ context.Context, id string) (*segmentation.PassResult, error) {
	s.ran = append(s.ran, id)
	if id == s.failFor {
		return nil, errors.New("db down")
	}
	return &segmentation.PassResult{RestaurantID: id}, nil
}

type stubDispatch struct {
	ran   []string
	limit int
}

func (s *stubDispatch) ProcessPending(_ context.Context, id string, limit int) (trigger.DispatchResult, error) {
	s.ran = append(s.ran, id)
	s.limit = limit
	return trigger.DispatchResult{}, nil
}

func TestNew_RejectsBadSpec(t *testing.T) {
	if _, err := New("every day please", stubRestaurants{}, &stubPasses{}, nil, 10, nil); err == nil {
		t.Fatalf("expected invalid cron spec to fail")
	}
}

func TestRunOnce_ContinuesPastFailures(t *testing.T) {
	restaurants := stubRestaurants{{ID: "r1", Key: "one"}, {ID: "r2", Key: "two"}, {ID: "r3", Key: "three"}}
	passes := &stubPasses{failFor: "r2"}
	dispatch := &stubDispatch{}
	s, err := New("0 3 * * *", restaurants, passes, dispatch, 50, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected first error to be returned")
	}
	if len(passes.ran) != 3 {
		t.Fatalf("expected all restaurants recalculated, got %v", passes.ran)
	}
	if len(dispatch.ran) != 2 || dispatch.ran[0] != "r1" || dispatch.ran[1] != "r3" {
		t.Fatalf("expected dispatch for healthy restaurants only, got %v", dispatch.ran)
	}
	if dispatch.limit != 50 {
		t.Fatalf("expected batch size 50, got %d", dispatch.limit)
	}
}

func TestRunOnce_WithoutDispatcher(t *testing.T) {
	passes := &stubPasses{}
	s, err := New("@hourly", stubRestaurants{{ID: "r1"}}, passes, nil, 0, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(passes.ran) != 1 {
		t.Fatalf("expected one pass, got %v", passes.ran)
	}
}
