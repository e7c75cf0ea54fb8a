package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"restaurant-segments/internal/domain"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name  string
		store Pinger
		want  int
	}{
		{"no store", nil, http.StatusServiceUnavailable},
		{"unreachable", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable},
		{"ready", fakePinger{}, http.StatusOK},
	}
	for _, tc := range cases {
		router := gin.New()
		router.GET("/readyz", readyHandler(tc.store))
		if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestServer_RunStopsWhenContextEnds(t *testing.T) {
	srv, err := New(Options{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}, logDiscard(), fakePinger{}, Deps{
		Restaurants: &stubRestaurantRepo{restaurant: &domain.Restaurant{ID: "r-1", Key: "spice-route"}},
		CustomerSvc: &stubCustomerService{},
		SegmentSvc:  &stubSegmentService{},
		TriggerSvc:  &stubTriggerService{},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func TestNew_RejectsMissingDeps(t *testing.T) {
	if _, err := New(Options{Addr: ":0"}, logDiscard(), nil, Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}
