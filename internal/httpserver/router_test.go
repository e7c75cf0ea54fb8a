package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"restaurant-segments/internal/domain"
	customersvc "restaurant-segments/internal/service/customer"
	"restaurant-segments/internal/service/segmentation"
	triggersvc "restaurant-segments/internal/service/trigger"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubRestaurantRepo struct {
	restaurant *domain.Restaurant
	err        error
	created    *domain.Restaurant
	createErr  error
}

func (s *stubRestaurantRepo) GetByKey(_ context.Context, _ string) (*domain.Restaurant, error) {
	return s.restaurant, s.err
}

func (s *stubRestaurantRepo) Create(_ context.Context, r domain.Restaurant) (*domain.Restaurant, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	r.ID = "new-id"
	s.created = &r
	return &r, nil
}

func (s *stubRestaurantRepo) List(_ context.Context) ([]domain.Restaurant, error) {
	if s.restaurant == nil {
		return []domain.Restaurant{}, nil
	}
	return []domain.Restaurant{*s.restaurant}, nil
}

type stubCustomerService struct {
	customers []domain.Customer
	listErr   error
	lastList  customersvc.ListInput
	orderErr  error
	getErr    error
}

func (s *stubCustomerService) RecordOrder(_ context.Context, _ string, in customersvc.OrderInput) (*customersvc.OrderResult, error) {
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	if err := customersvc.ValidateOrder(in); err != nil {
		return nil, err
	}
	return &customersvc.OrderResult{
		Customer: domain.Customer{ID: "cust-1", Name: in.CustomerName},
		Order:    domain.Order{ID: "order-1", CustomerID: "cust-1"},
		Triggers: []domain.AutomationTrigger{},
	}, nil
}

func (s *stubCustomerService) Get(_ context.Context, _, id string) (*domain.Customer, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.Customer{ID: id, Name: "Nisha"}, nil
}

func (s *stubCustomerService) List(_ context.Context, _ string, in customersvc.ListInput) ([]domain.Customer, error) {
	s.lastList = in
	return s.customers, s.listErr
}

func (s *stubCustomerService) Deactivate(_ context.Context, _, id string) error {
	if id == "missing" {
		return domain.ErrNotFound
	}
	return nil
}

type stubSegmentService struct {
	latestErr error
}

func (s *stubSegmentService) Recalculate(_ context.Context, id string) (*segmentation.PassResult, error) {
	return &segmentation.PassResult{RestaurantID: id, Evaluated: 3, Triggers: []domain.AutomationTrigger{}}, nil
}

func (s *stubSegmentService) LatestSummary(_ context.Context, id string) (*domain.SummaryRecord, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return &domain.SummaryRecord{ID: "sum-1", RestaurantID: id, Summary: domain.RestaurantCustomerSummary{TotalCustomers: 3}}, nil
}

type stubTriggerService struct {
	lastProcessed *bool
	lastLimit     int
	previewErr    error
}

func (s *stubTriggerService) List(_ context.Context, _ string, processed *bool) ([]domain.AutomationTrigger, error) {
	s.lastProcessed = processed
	return []domain.AutomationTrigger{{ID: "t1", Dimension: domain.DimensionSpend}}, nil
}

func (s *stubTriggerService) Preview(_ context.Context, _, id string) (*triggersvc.Preview, error) {
	if s.previewErr != nil {
		return nil, s.previewErr
	}
	return &triggersvc.Preview{
		Trigger: domain.AutomationTrigger{ID: id},
		Message: domain.Message{Subject: "We miss you, Nisha", Body: "Hi Nisha"},
	}, nil
}

func (s *stubTriggerService) ProcessPending(_ context.Context, _ string, limit int) (triggersvc.DispatchResult, error) {
	s.lastLimit = limit
	return triggersvc.DispatchResult{Sent: 2}, nil
}

type testDeps struct {
	restaurants *stubRestaurantRepo
	customers   *stubCustomerService
	segments    *stubSegmentService
	triggers    *stubTriggerService
}

func newTestRouter(t *testing.T) (*gin.Engine, *testDeps) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d := &testDeps{
		restaurants: &stubRestaurantRepo{restaurant: &domain.Restaurant{ID: "r-1", Key: "spice-route", Name: "Spice Route"}},
		customers:   &stubCustomerService{},
		segments:    &stubSegmentService{},
		triggers:    &stubTriggerService{},
	}
	router, err := buildRouter(logDiscard(), nil, Deps{
		Restaurants: d.restaurants,
		CustomerSvc: d.customers,
		SegmentSvc:  d.segments,
		TriggerSvc:  d.triggers,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router, d
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRestaurantMiddleware_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubRestaurantRepo{
		restaurant: &domain.Restaurant{ID: "123", Key: "resto", Name: "Test"},
	}
	router := gin.New()
	router.Use(restaurantMiddleware(repo))
	router.GET("/r/:restaurantKey/test", func(c *gin.Context) {
		if restaurantFrom(c) == nil {
			t.Fatalf("expected restaurant in context")
		}
		c.Status(http.StatusOK)
	})

	rec := do(router, http.MethodGet, "/r/resto/test", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRestaurantMiddleware_Errors(t *testing.T) {
	cases := []struct {
		name   string
		repo   *stubRestaurantRepo
		target string
		want   int
	}{
		{"not found", &stubRestaurantRepo{err: domain.ErrNotFound}, "/r/missing/test", http.StatusNotFound},
		{"store failure", &stubRestaurantRepo{err: errors.New("boom")}, "/r/resto/test", http.StatusInternalServerError},
		{"missing key", &stubRestaurantRepo{}, "/r//test", http.StatusBadRequest},
	}
	for _, tc := range cases {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(restaurantMiddleware(tc.repo))
		router.GET("/r/:restaurantKey/test", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		rec := do(router, http.MethodGet, tc.target, "")
		if rec.Code != tc.want {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestBuildRouter_RequiresDeps(t *testing.T) {
	if _, err := buildRouter(logDiscard(), nil, Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	if rec := do(router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", rec.Code)
	}
}

func TestCreateRestaurant(t *testing.T) {
	router, d := newTestRouter(t)

	rec := do(router, http.MethodPost, "/restaurants", `{"key":"Spice-Route","name":"Spice Route"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if d.restaurants.created == nil || d.restaurants.created.Key != "spice-route" {
		t.Fatalf("expected lowercased key, got %+v", d.restaurants.created)
	}

	if rec := do(router, http.MethodPost, "/restaurants", `{"key":"no spaces allowed"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad key, got %d", rec.Code)
	}

	d.restaurants.createErr = domain.ErrAlreadyExists
	if rec := do(router, http.MethodPost, "/restaurants", `{"key":"spice-route"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}
}

func TestListCustomers_PassesFilters(t *testing.T) {
	router, d := newTestRouter(t)
	last := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	d.customers.customers = []domain.Customer{{
		ID:            "c1",
		Name:          "Nisha",
		Phone:         "+919812345678",
		LastVisitDate: &last,
		Tags:          domain.Tags{Spend: domain.SpendHigh, Activity: domain.ActivityActive},
	}}

	rec := do(router, http.MethodGet, "/spice-route/customers?spendTag=high_spender&behaviorTag=combo_buyer", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if d.customers.lastList.SpendTag != "high_spender" || d.customers.lastList.BehaviorTag != "combo_buyer" || !d.customers.lastList.ActiveOnly {
		t.Fatalf("filters not passed: %+v", d.customers.lastList)
	}
	body := rec.Body.String()
	for _, want := range []string{`"count":1`, `"spendTag":"high_spender"`, `"behaviorTags":[]`, `"lastVisitDate":"2026-02-01"`, `"phone":"*********5678"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in body: %s", want, body)
		}
	}
	if strings.Contains(body, "orders") {
		t.Fatalf("list view should not include orders: %s", body)
	}
}

func TestListCustomers_InvalidTag(t *testing.T) {
	router, d := newTestRouter(t)
	d.customers.listErr = domain.ErrInvalidInput
	if rec := do(router, http.MethodGet, "/spice-route/customers?spendTag=whale", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCustomerEndpoints(t *testing.T) {
	router, d := newTestRouter(t)

	if rec := do(router, http.MethodGet, "/spice-route/customers/c9", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"c9"`) {
		t.Fatalf("unexpected get response %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(router, http.MethodDelete, "/spice-route/customers/c9", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := do(router, http.MethodDelete, "/spice-route/customers/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	d.customers.getErr = errors.New("connection reset")
	rec := do(router, http.MethodGet, "/spice-route/customers/c9", "")
	if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("expected opaque 500, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRecordOrder(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"customerName":"Nisha","customerPhone":"+919812345678","items":[{"name":"Biryani","category":"mains","price":320,"quantity":1}],"guestCount":2,"source":"delivery"}`
	rec := do(router, http.MethodPost, "/spice-route/orders", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"id":"order-1"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = do(router, http.MethodPost, "/spice-route/orders", `{"customerName":"Nisha","items":[{"name":"Biryani","price":-1,"quantity":1}]}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "InvalidInput") {
		t.Fatalf("expected 400 InvalidInput, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(router, http.MethodPost, "/spice-route/orders", `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestSegmentEndpoints(t *testing.T) {
	router, d := newTestRouter(t)

	rec := do(router, http.MethodPost, "/spice-route/segments/recalculate", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"evaluated":3`) {
		t.Fatalf("unexpected recalculate response %d %s", rec.Code, rec.Body.String())
	}
	rec = do(router, http.MethodGet, "/spice-route/segments/summary", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"totalCustomers":3`) {
		t.Fatalf("unexpected summary response %d %s", rec.Code, rec.Body.String())
	}

	d.segments.latestErr = domain.ErrNotFound
	if rec := do(router, http.MethodGet, "/spice-route/segments/summary", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first pass, got %d", rec.Code)
	}
}

func TestTriggerEndpoints(t *testing.T) {
	router, d := newTestRouter(t)

	if rec := do(router, http.MethodGet, "/spice-route/triggers?processed=false", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if d.triggers.lastProcessed == nil || *d.triggers.lastProcessed {
		t.Fatalf("expected processed=false filter, got %v", d.triggers.lastProcessed)
	}
	if rec := do(router, http.MethodGet, "/spice-route/triggers?processed=maybe", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec := do(router, http.MethodGet, "/spice-route/triggers/t7/message", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "We miss you, Nisha") {
		t.Fatalf("unexpected preview %d %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodPost, "/spice-route/triggers/process?limit=25", "")
	if rec.Code != http.StatusOK || d.triggers.lastLimit != 25 || !strings.Contains(rec.Body.String(), `"sent":2`) {
		t.Fatalf("unexpected process response %d %s limit=%d", rec.Code, rec.Body.String(), d.triggers.lastLimit)
	}
	if rec := do(router, http.MethodPost, "/spice-route/triggers/process?limit=0", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}

	d.triggers.previewErr = domain.ErrAlreadyProcessed
	if rec := do(router, http.MethodGet, "/spice-route/triggers/t7/message", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
