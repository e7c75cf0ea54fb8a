package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"restaurant-segments/internal/domain"
	customersvc "restaurant-segments/internal/service/customer"
	"restaurant-segments/internal/service/segmentation"
	triggersvc "restaurant-segments/internal/service/trigger"
)

type ctxKey string

const restaurantCtxKey ctxKey = "restaurant"

type restaurantRepo interface {
	GetByKey(ctx context.Context, key string) (*domain.Restaurant, error)
}

// RestaurantStore is the restaurant persistence the API needs.
type RestaurantStore interface {
	restaurantRepo
	Create(ctx context.Context, r domain.Restaurant) (*domain.Restaurant, error)
	List(ctx context.Context) ([]domain.Restaurant, error)
}

// CustomerService records orders and serves customer lookups.
type CustomerService interface {
	RecordOrder(ctx context.Context, restaurantID string, in customersvc.OrderInput) (*customersvc.OrderResult, error)
	Get(ctx context.Context, restaurantID, id string) (*domain.Customer, error)
	List(ctx context.Context, restaurantID string, in customersvc.ListInput) ([]domain.Customer, error)
	Deactivate(ctx context.Context, restaurantID, id string) error
}

// SegmentService runs recalculation passes.
type SegmentService interface {
	Recalculate(ctx context.Context, restaurantID string) (*segmentation.PassResult, error)
	LatestSummary(ctx context.Context, restaurantID string) (*domain.SummaryRecord, error)
}

// TriggerService exposes automation triggers and their dispatch.
type TriggerService interface {
	List(ctx context.Context, restaurantID string, processed *bool) ([]domain.AutomationTrigger, error)
	Preview(ctx context.Context, restaurantID, triggerID string) (*triggersvc.Preview, error)
	ProcessPending(ctx context.Context, restaurantID string, limit int) (triggersvc.DispatchResult, error)
}

// Deps groups everything the router hands to handlers.
type Deps struct {
	Restaurants RestaurantStore
	CustomerSvc CustomerService
	SegmentSvc  SegmentService
	TriggerSvc  TriggerService
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, store Pinger, deps Deps) (*gin.Engine, error) {
	if deps.Restaurants == nil || deps.CustomerSvc == nil || deps.SegmentSvc == nil || deps.TriggerSvc == nil {
		return nil, errors.New("httpserver: missing dependencies")
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(store))
	router.GET("/restaurants", h.listRestaurants)
	router.POST("/restaurants", h.createRestaurant)

	scoped := router.Group("/:restaurantKey", restaurantMiddleware(deps.Restaurants))
	scoped.GET("/customers", h.listCustomers)
	scoped.GET("/customers/:id", h.getCustomer)
	scoped.DELETE("/customers/:id", h.deactivateCustomer)
	scoped.POST("/orders", h.recordOrder)
	scoped.POST("/segments/recalculate", h.recalculate)
	scoped.GET("/segments/summary", h.summary)
	scoped.GET("/triggers", h.listTriggers)
	scoped.GET("/triggers/:id/message", h.previewTrigger)
	scoped.POST("/triggers/process", h.processTriggers)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// restaurantMiddleware resolves :restaurantKey and stores the restaurant in
// the request context.
func restaurantMiddleware(repo restaurantRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Param("restaurantKey"))
		if key == "" {
			writeError(c, http.StatusBadRequest, "InvalidInput", "restaurant key required")
			return
		}
		r, err := repo.GetByKey(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				writeError(c, http.StatusNotFound, "ResourceNotFound", "restaurant '"+key+"' not found")
				return
			}
			writeError(c, http.StatusInternalServerError, "General", "failed to load restaurant")
			return
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), restaurantCtxKey, r))
		c.Next()
	}
}

func restaurantFrom(c *gin.Context) *domain.Restaurant {
	r, _ := c.Request.Context().Value(restaurantCtxKey).(*domain.Restaurant)
	return r
}
