package httpserver

import (
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"restaurant-segments/internal/domain"
	customersvc "restaurant-segments/internal/service/customer"
)

var restaurantKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

type handlers struct {
	deps   Deps
	logger *log.Logger
}

type createRestaurantRequest struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

func (h *handlers) createRestaurant(c *gin.Context) {
	var req createRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidJsonInput", "request body is not valid JSON")
		return
	}
	key := strings.ToLower(strings.TrimSpace(req.Key))
	if !restaurantKeyPattern.MatchString(key) || key == "restaurants" || key == "healthz" || key == "readyz" {
		writeError(c, http.StatusBadRequest, "InvalidInput", "key must be 2-63 lowercase letters, digits or dashes")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = key
	}
	r, err := h.deps.Restaurants.Create(c.Request.Context(), domain.Restaurant{Key: key, Name: name})
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *handlers) listRestaurants(c *gin.Context) {
	rs, err := h.deps.Restaurants.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(rs), "results": rs})
}

func (h *handlers) listCustomers(c *gin.Context) {
	r := restaurantFrom(c)
	in := customersvc.ListInput{
		SpendTag:    c.Query("spendTag"),
		ActivityTag: c.Query("activityTag"),
		BehaviorTag: c.Query("behaviorTag"),
		ActiveOnly:  c.Query("includeInactive") != "true",
	}
	customers, err := h.deps.CustomerSvc.List(c.Request.Context(), r.ID, in)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	results := make([]customerSummary, 0, len(customers))
	for _, cust := range customers {
		results = append(results, toCustomerSummary(cust))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(results), "results": results})
}

func (h *handlers) getCustomer(c *gin.Context) {
	r := restaurantFrom(c)
	cust, err := h.deps.CustomerSvc.Get(c.Request.Context(), r.ID, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *handlers) deactivateCustomer(c *gin.Context) {
	r := restaurantFrom(c)
	if err := h.deps.CustomerSvc.Deactivate(c.Request.Context(), r.ID, c.Param("id")); err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) recordOrder(c *gin.Context) {
	r := restaurantFrom(c)
	var in customersvc.OrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, http.StatusBadRequest, "InvalidJsonInput", "request body is not valid JSON")
		return
	}
	res, err := h.deps.CustomerSvc.RecordOrder(c.Request.Context(), r.ID, in)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *handlers) recalculate(c *gin.Context) {
	r := restaurantFrom(c)
	res, err := h.deps.SegmentSvc.Recalculate(c.Request.Context(), r.ID)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) summary(c *gin.Context) {
	r := restaurantFrom(c)
	rec, err := h.deps.SegmentSvc.LatestSummary(c.Request.Context(), r.ID)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) listTriggers(c *gin.Context) {
	r := restaurantFrom(c)
	var processed *bool
	if raw := c.Query("processed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "InvalidInput", "processed must be true or false")
			return
		}
		processed = &v
	}
	triggers, err := h.deps.TriggerSvc.List(c.Request.Context(), r.ID, processed)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(triggers), "results": triggers})
}

func (h *handlers) previewTrigger(c *gin.Context) {
	r := restaurantFrom(c)
	p, err := h.deps.TriggerSvc.Preview(c.Request.Context(), r.ID, c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) processTriggers(c *gin.Context) {
	r := restaurantFrom(c)
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 1000 {
			writeError(c, http.StatusBadRequest, "InvalidInput", "limit must be between 1 and 1000")
			return
		}
		limit = v
	}
	res, err := h.deps.TriggerSvc.ProcessPending(c.Request.Context(), r.ID, limit)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
