package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"restaurant-segments/internal/domain"
)

type errorResponse struct {
	StatusCode int           `json:"statusCode"`
	Message    string        `json:"message"`
	Errors     []errorDetail `json:"errors"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		StatusCode: status,
		Message:    message,
		Errors:     []errorDetail{{Code: code, Message: message}},
	})
}

// writeServiceError maps domain errors to HTTP statuses. Unknown errors are
// logged and hidden behind a 500.
func writeServiceError(c *gin.Context, logger *log.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "ResourceNotFound", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, "InvalidInput", err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(c, http.StatusConflict, "DuplicateValue", err.Error())
	case errors.Is(err, domain.ErrAlreadyProcessed):
		writeError(c, http.StatusConflict, "ConcurrentModification", err.Error())
	default:
		logger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		writeError(c, http.StatusInternalServerError, "General", "internal error")
	}
}

// customerSummary is the list view of a customer; order history is only
// returned by the single-customer endpoint.
type customerSummary struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Phone               string               `json:"phone,omitempty"`
	TotalVisits         int                  `json:"totalVisits"`
	TotalSpend          float64              `json:"totalSpend"`
	AverageOrderValue   float64              `json:"averageOrderValue"`
	AverageVisitGapDays float64              `json:"averageVisitGapDays"`
	LastVisitDate       string               `json:"lastVisitDate,omitempty"`
	SpendTag            domain.SpendTag      `json:"spendTag"`
	ActivityTag         domain.ActivityTag   `json:"activityTag"`
	BehaviorTags        []domain.BehaviorTag `json:"behaviorTags"`
	IsActive            bool                 `json:"isActive"`
}

func toCustomerSummary(c domain.Customer) customerSummary {
	out := customerSummary{
		ID:                  c.ID,
		Name:                c.Name,
		Phone:               maskPhone(c.Phone),
		TotalVisits:         c.TotalVisits,
		TotalSpend:          c.TotalSpend,
		AverageOrderValue:   c.AverageOrderValue,
		AverageVisitGapDays: c.AverageVisitGapDays,
		SpendTag:            c.Tags.Spend,
		ActivityTag:         c.Tags.Activity,
		BehaviorTags:        []domain.BehaviorTag(c.Tags.Behaviors),
		IsActive:            c.IsActive,
	}
	if out.BehaviorTags == nil {
		out.BehaviorTags = []domain.BehaviorTag{}
	}
	if c.LastVisitDate != nil {
		out.LastVisitDate = c.LastVisitDate.UTC().Format("2006-01-02")
	}
	return out
}

// maskPhone keeps the last four digits.
func maskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
