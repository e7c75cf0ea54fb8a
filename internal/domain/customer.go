package domain

import (
	"strings"
	"time"
)

// Customer is a diner of one restaurant together with the stats and tags
// derived from their order history.
type Customer struct {
	ID                  string     `json:"id"`
	RestaurantID        string     `json:"restaurantId"`
	Name                string     `json:"name"`
	Phone               string     `json:"phone,omitempty"`
	Email               string     `json:"email,omitempty"`
	FirstVisitDate      *time.Time `json:"firstVisitDate,omitempty"`
	LastVisitDate       *time.Time `json:"lastVisitDate,omitempty"`
	TotalVisits         int        `json:"totalVisits"`
	TotalSpend          float64    `json:"totalSpend"`
	AverageOrderValue   float64    `json:"averageOrderValue"`
	AverageVisitGapDays float64    `json:"averageVisitGapDays"`
	Orders              []Order    `json:"orders,omitempty"`
	Tags                Tags       `json:"tags"`
	IsActive            bool       `json:"isActive"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// FirstName returns the first word of the customer's name, or a neutral
// salutation when the name is blank.
func (c Customer) FirstName() string {
	fields := strings.Fields(c.Name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
