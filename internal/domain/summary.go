package domain

import "time"

// RestaurantCustomerSummary is a derived rollup of tag distributions.
// It is regenerated in full on every pass and never patched.
type RestaurantCustomerSummary struct {
	TotalCustomers      int                     `json:"totalCustomers"`
	SpendCounts         map[SpendTag]int        `json:"spendCounts"`
	ActivityCounts      map[ActivityTag]int     `json:"activityCounts"`
	BehaviorCounts      map[BehaviorTag]int     `json:"behaviorCounts"`
	SpendPercent        map[SpendTag]float64    `json:"spendPercent"`
	ActivityPercent     map[ActivityTag]float64 `json:"activityPercent"`
	BehaviorPercent     map[BehaviorTag]float64 `json:"behaviorPercent"`
	TotalRevenue        float64                 `json:"totalRevenue"`
	AverageOrderValue   float64                 `json:"averageOrderValue"`
	AverageVisitGapDays float64                 `json:"averageVisitGapDays"`
}

// SummaryRecord is a persisted summary snapshot.
type SummaryRecord struct {
	ID           string                    `json:"id"`
	RestaurantID string                    `json:"restaurantId"`
	Summary      RestaurantCustomerSummary `json:"summary"`
	CreatedAt    time.Time                 `json:"createdAt"`
}
