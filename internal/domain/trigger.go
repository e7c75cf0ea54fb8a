package domain

import "time"

// TagDimension names which tag changed.
type TagDimension string

const (
	DimensionSpend    TagDimension = "spend"
	DimensionActivity TagDimension = "activity"
	DimensionBehavior TagDimension = "behavior"
)

// Rank orders dimensions for deterministic trigger lists.
func (d TagDimension) Rank() int {
	switch d {
	case DimensionSpend:
		return 0
	case DimensionActivity:
		return 1
	case DimensionBehavior:
		return 2
	}
	return 3
}

// AutomationTrigger records one tag transition that should cause outreach.
// For behavior triggers a gained tag sits in NewTag with an empty OldTag,
// a lost tag in OldTag with an empty NewTag.
type AutomationTrigger struct {
	ID             string       `json:"id"`
	RestaurantID   string       `json:"restaurantId"`
	CustomerID     string       `json:"customerId"`
	Dimension      TagDimension `json:"dimension"`
	OldTag         string       `json:"oldTag"`
	NewTag         string       `json:"newTag"`
	Processed      bool         `json:"processed"`
	CreatedAt      time.Time    `json:"createdAt"`
	CampaignSentAt *time.Time   `json:"campaignSentAt,omitempty"`
}

// Message is composed outreach text handed to a delivery channel.
type Message struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}
