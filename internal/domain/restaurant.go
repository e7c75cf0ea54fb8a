package domain

import "time"

// Restaurant scopes customers, summaries and triggers.
type Restaurant struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
