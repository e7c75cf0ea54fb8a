package domain

import "time"

// OrderSource is where an order was placed.
type OrderSource string

const (
	SourceDineIn   OrderSource = "dine_in"
	SourceTakeaway OrderSource = "takeaway"
	SourceDelivery OrderSource = "delivery"
)

// Valid reports whether s is a known source.
func (s OrderSource) Valid() bool {
	switch s {
	case SourceDineIn, SourceTakeaway, SourceDelivery:
		return true
	}
	return false
}

// LineItem is a single menu item on an order.
type LineItem struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	IsCombo  bool    `json:"isCombo"`
}

// Order belongs to exactly one customer and is immutable once stored.
type Order struct {
	ID          string      `json:"id"`
	CustomerID  string      `json:"customerId"`
	PlacedAt    time.Time   `json:"placedAt"`
	Items       []LineItem  `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	GuestCount  int         `json:"guestCount"`
	Source      OrderSource `json:"source"`
}

// HasCombo reports whether any line item is a combo.
func (o Order) HasCombo() bool {
	for _, it := range o.Items {
		if it.IsCombo {
			return true
		}
	}
	return false
}
