package tagging

import (
	"sort"

	"github.com/shopspring/decimal"
	"restaurant-segments/internal/domain"
)

// RecalculateStats rebuilds a customer's aggregates from its orders. Orders
// are sorted oldest first; tags are left untouched.
func RecalculateStats(c domain.Customer) domain.Customer {
	orders := make([]domain.Order, len(c.Orders))
	copy(orders, c.Orders)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].PlacedAt.Before(orders[j].PlacedAt) })
	c.Orders = orders

	c.TotalVisits = len(orders)
	if len(orders) == 0 {
		c.TotalSpend = 0
		c.AverageOrderValue = 0
		c.AverageVisitGapDays = 0
		c.FirstVisitDate = nil
		c.LastVisitDate = nil
		return c
	}

	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(decimal.NewFromFloat(o.TotalAmount))
	}
	c.TotalSpend = total.Round(2).InexactFloat64()
	c.AverageOrderValue = total.Div(decimal.NewFromInt(int64(len(orders)))).Round(2).InexactFloat64()

	first := orders[0].PlacedAt
	last := orders[len(orders)-1].PlacedAt
	c.FirstVisitDate = &first
	c.LastVisitDate = &last
	c.AverageVisitGapDays = 0
	if len(orders) > 1 {
		span := decimal.NewFromInt(int64(DaysBetween(first, last)))
		c.AverageVisitGapDays = span.Div(decimal.NewFromInt(int64(len(orders) - 1))).Round(2).InexactFloat64()
	}
	return c
}

// OrderTotal sums line items with decimal arithmetic.
func OrderTotal(items []domain.LineItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2).InexactFloat64()
}

// FavoriteItems returns up to n item names ordered by quantity, then name.
func FavoriteItems(c domain.Customer, n int) []string {
	qty := map[string]int{}
	for _, o := range c.Orders {
		for _, it := range o.Items {
			if it.Name == "" {
				continue
			}
			qty[it.Name] += it.Quantity
		}
	}
	names := make([]string, 0, len(qty))
	for name := range qty {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if qty[names[i]] != qty[names[j]] {
			return qty[names[i]] > qty[names[j]]
		}
		return names[i] < names[j]
	})
	if n >= 0 && len(names) > n {
		names = names[:n]
	}
	return names
}
