package segment

import (
	"github.com/shopspring/decimal"
	"restaurant-segments/internal/domain"
)

// Summarize folds tagged customers into a restaurant-wide rollup. Every
// known tag value is present in the count maps, so an empty input yields a
// fully zeroed summary.
func Summarize(customers []domain.Customer) domain.RestaurantCustomerSummary {
	s := emptySummary()
	s.TotalCustomers = len(customers)

	revenue := decimal.Zero
	gapSum := decimal.Zero
	var (
		visits   int
		gapCount int
	)
	for _, c := range customers {
		if c.Tags.Spend.Valid() {
			s.SpendCounts[c.Tags.Spend]++
		}
		if c.Tags.Activity.Valid() {
			s.ActivityCounts[c.Tags.Activity]++
		}
		for _, b := range domain.NewBehaviorSet(c.Tags.Behaviors...) {
			if b.Valid() {
				s.BehaviorCounts[b]++
			}
		}

		revenue = revenue.Add(decimal.NewFromFloat(c.TotalSpend))
		visits += c.TotalVisits
		if c.AverageVisitGapDays > 0 {
			gapSum = gapSum.Add(decimal.NewFromFloat(c.AverageVisitGapDays))
			gapCount++
		}
	}

	s.TotalRevenue = revenue.Round(2).InexactFloat64()
	if visits > 0 {
		s.AverageOrderValue = revenue.Div(decimal.NewFromInt(int64(visits))).Round(2).InexactFloat64()
	}
	if gapCount > 0 {
		s.AverageVisitGapDays = gapSum.Div(decimal.NewFromInt(int64(gapCount))).Round(2).InexactFloat64()
	}

	for _, t := range domain.SpendTags {
		s.SpendPercent[t] = percent(s.SpendCounts[t], s.TotalCustomers)
	}
	for _, t := range domain.ActivityTags {
		s.ActivityPercent[t] = percent(s.ActivityCounts[t], s.TotalCustomers)
	}
	for _, t := range domain.BehaviorTags {
		s.BehaviorPercent[t] = percent(s.BehaviorCounts[t], s.TotalCustomers)
	}
	return s
}

func emptySummary() domain.RestaurantCustomerSummary {
	s := domain.RestaurantCustomerSummary{
		SpendCounts:     make(map[domain.SpendTag]int, len(domain.SpendTags)),
		ActivityCounts:  make(map[domain.ActivityTag]int, len(domain.ActivityTags)),
		BehaviorCounts:  make(map[domain.BehaviorTag]int, len(domain.BehaviorTags)),
		SpendPercent:    make(map[domain.SpendTag]float64, len(domain.SpendTags)),
		ActivityPercent: make(map[domain.ActivityTag]float64, len(domain.ActivityTags)),
		BehaviorPercent: make(map[domain.BehaviorTag]float64, len(domain.BehaviorTags)),
	}
	for _, t := range domain.SpendTags {
		s.SpendCounts[t] = 0
		s.SpendPercent[t] = 0
	}
	for _, t := range domain.ActivityTags {
		s.ActivityCounts[t] = 0
		s.ActivityPercent[t] = 0
	}
	for _, t := range domain.BehaviorTags {
		s.BehaviorCounts[t] = 0
		s.BehaviorPercent[t] = 0
	}
	return s
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(n)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}
