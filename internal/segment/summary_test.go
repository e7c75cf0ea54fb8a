package segment

import (
	"reflect"
	"testing"

	"restaurant-segments/internal/domain"
)

func tagged(id string, spend domain.SpendTag, activity domain.ActivityTag, visits int, spent, gap float64, behaviors ...domain.BehaviorTag) domain.Customer {
	return domain.Customer{
		ID:                  id,
		TotalVisits:         visits,
		TotalSpend:          spent,
		AverageVisitGapDays: gap,
		Tags: domain.Tags{
			Spend:     spend,
			Activity:  activity,
			Behaviors: domain.NewBehaviorSet(behaviors...),
		},
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalCustomers != 0 || s.TotalRevenue != 0 || s.AverageVisitGapDays != 0 {
		t.Fatalf("expected zeroed summary, got %+v", s)
	}
	for _, tag := range domain.SpendTags {
		if n, ok := s.SpendCounts[tag]; !ok || n != 0 {
			t.Fatalf("expected zero count for %s, got %d (present=%v)", tag, n, ok)
		}
	}
	for _, tag := range domain.ActivityTags {
		if n, ok := s.ActivityCounts[tag]; !ok || n != 0 {
			t.Fatalf("expected zero count for %s", tag)
		}
	}
	for _, tag := range domain.BehaviorTags {
		if n, ok := s.BehaviorCounts[tag]; !ok || n != 0 {
			t.Fatalf("expected zero count for %s", tag)
		}
	}
}

func TestSummarize_CountsAndDistributions(t *testing.T) {
	customers := []domain.Customer{
		tagged("a", domain.SpendHigh, domain.ActivityActive, 4, 4800, 7, domain.BehaviorComboBuyer, domain.BehaviorLargeParty),
		tagged("b", domain.SpendLow, domain.ActivityAtRisk, 2, 300, 10, domain.BehaviorComboBuyer),
		tagged("c", domain.SpendLow, domain.ActivityDormant, 2, 200, 0),
		domain.Customer{ID: "d", Tags: domain.InsufficientDataTags()},
	}
	s := Summarize(customers)

	if s.TotalCustomers != 4 {
		t.Fatalf("expected 4 customers, got %d", s.TotalCustomers)
	}
	if s.SpendCounts[domain.SpendLow] != 2 || s.SpendCounts[domain.SpendHigh] != 1 || s.SpendCounts[domain.SpendInsufficientData] != 1 {
		t.Fatalf("unexpected spend counts %v", s.SpendCounts)
	}
	if s.ActivityCounts[domain.ActivityNew] != 1 || s.ActivityCounts[domain.ActivityAtRisk] != 1 {
		t.Fatalf("unexpected activity counts %v", s.ActivityCounts)
	}
	if s.BehaviorCounts[domain.BehaviorComboBuyer] != 2 || s.BehaviorCounts[domain.BehaviorLargeParty] != 1 {
		t.Fatalf("unexpected behavior counts %v", s.BehaviorCounts)
	}
	if s.SpendPercent[domain.SpendLow] != 50 || s.BehaviorPercent[domain.BehaviorComboBuyer] != 50 {
		t.Fatalf("unexpected percentages %v %v", s.SpendPercent, s.BehaviorPercent)
	}
	if s.TotalRevenue != 5300 {
		t.Fatalf("expected revenue 5300, got %v", s.TotalRevenue)
	}
	if s.AverageOrderValue != 662.5 {
		t.Fatalf("expected aov 662.5, got %v", s.AverageOrderValue)
	}
	if s.AverageVisitGapDays != 8.5 {
		t.Fatalf("expected gap 8.5 over customers with a known gap, got %v", s.AverageVisitGapDays)
	}
}

func TestSummarize_RepeatedPassesAreEqual(t *testing.T) {
	customers := []domain.Customer{
		tagged("a", domain.SpendMid, domain.ActivityActive, 3, 1500, 12.5, domain.BehaviorDeliveryPreferred),
		tagged("b", domain.SpendLow, domain.ActivityActive, 1, 90, 0),
	}
	if !reflect.DeepEqual(Summarize(customers), Summarize(customers)) {
		t.Fatalf("expected identical summaries")
	}
}
