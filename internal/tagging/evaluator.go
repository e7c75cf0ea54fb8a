package tagging

import (
	"sort"
	"time"

	"restaurant-segments/internal/domain"
)

// Evaluator derives customer tags from stats and order history.
type Evaluator struct {
	policy Policy
	now    func() time.Time
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithClock pins the evaluation time; used by tests and replays.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator builds an Evaluator for the given policy.
func NewEvaluator(policy Policy, opts ...Option) *Evaluator {
	e := &Evaluator{policy: policy, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy exposes the thresholds in use.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// EvaluateTags returns one result per customer, in input order.
func (e *Evaluator) EvaluateTags(customers []domain.Customer, restaurantAvgVisitGap float64) []domain.TagResult {
	results := make([]domain.TagResult, 0, len(customers))
	now := e.now()
	for _, c := range customers {
		results = append(results, domain.TagResult{
			CustomerID: c.ID,
			NewTags:    e.tagsAt(c, restaurantAvgVisitGap, now),
		})
	}
	return results
}

// Evaluate tags a single customer.
func (e *Evaluator) Evaluate(c domain.Customer, restaurantAvgVisitGap float64) domain.Tags {
	return e.tagsAt(c, restaurantAvgVisitGap, e.now())
}

func (e *Evaluator) tagsAt(c domain.Customer, restaurantGap float64, now time.Time) domain.Tags {
	if c.TotalVisits == 0 || len(c.Orders) == 0 || c.LastVisitDate == nil {
		return domain.InsufficientDataTags()
	}
	return domain.Tags{
		Spend:     e.spendTag(c.AverageOrderValue),
		Activity:  e.activityTag(c, restaurantGap, now),
		Behaviors: e.behaviorTags(c.Orders),
	}
}

func (e *Evaluator) spendTag(aov float64) domain.SpendTag {
	switch {
	case aov >= e.policy.HighSpendMin:
		return domain.SpendHigh
	case aov >= e.policy.MidSpendMin:
		return domain.SpendMid
	default:
		return domain.SpendLow
	}
}

func (e *Evaluator) activityTag(c domain.Customer, restaurantGap float64, now time.Time) domain.ActivityTag {
	gap := c.AverageVisitGapDays
	if gap <= 0 {
		gap = restaurantGap
	}
	if gap <= 0 {
		gap = e.policy.DefaultVisitGapDays
	}
	elapsed := float64(DaysBetween(*c.LastVisitDate, now))
	switch {
	case elapsed > e.policy.DormantMultiplier*gap:
		return domain.ActivityDormant
	case elapsed > e.policy.AtRiskMultiplier*gap:
		return domain.ActivityAtRisk
	default:
		return domain.ActivityActive
	}
}

func (e *Evaluator) behaviorTags(orders []domain.Order) domain.BehaviorSet {
	if len(orders) < e.policy.MinOrdersForBehavior {
		return domain.BehaviorSet{}
	}

	var (
		comboOrders    int
		deliveryOrders int
		guests         int
		totalQty       int
	)
	categoryQty := map[string]int{}
	for _, o := range orders {
		if o.HasCombo() {
			comboOrders++
		}
		if o.Source == domain.SourceDelivery {
			deliveryOrders++
		}
		guests += o.GuestCount
		for _, it := range o.Items {
			if it.Category == "" {
				continue
			}
			categoryQty[it.Category] += it.Quantity
			totalQty += it.Quantity
		}
	}

	n := float64(len(orders))
	var tags []domain.BehaviorTag
	if float64(comboOrders)/n >= e.policy.ComboOrderShare {
		tags = append(tags, domain.BehaviorComboBuyer)
	}
	if totalQty > 0 {
		_, top := topCategory(categoryQty)
		if float64(top)/float64(totalQty) >= e.policy.CategoryShare {
			tags = append(tags, domain.BehaviorCategoryLoyalist)
		}
	}
	if float64(guests)/n >= e.policy.LargePartyGuests {
		tags = append(tags, domain.BehaviorLargeParty)
	}
	if float64(deliveryOrders)/n >= e.policy.DeliveryShare {
		tags = append(tags, domain.BehaviorDeliveryPreferred)
	}
	return domain.NewBehaviorSet(tags...)
}

// topCategory picks the highest quantity category; ties go to the
// alphabetically first name so the result does not depend on map order.
func topCategory(qty map[string]int) (string, int) {
	names := make([]string, 0, len(qty))
	for name := range qty {
		names = append(names, name)
	}
	sort.Strings(names)
	var (
		best  string
		count int
	)
	for _, name := range names {
		if qty[name] > count {
			best, count = name, qty[name]
		}
	}
	return best, count
}

// DaysBetween counts calendar days from start to end in UTC.
func DaysBetween(start, end time.Time) int {
	s := beginningOfDay(start.UTC())
	e := beginningOfDay(end.UTC())
	return int(e.Sub(s).Hours() / 24)
}

func beginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
