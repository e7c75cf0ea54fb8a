package domain

import "sort"

// SpendTag classifies a customer by average order value.
type SpendTag string

const (
	SpendHigh             SpendTag = "high_spender"
	SpendMid              SpendTag = "mid_spender"
	SpendLow              SpendTag = "low_spender"
	SpendInsufficientData SpendTag = "insufficient_data"
)

// SpendTags lists every spend tag in reporting order.
var SpendTags = []SpendTag{SpendHigh, SpendMid, SpendLow, SpendInsufficientData}

// ActivityTag classifies a customer by recency against their own cadence.
type ActivityTag string

const (
	ActivityActive  ActivityTag = "active"
	ActivityAtRisk  ActivityTag = "at_risk"
	ActivityDormant ActivityTag = "dormant"
	ActivityNew     ActivityTag = "new_customer"
)

// ActivityTags lists every activity tag in reporting order.
var ActivityTags = []ActivityTag{ActivityActive, ActivityAtRisk, ActivityDormant, ActivityNew}

// BehaviorTag is a non-exclusive ordering-pattern label.
type BehaviorTag string

const (
	BehaviorComboBuyer        BehaviorTag = "combo_buyer"
	BehaviorCategoryLoyalist  BehaviorTag = "category_loyalist"
	BehaviorLargeParty        BehaviorTag = "large_party"
	BehaviorDeliveryPreferred BehaviorTag = "delivery_preferred"
)

// BehaviorTags lists every behavior tag in reporting order.
var BehaviorTags = []BehaviorTag{BehaviorComboBuyer, BehaviorCategoryLoyalist, BehaviorLargeParty, BehaviorDeliveryPreferred}

// Valid reports whether t is a known spend tag.
func (t SpendTag) Valid() bool {
	switch t {
	case SpendHigh, SpendMid, SpendLow, SpendInsufficientData:
		return true
	}
	return false
}

// Valid reports whether t is a known activity tag.
func (t ActivityTag) Valid() bool {
	switch t {
	case ActivityActive, ActivityAtRisk, ActivityDormant, ActivityNew:
		return true
	}
	return false
}

// Valid reports whether t is a known behavior tag.
func (t BehaviorTag) Valid() bool {
	switch t {
	case BehaviorComboBuyer, BehaviorCategoryLoyalist, BehaviorLargeParty, BehaviorDeliveryPreferred:
		return true
	}
	return false
}

// BehaviorSet is a sorted, duplicate-free set of behavior tags. Build it
// with NewBehaviorSet so the ordering invariant holds.
type BehaviorSet []BehaviorTag

// NewBehaviorSet dedupes and sorts tags.
func NewBehaviorSet(tags ...BehaviorTag) BehaviorSet {
	if len(tags) == 0 {
		return BehaviorSet{}
	}
	seen := make(map[BehaviorTag]struct{}, len(tags))
	out := make(BehaviorSet, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether t is in the set.
func (s BehaviorSet) Has(t BehaviorTag) bool {
	for _, v := range s {
		if v == t {
			return true
		}
	}
	return false
}

// Equal compares two sets regardless of how they were built.
func (s BehaviorSet) Equal(other BehaviorSet) bool {
	a, b := NewBehaviorSet(s...), NewBehaviorSet(other...)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Added returns tags in s that are missing from prev, sorted.
func (s BehaviorSet) Added(prev BehaviorSet) BehaviorSet {
	var out []BehaviorTag
	for _, t := range s {
		if !prev.Has(t) {
			out = append(out, t)
		}
	}
	return NewBehaviorSet(out...)
}

// Removed returns tags in prev that are missing from s, sorted.
func (s BehaviorSet) Removed(prev BehaviorSet) BehaviorSet {
	return prev.Added(s)
}

// Strings converts the set for storage in text[] columns.
func (s BehaviorSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, t := range s {
		out = append(out, string(t))
	}
	return out
}

// Tags is the derived classification of a customer.
type Tags struct {
	Spend     SpendTag    `json:"spendTag"`
	Activity  ActivityTag `json:"activityTag"`
	Behaviors BehaviorSet `json:"behaviorTags"`
}

// Equal compares every dimension.
func (t Tags) Equal(other Tags) bool {
	return t.Spend == other.Spend && t.Activity == other.Activity && t.Behaviors.Equal(other.Behaviors)
}

// IsZero reports whether no tag has ever been assigned.
func (t Tags) IsZero() bool {
	return t.Spend == "" && t.Activity == "" && len(t.Behaviors) == 0
}

// InsufficientDataTags is assigned to customers without any orders.
func InsufficientDataTags() Tags {
	return Tags{Spend: SpendInsufficientData, Activity: ActivityNew, Behaviors: BehaviorSet{}}
}

// TagResult is the evaluator output for one customer.
type TagResult struct {
	CustomerID string `json:"customerId"`
	NewTags    Tags   `json:"newTags"`
}
