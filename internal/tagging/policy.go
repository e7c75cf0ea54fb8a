package tagging

import "fmt"

// Policy holds the thresholds used by the tag rules.
type Policy struct {
	HighSpendMin         float64
	MidSpendMin          float64
	AtRiskMultiplier     float64
	DormantMultiplier    float64
	DefaultVisitGapDays  float64
	ComboOrderShare      float64
	CategoryShare        float64
	LargePartyGuests     float64
	DeliveryShare        float64
	MinOrdersForBehavior int
}

// DefaultPolicy returns the thresholds used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		HighSpendMin:         1000,
		MidSpendMin:          400,
		AtRiskMultiplier:     2,
		DormantMultiplier:    4,
		DefaultVisitGapDays:  14,
		ComboOrderShare:      0.5,
		CategoryShare:        0.6,
		LargePartyGuests:     4,
		DeliveryShare:        0.6,
		MinOrdersForBehavior: 2,
	}
}

// Validate rejects policies whose bands overlap or invert.
func (p Policy) Validate() error {
	if p.MidSpendMin < 0 || p.HighSpendMin <= p.MidSpendMin {
		return fmt.Errorf("spend bands must satisfy 0 <= mid (%v) < high (%v)", p.MidSpendMin, p.HighSpendMin)
	}
	if p.AtRiskMultiplier <= 0 || p.DormantMultiplier <= p.AtRiskMultiplier {
		return fmt.Errorf("activity multipliers must satisfy 0 < at-risk (%v) < dormant (%v)", p.AtRiskMultiplier, p.DormantMultiplier)
	}
	if p.DefaultVisitGapDays <= 0 {
		return fmt.Errorf("default visit gap must be positive, got %v", p.DefaultVisitGapDays)
	}
	for name, share := range map[string]float64{
		"combo":    p.ComboOrderShare,
		"category": p.CategoryShare,
		"delivery": p.DeliveryShare,
	} {
		if share <= 0 || share > 1 {
			return fmt.Errorf("%s share must be in (0, 1], got %v", name, share)
		}
	}
	if p.LargePartyGuests <= 0 {
		return fmt.Errorf("large party threshold must be positive, got %v", p.LargePartyGuests)
	}
	if p.MinOrdersForBehavior < 1 {
		return fmt.Errorf("min orders for behavior must be at least 1, got %d", p.MinOrdersForBehavior)
	}
	return nil
}
