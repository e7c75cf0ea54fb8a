package automation

import (
	"sort"

	"restaurant-segments/internal/domain"
)

// ProcessTagChanges compares fresh tag results against the snapshot taken
// right before evaluation and emits one trigger per changed dimension.
// Behavior changes produce one trigger per gained and per lost tag. A
// customer missing from previous is compared against empty tags.
//
// The returned triggers carry no ID, restaurant or timestamp; the trigger
// store assigns those on append.
func ProcessTagChanges(results []domain.TagResult, previous map[string]domain.Tags) []domain.AutomationTrigger {
	triggers := []domain.AutomationTrigger{}
	for _, r := range results {
		prev := previous[r.CustomerID]
		next := r.NewTags

		if prev.Spend != next.Spend {
			triggers = append(triggers, newTrigger(r.CustomerID, domain.DimensionSpend, string(prev.Spend), string(next.Spend)))
		}
		if prev.Activity != next.Activity {
			triggers = append(triggers, newTrigger(r.CustomerID, domain.DimensionActivity, string(prev.Activity), string(next.Activity)))
		}
		for _, gained := range next.Behaviors.Added(prev.Behaviors) {
			triggers = append(triggers, newTrigger(r.CustomerID, domain.DimensionBehavior, "", string(gained)))
		}
		for _, lost := range next.Behaviors.Removed(prev.Behaviors) {
			triggers = append(triggers, newTrigger(r.CustomerID, domain.DimensionBehavior, string(lost), ""))
		}
	}

	sort.SliceStable(triggers, func(i, j int) bool {
		a, b := triggers[i], triggers[j]
		if a.CustomerID != b.CustomerID {
			return a.CustomerID < b.CustomerID
		}
		if a.Dimension != b.Dimension {
			return a.Dimension.Rank() < b.Dimension.Rank()
		}
		if a.NewTag != b.NewTag {
			return a.NewTag < b.NewTag
		}
		return a.OldTag < b.OldTag
	})
	return dedupe(triggers)
}

func newTrigger(customerID string, dim domain.TagDimension, oldTag, newTag string) domain.AutomationTrigger {
	return domain.AutomationTrigger{
		CustomerID: customerID,
		Dimension:  dim,
		OldTag:     oldTag,
		NewTag:     newTag,
	}
}

// dedupe drops repeats caused by the same customer appearing twice in the
// results; input is sorted so duplicates are adjacent.
func dedupe(sorted []domain.AutomationTrigger) []domain.AutomationTrigger {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, t := range sorted[1:] {
		last := out[len(out)-1]
		if t.CustomerID == last.CustomerID && t.Dimension == last.Dimension && t.OldTag == last.OldTag && t.NewTag == last.NewTag {
			continue
		}
		out = append(out, t)
	}
	return out
}
