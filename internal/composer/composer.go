package composer

import (
	"strings"

	"restaurant-segments/internal/domain"
	"restaurant-segments/internal/tagging"
)

const lastVisitLayout = "Jan 2, 2006"

// GenerateMessage renders outreach text for a trigger. It never fails: when
// no specific template matches the transition, the generic one is used.
func GenerateMessage(trigger domain.AutomationTrigger, customer domain.Customer) domain.Message {
	tpl, ok := lookup(trigger)
	if !ok {
		tpl = genericTemplate
	}
	r := replacer(customer)
	return domain.Message{
		Subject: r.Replace(tpl.Subject),
		Body:    r.Replace(tpl.Body),
	}
}

func lookup(t domain.AutomationTrigger) (template, bool) {
	switch t.Dimension {
	case domain.DimensionActivity:
		return activityTemplate(domain.ActivityTag(t.OldTag), domain.ActivityTag(t.NewTag))
	case domain.DimensionSpend:
		return spendTemplate(domain.SpendTag(t.OldTag), domain.SpendTag(t.NewTag))
	case domain.DimensionBehavior:
		if t.NewTag == "" {
			// losing a behavior is not an outreach moment of its own
			return template{}, false
		}
		return behaviorTemplate(domain.BehaviorTag(t.NewTag))
	}
	return template{}, false
}

func replacer(c domain.Customer) *strings.Replacer {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = "there"
	}
	favorite := "favourite dish"
	if items := tagging.FavoriteItems(c, 1); len(items) > 0 {
		favorite = items[0]
	}
	lastVisit := "your last visit"
	if c.LastVisitDate != nil {
		lastVisit = c.LastVisitDate.Format(lastVisitLayout)
	}
	return strings.NewReplacer(
		"[CustomerName]", name,
		"[FirstName]", c.FirstName(),
		"[FavoriteItem]", favorite,
		"[LastVisit]", lastVisit,
	)
}
