package composer

import "restaurant-segments/internal/domain"

// template is a subject/body pair with [Placeholder] markers.
type template struct {
	Subject string
	Body    string
}

var genericTemplate = template{
	Subject: "A note from us",
	Body:    "Hi [FirstName], thanks for dining with us. We hope to see you again soon!",
}

// activityTemplate returns the template for an activity transition. An empty
// from means the customer had no tags yet. Keep the switches in this file
// exhaustive over the tag enums.
func activityTemplate(from, to domain.ActivityTag) (template, bool) {
	switch to {
	case domain.ActivityAtRisk:
		if from == domain.ActivityActive {
			return template{
				Subject: "We miss you, [FirstName]",
				Body:    "Hi [FirstName], it's been a little while since your last visit on [LastVisit]. Your [FavoriteItem] is waiting for you!",
			}, true
		}
		return template{
			Subject: "It's been a while",
			Body:    "Hi [FirstName], we haven't seen you since [LastVisit]. Drop by and let us make your [FavoriteItem] again.",
		}, true
	case domain.ActivityDormant:
		return template{
			Subject: "Come back for something special",
			Body:    "Hi [FirstName], it has been too long since [LastVisit]. Here's a welcome-back treat on your next [FavoriteItem].",
		}, true
	case domain.ActivityActive:
		switch from {
		case domain.ActivityAtRisk, domain.ActivityDormant:
			return template{
				Subject: "Welcome back, [FirstName]!",
				Body:    "Hi [FirstName], it was great to see you again. Thanks for coming back!",
			}, true
		case domain.ActivityNew, "":
			return template{
				Subject: "Thanks for your first visit",
				Body:    "Hi [FirstName], thank you for your first order with us. We hope you enjoyed the [FavoriteItem]!",
			}, true
		case domain.ActivityActive:
			return template{}, false
		}
		return template{}, false
	case domain.ActivityNew:
		return template{
			Subject: "Welcome, [FirstName]",
			Body:    "Hi [FirstName], welcome! We're glad you found us.",
		}, true
	}
	return template{}, false
}

func spendTemplate(from, to domain.SpendTag) (template, bool) {
	switch to {
	case domain.SpendHigh:
		return template{
			Subject: "You're one of our favourite guests",
			Body:    "Hi [FirstName], thank you for being one of our most loyal guests. Enjoy priority seating and a complimentary dessert next time you order [FavoriteItem].",
		}, true
	case domain.SpendMid:
		if from == domain.SpendLow {
			return template{
				Subject: "Thanks for treating yourself",
				Body:    "Hi [FirstName], we've loved cooking for you lately. Here's a little something toward your next [FavoriteItem].",
			}, true
		}
		if from == domain.SpendHigh {
			return template{
				Subject: "We've saved you a table",
				Body:    "Hi [FirstName], we'd love to host you again. Your usual [FavoriteItem] is on us with your next meal.",
			}, true
		}
		if from == domain.SpendInsufficientData || from == "" {
			return template{
				Subject: "Great to meet you, [FirstName]",
				Body:    "Hi [FirstName], thanks for choosing us. Next time, ask about our chef's specials alongside your [FavoriteItem].",
			}, true
		}
		return template{}, false
	case domain.SpendLow:
		return template{
			Subject: "A little something for your next visit",
			Body:    "Hi [FirstName], try our combos next time you're in. They pair perfectly with [FavoriteItem].",
		}, true
	case domain.SpendInsufficientData:
		return template{}, false
	}
	return template{}, false
}

func behaviorTemplate(tag domain.BehaviorTag) (template, bool) {
	switch tag {
	case domain.BehaviorComboBuyer:
		return template{
			Subject: "New combos just for you",
			Body:    "Hi [FirstName], you love a good combo. Check out our new combo deals on your next visit!",
		}, true
	case domain.BehaviorCategoryLoyalist:
		return template{
			Subject: "More of what you love",
			Body:    "Hi [FirstName], since [FavoriteItem] is a favourite, we think you'll love the new additions to that part of our menu.",
		}, true
	case domain.BehaviorLargeParty:
		return template{
			Subject: "Planning your next get-together?",
			Body:    "Hi [FirstName], thanks for bringing the whole group! Ask us about our group platters for your next gathering.",
		}, true
	case domain.BehaviorDeliveryPreferred:
		return template{
			Subject: "Free delivery on your next order",
			Body:    "Hi [FirstName], enjoy free delivery on your next [FavoriteItem] order.",
		}, true
	}
	return template{}, false
}
