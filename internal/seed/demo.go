package seed

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"restaurant-segments/internal/domain"
	customersvc "restaurant-segments/internal/service/customer"
)

var demoNamespace = uuid.MustParse("0f3a9d2e-71c4-4b8a-a5e6-9c2d4f1b7e30")

type menuItem struct {
	name     string
	category string
	price    float64
	combo    bool
}

var demoMenu = map[string]menuItem{
	"thali":   {"Veg thali combo", "combos", 420, true},
	"biryani": {"Chicken biryani", "mains", 380, false},
	"dosa":    {"Masala dosa", "mains", 180, false},
	"paneer":  {"Paneer tikka", "starters", 320, false},
	"naan":    {"Butter naan", "breads", 60, false},
	"lassi":   {"Mango lassi", "drinks", 140, false},
	"platter": {"Tasting platter", "starters", 1450, false},
}

type demoVisit struct {
	daysAgo int
	items   []string
	guests  int
	source  domain.OrderSource
}

type demoGuest struct {
	name   string
	phone  string
	visits []demoVisit
}

// Demo is a deterministic provider relative to its clock. Each guest
// exercises a different tag so a fresh database shows every segment.
type Demo struct {
	Now func() time.Time
}

// NewDemo returns a Demo anchored at the current time.
func NewDemo() *Demo {
	return &Demo{Now: time.Now}
}

func (d *Demo) Restaurant() domain.Restaurant {
	return domain.Restaurant{Key: "demo-bistro", Name: "Demo Bistro"}
}

func (d *Demo) Orders() []customersvc.OrderInput {
	now := d.Now().UTC().Truncate(time.Hour)
	var out []customersvc.OrderInput
	for _, g := range demoGuests() {
		for i, v := range g.visits {
			placed := now.AddDate(0, 0, -v.daysAgo)
			in := customersvc.OrderInput{
				OrderID:       uuid.NewSHA1(demoNamespace, []byte(fmt.Sprintf("%s/%d", g.phone, i))).String(),
				CustomerName:  g.name,
				CustomerPhone: g.phone,
				PlacedAt:      &placed,
				GuestCount:    v.guests,
				Source:        string(v.source),
			}
			for _, key := range v.items {
				m := demoMenu[key]
				in.Items = append(in.Items, customersvc.LineItemInput{
					Name:     m.name,
					Category: m.category,
					Price:    m.price,
					Quantity: 1,
					IsCombo:  m.combo,
				})
			}
			out = append(out, in)
		}
	}
	return out
}

func demoGuests() []demoGuest {
	dine := domain.SourceDineIn
	return []demoGuest{
		{"Ananya Sharma", "+919800100001", []demoVisit{
			{3, []string{"platter", "biryani", "lassi"}, 2, dine},
			{10, []string{"platter", "paneer"}, 2, dine},
			{17, []string{"platter", "biryani"}, 2, dine},
		}},
		{"Vikram Singh", "+919800100002", []demoVisit{
			{2, []string{"thali"}, 1, dine},
			{9, []string{"thali", "lassi"}, 1, domain.SourceTakeaway},
			{16, []string{"thali"}, 1, dine},
			{23, []string{"dosa"}, 1, dine},
		}},
		{"Farah Khan", "+919800100003", []demoVisit{
			{30, []string{"biryani", "naan"}, 2, dine},
			{37, []string{"biryani", "naan"}, 2, dine},
			{44, []string{"paneer", "naan"}, 2, dine},
		}},
		{"George Mathew", "+919800100004", []demoVisit{
			{120, []string{"dosa", "lassi"}, 1, dine},
			{134, []string{"dosa"}, 1, dine},
		}},
		{"Lakshmi Pillai", "+919800100005", []demoVisit{
			{1, []string{"biryani", "naan"}, 1, domain.SourceDelivery},
			{5, []string{"biryani"}, 1, domain.SourceDelivery},
			{9, []string{"dosa"}, 1, domain.SourceDelivery},
			{14, []string{"biryani", "naan"}, 1, dine},
		}},
		{"Omar Sheikh", "+919800100006", []demoVisit{
			{6, []string{"platter", "biryani", "biryani", "naan", "naan"}, 8, dine},
			{40, []string{"platter", "thali", "thali"}, 6, dine},
		}},
		{"Rohan Das", "+919800100007", []demoVisit{
			{4, []string{"dosa", "lassi"}, 1, dine},
		}},
	}
}
