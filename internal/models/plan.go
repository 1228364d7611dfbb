package models

// Plan is a static credit-purchase tier.
type Plan struct {
	ID       string   `json:"_id" example:"basic"`
	Name     string   `json:"name" example:"Basic"`
	Price    float64  `json:"price" example:"10"`
	Credits  int      `json:"credits" example:"100"`
	Features []string `json:"features"`
}

// Plans are the purchasable tiers, cheapest first.
var Plans = []Plan{
	{
		ID:      "basic",
		Name:    "Basic",
		Price:   10,
		Credits: 100,
		Features: []string{
			"100 text generations",
			"50 image generations",
			"Standard support",
			"Access to basic models",
		},
	},
	{
		ID:      "pro",
		Name:    "Pro",
		Price:   20,
		Credits: 500,
		Features: []string{
			"500 text generations",
			"200 image generations",
			"Priority support",
			"Access to pro models",
			"Faster response time",
		},
	},
	{
		ID:      "premium",
		Name:    "Premium",
		Price:   30,
		Credits: 1000,
		Features: []string{
			"1000 text generations",
			"500 image generations",
			"24/7 VIP support",
			"Access to premium models",
			"Dedicated account manager",
		},
	},
}

// FindPlan returns the plan with the given ID.
func FindPlan(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// PriceInCents converts the USD price for the payment provider.
func (p Plan) PriceInCents() int64 {
	return int64(p.Price*100 + 0.5)
}
