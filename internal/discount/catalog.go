package discount

import (
	"context"

	"github.com/noah-isme/pos-register/internal/catalog"
	"github.com/noah-isme/pos-register/internal/money"
)

// Query carries what the catalog needs to decide eligibility.
type Query struct {
	Items      []catalog.Item
	TotalPrice money.Amount
	CustomerID int64
}

// Rule grants Offer when every configured constraint holds. Nil constraints are ignored.
type Rule struct {
	Offer      Discount
	UnitsAbove *int
	TotalAbove *money.Amount
	CustomerID *int64
}

// Eligible reports whether q satisfies the rule.
func (r Rule) Eligible(q Query) bool {
	if r.UnitsAbove != nil && len(q.Items) <= *r.UnitsAbove {
		return false
	}
	if r.TotalAbove != nil && !q.TotalPrice.GreaterThan(*r.TotalAbove) {
		return false
	}
	if r.CustomerID != nil && q.CustomerID != *r.CustomerID {
		return false
	}
	return true
}

// Catalog answers eligibility queries from a fixed rule table.
type Catalog struct {
	Rules []Rule
}

// NewCatalog returns a catalog loaded with DefaultRules.
func NewCatalog() *Catalog {
	return &Catalog{Rules: DefaultRules()}
}

// FetchEligibleDiscounts returns the offers q qualifies for, in rule order.
// An empty result means no discount applies.
func (c *Catalog) FetchEligibleDiscounts(ctx context.Context, q Query) ([]Discount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	out := make([]Discount, 0, len(c.Rules))
	for _, r := range c.Rules {
		if r.Eligible(q) {
			out = append(out, r.Offer)
		}
	}
	return out, nil
}

// DefaultRules is the store's standing offer table.
func DefaultRules() []Rule {
	units := 2
	total := money.FromInt(100)
	customer := int64(114514)
	return []Rule{
		{
			Offer:      ItemCount(money.MustParse("5.00"), "5 SEK off for buying more than 2 items"),
			UnitsAbove: &units,
		},
		{
			Offer:      Percentage(money.MustParse("0.10"), "10% off for total price > 100"),
			TotalAbove: &total,
		},
		{
			Offer:      Customer(money.MustParse("0.05"), "5% off for customer 114514"),
			CustomerID: &customer,
		},
	}
}
