package discount

import (
	"errors"

	"github.com/noah-isme/pos-register/internal/money"
)

var (
	// ErrUnknownKind is returned for a discount without a recognised kind, including the zero value.
	ErrUnknownKind = errors.New("discount: unknown kind")
	// ErrNegativeValue is returned when the discount value is below zero.
	ErrNegativeValue = errors.New("discount: negative value")
	// ErrRateOutOfRange is returned when a percentage discount has a rate above 1.
	ErrRateOutOfRange = errors.New("discount: rate above 1")
)

// Kind identifies how a discount value is resolved against a total.
type Kind string

const (
	// KindItemCount takes a flat amount off when enough units are bought.
	KindItemCount Kind = "item_count"
	// KindPercentage takes a fraction of the total price.
	KindPercentage Kind = "percentage"
	// KindCustomer takes a customer-specific fraction of the total price.
	KindCustomer Kind = "customer_percentage"
)

// Discount is an immutable offer. Value is a flat amount for KindItemCount
// and a fractional rate (0.10 == 10%) for the percentage kinds.
type Discount struct {
	Kind        Kind
	Value       money.Amount
	Description string
}

// ItemCount builds a flat discount.
func ItemCount(off money.Amount, description string) Discount {
	return Discount{Kind: KindItemCount, Value: off, Description: description}
}

// Percentage builds a discount worth rate × total.
func Percentage(rate money.Amount, description string) Discount {
	return Discount{Kind: KindPercentage, Value: rate, Description: description}
}

// Customer builds a customer-specific discount worth rate × total.
func Customer(rate money.Amount, description string) Discount {
	return Discount{Kind: KindCustomer, Value: rate, Description: description}
}

// IsRate reports whether Value is a fraction of the total.
func (d Discount) IsRate() bool {
	return d.Kind == KindPercentage || d.Kind == KindCustomer
}

// Validate checks the kind and value without looking at a total.
func (d Discount) Validate() error {
	switch d.Kind {
	case KindItemCount, KindPercentage, KindCustomer:
	default:
		return ErrUnknownKind
	}
	if d.Value.IsNegative() {
		return ErrNegativeValue
	}
	if d.IsRate() && d.Value.GreaterThan(money.FromInt(1)) {
		return ErrRateOutOfRange
	}
	return nil
}

// AmountOff resolves the amount the discount takes off total. The result is
// not capped; callers decide what to do when it exceeds the total.
func (d Discount) AmountOff(total money.Amount) (money.Amount, error) {
	if err := d.Validate(); err != nil {
		return money.Amount{}, err
	}
	if d.IsRate() {
		return total.Mul(d.Value), nil
	}
	return d.Value, nil
}

// Best picks the discount taking the most off total without exceeding it.
// Ties keep the earlier entry. It reports false when nothing applies.
func Best(discounts []Discount, total money.Amount) (Discount, money.Amount, bool) {
	var (
		best   Discount
		bestOf money.Amount
		found  bool
	)
	for _, d := range discounts {
		off, err := d.AmountOff(total)
		if err != nil || off.GreaterThan(total) {
			continue
		}
		if !found || off.GreaterThan(bestOf) {
			best, bestOf, found = d, off, true
		}
	}
	return best, bestOf, found
}
