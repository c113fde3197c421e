package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/pos-register/internal/money"
)

// ErrInvalidItem is returned when an item record fails validation.
var ErrInvalidItem = errors.New("catalog: invalid item")

// Item is an immutable product record as supplied by the inventory.
// Price is VAT-exclusive unless the item was derived by a sale.
type Item struct {
	ID          string       `json:"id" validate:"required,max=64"`
	Name        string       `json:"name" validate:"max=256"`
	Price       money.Amount `json:"price" validate:"gte=0"`
	VAT         money.Amount `json:"vat" validate:"gte=0"`
	Description string       `json:"description"`
}

// WithPrice returns a copy of the item carrying a different unit price.
func (it Item) WithPrice(price money.Amount) Item {
	it.Price = price
	return it
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func itemValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// amounts are checked by sign so tiny negatives never round to zero
		validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if a, ok := field.Interface().(money.Amount); ok {
				return a.Decimal().Sign()
			}
			return nil
		}, money.Amount{})
	})
	return validate
}

// Validate reports whether the record can be sold: it needs an identifier
// and a non-negative price and VAT rate.
func (it Item) Validate() error {
	if err := itemValidator().Struct(it); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidItem, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return nil
}
