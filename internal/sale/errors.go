package sale

import "errors"

var (
	// ErrInvalidArgument is returned for malformed input such as an invalid item or a nil snapshot.
	ErrInvalidArgument = errors.New("sale: invalid argument")
	// ErrInvalidQuantity is returned when adding zero or fewer units.
	ErrInvalidQuantity = errors.New("sale: quantity must be positive")
	// ErrInvalidDiscount is returned when a discount is malformed or exceeds the total price.
	ErrInvalidDiscount = errors.New("sale: invalid discount")
	// ErrInvalidPayment is returned for a negative payment amount.
	ErrInvalidPayment = errors.New("sale: invalid payment")
	// ErrInsufficientPayment is returned when the amount paid is below the total price.
	ErrInsufficientPayment = errors.New("sale: paid amount is less than total price")
	// ErrSaleFinalized is returned for any mutation after the sale was paid.
	ErrSaleFinalized = errors.New("sale: already finalized")
)

// IsValidation reports whether err is a caller mistake that left the sale unchanged.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidDiscount) ||
		errors.Is(err, ErrInvalidPayment) ||
		errors.Is(err, ErrInsufficientPayment)
}
