package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrDivisionByZero is returned when dividing by a zero amount.
	ErrDivisionByZero = errors.New("money: division by zero")
	// ErrParse is matched by every ParseError.
	ErrParse = errors.New("money: malformed amount")
)

// ParseError describes input that could not be read as a decimal literal.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("money: parse %q: %v", e.Input, e.Err)
}

// Is reports ErrParse so callers can match without type assertions.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Amount is an immutable exact decimal value. The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{}
}

// Parse reads a decimal literal such as "29.9" or "-0.06".
func Parse(value string) (Amount, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Amount{}, &ParseError{Input: value, Err: errors.New("empty input")}
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Amount{}, &ParseError{Input: value, Err: err}
	}
	return Amount{d: d}, nil
}

// MustParse behaves like Parse but panics on malformed input. Intended for literals.
func MustParse(value string) Amount {
	a, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return a
}

// FromInt converts a whole number.
func FromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// FromDecimal wraps an existing decimal value.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Decimal exposes the underlying decimal.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

func (a Amount) Add(other Amount) Amount {
	return Amount{d: a.d.Add(other.d)}
}

func (a Amount) Sub(other Amount) Amount {
	return Amount{d: a.d.Sub(other.d)}
}

func (a Amount) Mul(other Amount) Amount {
	return Amount{d: a.d.Mul(other.d)}
}

// Div divides a by other. Quotients that do not terminate are cut at
// decimal.DivisionPrecision fractional digits.
func (a Amount) Div(other Amount) (Amount, error) {
	if other.d.IsZero() {
		return Amount{}, ErrDivisionByZero
	}
	return Amount{d: a.d.Div(other.d)}, nil
}

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(other Amount) int {
	return a.d.Cmp(other.d)
}

// Equal compares by value, so 12.5 equals 12.50.
func (a Amount) Equal(other Amount) bool {
	return a.d.Equal(other.d)
}

func (a Amount) LessThan(other Amount) bool {
	return a.d.LessThan(other.d)
}

func (a Amount) GreaterThan(other Amount) bool {
	return a.d.GreaterThan(other.d)
}

func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// Rounded rounds to two fractional digits, half away from zero.
func (a Amount) Rounded() Amount {
	return Amount{d: a.d.Round(2)}
}

// Colonized renders the amount with exactly two fractional digits and a
// colon as the decimal separator, e.g. 74.7 -> "74:70".
func (a Amount) Colonized() string {
	return strings.Replace(a.d.StringFixed(2), ".", ":", 1)
}

// String returns the plain decimal form.
func (a Amount) String() string {
	return a.d.String()
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return a.d.MarshalJSON()
}

// UnmarshalJSON accepts quoted or bare decimal numbers.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return &ParseError{Input: string(data), Err: err}
	}
	a.d = d
	return nil
}

// Sum adds all amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
