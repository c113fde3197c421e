package common

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError for the caller.
type Kind int

const (
	// KindInternal is an unexpected failure.
	KindInternal Kind = iota
	// KindValidation means the caller supplied bad input.
	KindValidation
	// KindCollaborator means an external system failed or refused.
	KindCollaborator
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindCollaborator:
		return "collaborator"
	default:
		return "internal"
	}
}

// Error codes reported to the cashier.
const (
	CodeItemNotFound         = "ITEM_NOT_FOUND"
	CodeInventoryUnavailable = "INVENTORY_UNAVAILABLE"
	CodeInvalidPayment       = "INVALID_PAYMENT"
	CodeFinalizeFailed       = "FINALIZE_FAILED"
	CodeInvalidDiscount      = "INVALID_DISCOUNT"
)

// AppError represents an error with an attached code and a message fit for
// display.
type AppError struct {
	Code    string
	Message string
	Kind    Kind
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, kind Kind, err error) *AppError {
	return &AppError{Code: code, Message: message, Kind: kind, Err: err}
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var target *AppError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// DisplayMessage returns the message to show a user for err.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
