package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid view transition")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrPaymentInFlight   = errors.New("payment already in progress")
	ErrInvalidState      = errors.New("invalid order state")
	ErrPaymentFailed     = errors.New("payment failed")
)

// ValidationError is reported inline next to the offending input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
