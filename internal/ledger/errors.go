// Package ledger holds the error taxonomy shared by the ledger engines.
package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrNotFound             = errors.New("not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidName          = errors.New("invalid name")
	ErrRegistrationRejected = errors.New("registration rejected")
	ErrQuotaExhausted       = errors.New("transfer quota exhausted")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrCooldown             = errors.New("cooling down")
	ErrConditionUnmet       = errors.New("condition not met")
)

// ShortfallError is returned when a debit would drive a bank entry below zero.
// The bank is left untouched.
type ShortfallError struct {
	Code string
	Have int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient %s: have %d", e.Code, e.Have)
}

func (e *ShortfallError) Unwrap() error { return ErrInsufficientBalance }

// Reported is the held quantity, or -1 when nothing is held at all.
func (e *ShortfallError) Reported() int {
	if e.Have == 0 {
		return -1
	}
	return e.Have
}

// Shortfall extracts the reported value from err, if err carries one.
func Shortfall(err error) (int, bool) {
	var se *ShortfallError
	if errors.As(err, &se) {
		return se.Reported(), true
	}
	return 0, false
}
