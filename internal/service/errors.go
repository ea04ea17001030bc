package service

import (
	"errors"
	"fmt"
)

// Service errors. Specific not-found errors wrap ErrNotFound so transports
// can map the whole family with one errors.Is check.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")

	ErrPackageNotFound = fmt.Errorf("package %w", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("payment %w", ErrNotFound)
	ErrUserNotLinked   = fmt.Errorf("telegram link %w", ErrNotFound)
	ErrReviewNotFound  = fmt.Errorf("review %w", ErrNotFound)
)

// invalid returns a validation error with a human readable reason.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ValidationMessage strips the ErrValidation prefix for display.
func ValidationMessage(err error) string {
	msg := err.Error()
	prefix := ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
