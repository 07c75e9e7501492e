// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRatingValue     = errors.New("rating value must be between 1 and 5")
	ErrSplitExceedsTotal      = errors.New("contributor splits exceed 100 percent")
	ErrBeatNotAvailable       = errors.New("beat is not available for purchase")
	ErrPaymentFailed          = errors.New("payment failed")
	ErrInsufficientBalance    = errors.New("insufficient balance for withdrawal")
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrRatingRequiresPurchase = errors.New("only licensees can rate a beat")
	ErrInvalidTransition      = errors.New("invalid status transition")
)

// ValidationError describes a rejected input field. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// notFound wraps ErrNotFound with the missing resource name.
func notFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}
