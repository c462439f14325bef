package errors

import (
	"errors"
	"fmt"
)

// Sentinels for domain errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrValidation    = errors.New("validation error")
	ErrUnavailable   = errors.New("service unavailable")
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// Is reports whether err is one of the sentinels.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Validationf builds an error that matches ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflictf builds an error that matches ErrConflict.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
