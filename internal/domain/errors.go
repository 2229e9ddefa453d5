package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by the store, the catalog engine and the services.
// Callers match them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflicting update")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Invalid returns a validation error carrying a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
