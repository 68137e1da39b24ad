package domain

import (
	"errors"
	"fmt"
)

var (
	// Location errors
	ErrMalformedInput    = errors.New("input does not match the expected format")
	ErrOracleUnavailable = errors.New("reference data oracle unavailable")
	ErrPostalNotFound    = errors.New("postal code not found")
	ErrCityMismatch      = errors.New("postal code does not belong to the selected city")
	ErrCityRequired      = errors.New("city must be selected before the postal code")

	// Naming errors
	ErrNameRequired        = errors.New("name is required")
	ErrUniquenessViolation = errors.New("name already exists")

	// Fiscal anchor errors
	ErrPendingConfirmation    = errors.New("pending-confirmation")
	ErrDestructiveResetFailed = errors.New("destructive-reset-failed")
	ErrNoPendingChange        = errors.New("no pending change for field")

	// Session errors
	ErrReadOnlySession   = errors.New("session is read-only")
	ErrInvalidMode       = errors.New("invalid session mode")
	ErrInvalidEntityKind = errors.New("invalid entity kind")
	ErrEntityRequired    = errors.New("entity is required outside create mode")
	ErrInvalidFieldValue = errors.New("invalid field value")
	ErrUnsupportedField  = errors.New("field is not supported for this entity kind")
	ErrSessionNotFound   = errors.New("session not found")
	ErrStaleSession      = errors.New("session was modified concurrently")

	// Persistence errors
	ErrEntityNotFound = errors.New("entity not found")
	ErrCacheMiss      = errors.New("cache miss")
)

// ValidationError is a field-level failure surfaced to the user. It wraps one
// of the sentinel errors above so callers can still use errors.Is.
type ValidationError struct {
	Field   FieldKey
	Reason  string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Field, e.Reason, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field FieldKey, reason string, err error, message string) *ValidationError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &ValidationError{
		Field:   field,
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}
