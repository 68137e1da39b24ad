package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation constants
const (
	MaxEntityNameLength = 255
	MaxFieldKeyLength   = 64
	MaxFieldValueLength = 1024
	MaxFormFields       = 64
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	fieldKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// ValidateEntityName checks the length of a non-empty entity name. Emptiness
// is reported by the uniqueness check.
func ValidateEntityName(name string) error {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxEntityNameLength {
		return NewValidationError(FieldName, "too-long", ErrInvalidFieldValue,
			fmt.Sprintf("name exceeds %d characters", MaxEntityNameLength))
	}
	return nil
}

// ValidateFormField validates a pass-through form field. Email fields must be
// well formed when set.
func ValidateFormField(key, value string) error {
	if len(key) > MaxFieldKeyLength || !fieldKeyRegex.MatchString(key) {
		return fmt.Errorf("%w: field key %q", ErrInvalidFieldValue, key)
	}

	if utf8.RuneCountInString(value) > MaxFieldValueLength {
		return NewValidationError(FieldKey(key), "too-long", ErrInvalidFieldValue,
			fmt.Sprintf("value exceeds %d characters", MaxFieldValueLength))
	}

	if key == "email" && strings.TrimSpace(value) != "" {
		if err := ValidateEmail(value); err != nil {
			return NewValidationError(FieldKey(key), "malformed", err, "")
		}
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrMalformedInput)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
