package usecase

import (
	"strings"

	"github.com/iho/orgconf/internal/domain"
)

// Uniqueness messages.
const (
	MessageNameRequired = "name is required"
	MessageNameExists   = "already exists"
)

// UniquenessResult is the outcome of a sibling-name check.
type UniquenessResult struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message"`
}

// Err converts an invalid result to a *domain.ValidationError.
func (r UniquenessResult) Err() error {
	switch {
	case r.IsValid:
		return nil
	case r.Message == MessageNameRequired:
		return domain.NewValidationError(domain.FieldName, "required", domain.ErrNameRequired, r.Message)
	default:
		return domain.NewValidationError(domain.FieldName, "duplicate", domain.ErrUniquenessViolation, r.Message)
	}
}

// UniquenessValidator enforces trimmed, case-insensitive name uniqueness among
// siblings. It has no side effects and can run on every keystroke.
type UniquenessValidator struct{}

// NewUniquenessValidator creates a new UniquenessValidator.
func NewUniquenessValidator() *UniquenessValidator {
	return &UniquenessValidator{}
}

// Validate checks name against siblings. The sibling whose ID equals
// excludeID is the entity being edited and is skipped.
func (v *UniquenessValidator) Validate(name string, siblings []domain.SiblingName, excludeID string) UniquenessResult {
	if strings.TrimSpace(name) == "" {
		return UniquenessResult{Message: MessageNameRequired}
	}

	folded := domain.FoldEntityName(name)
	for _, s := range siblings {
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		if domain.FoldEntityName(s.Name) == folded {
			return UniquenessResult{Message: MessageNameExists}
		}
	}

	return UniquenessResult{IsValid: true}
}
