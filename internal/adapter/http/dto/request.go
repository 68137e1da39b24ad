package dto

import (
	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

// StartSessionRequest represents a request to open an entity-edit session.
type StartSessionRequest struct {
	Mode     string `json:"mode"      validate:"required,oneof=create edit view"`
	Kind     string `json:"kind"      validate:"required,oneof=company branch"`
	EntityID string `json:"entity_id" validate:"required_unless=Mode create,max=64"`
	ParentID string `json:"parent_id" validate:"max=64"`
}

// ToUseCaseInput converts to use case input. Call Validate first.
func (r *StartSessionRequest) ToUseCaseInput() usecase.StartInput {
	return usecase.StartInput{
		Mode:     domain.SessionMode(r.Mode),
		Kind:     domain.EntityKind(r.Kind),
		EntityID: r.EntityID,
		ParentID: r.ParentID,
	}
}

// ProposeFieldRequest represents a field edit. Revision, when set, must
// match the stored session.
type ProposeFieldRequest struct {
	Field    string `json:"field"    validate:"required,max=64"`
	Value    string `json:"value"    validate:"max=1024"`
	Revision *int64 `json:"revision"`
}

// ToUseCaseInput converts to use case input.
func (r *ProposeFieldRequest) ToUseCaseInput(sessionID string) usecase.ProposeInput {
	return usecase.ProposeInput{
		SessionID: sessionID,
		Field:     domain.FieldKey(r.Field),
		Value:     r.Value,
		Revision:  r.Revision,
	}
}

// AnchorRequest confirms or cancels a pending anchor change.
type AnchorRequest struct {
	Field    string `json:"field"    validate:"required,oneof=financial_year_start books_beginning_date"`
	Revision *int64 `json:"revision"`
}

// ToUseCaseInput converts to use case input.
func (r *AnchorRequest) ToUseCaseInput(sessionID, actor, requestID string) usecase.AnchorInput {
	return usecase.AnchorInput{
		SessionID: sessionID,
		Field:     domain.AnchorField(r.Field),
		Revision:  r.Revision,
		Actor:     actor,
		RequestID: requestID,
	}
}

// SubmitRequest submits a session. The body is optional.
type SubmitRequest struct {
	Revision *int64 `json:"revision"`
}

// ToUseCaseInput converts to use case input.
func (r *SubmitRequest) ToUseCaseInput(sessionID, actor, requestID string) usecase.SubmitInput {
	return usecase.SubmitInput{
		SessionID: sessionID,
		Revision:  r.Revision,
		Actor:     actor,
		RequestID: requestID,
	}
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
