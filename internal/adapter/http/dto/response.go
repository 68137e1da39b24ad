package dto

import (
	"time"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

// ErrorResponse represents an error in API responses. Error is a stable
// machine-readable code; Fields carries per-field messages for the form.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Field   string            `json:"field,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// SessionResponse represents an entity-edit session in API responses.
type SessionResponse struct {
	ID               string                    `json:"id"`
	Mode             domain.SessionMode        `json:"mode"`
	Kind             domain.EntityKind         `json:"kind"`
	ParentID         string                    `json:"parent_id,omitempty"`
	EntityID         string                    `json:"entity_id,omitempty"`
	ReadOnly         bool                      `json:"read_only"`
	Name             string                    `json:"name"`
	Fields           map[string]string         `json:"fields,omitempty"`
	Location         domain.LocationSelection  `json:"location"`
	Candidates       domain.LocationCandidates `json:"candidates"`
	Postal           domain.PostalOutcome      `json:"postal"`
	Currency         domain.CurrencyProfile    `json:"currency"`
	Anchors          *domain.FiscalAnchors     `json:"anchors,omitempty"`
	Pending          []PendingChangeResponse   `json:"pending,omitempty"`
	SelectionVersion int64                     `json:"selection_version"`
	Revision         int64                     `json:"revision"`
	ExpiresAt        time.Time                 `json:"expires_at"`
}

// PendingChangeResponse is an anchor change awaiting confirmation.
type PendingChangeResponse struct {
	Field            domain.AnchorField `json:"field"`
	CurrentValue     domain.Date        `json:"current_value"`
	ProposedValue    domain.Date        `json:"proposed_value"`
	HasDependentData bool               `json:"has_dependent_data"`
}

// SessionFromDomain converts a domain session to response.
func SessionFromDomain(s *domain.SessionState) *SessionResponse {
	resp := &SessionResponse{
		ID:               s.ID,
		Mode:             s.Mode,
		Kind:             s.Kind,
		ParentID:         s.ParentID,
		EntityID:         s.EntityID(),
		ReadOnly:         s.IsReadOnly(),
		Name:             s.Name,
		Fields:           s.Fields,
		Location:         s.Location,
		Candidates:       s.Candidates,
		Postal:           s.Postal,
		Currency:         s.Currency,
		SelectionVersion: s.SelectionVersion,
		Revision:         s.Revision,
		ExpiresAt:        s.ExpiresAt,
	}

	if s.Kind.HasAnchors() {
		anchors := s.Anchors
		resp.Anchors = &anchors
	}

	for _, field := range s.PendingFields() {
		p := s.Pending[field]
		resp.Pending = append(resp.Pending, PendingChangeResponse{
			Field:            p.Field,
			CurrentValue:     p.CurrentValue,
			ProposedValue:    p.ProposedValue,
			HasDependentData: p.HasDependentData,
		})
	}

	return resp
}

// ConfirmResponse is returned after a confirmed anchor change.
type ConfirmResponse struct {
	Session *SessionResponse   `json:"session"`
	Result  domain.ResetResult `json:"result"`
}

// UniquenessResponse is the result of a name check.
type UniquenessResponse struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message,omitempty"`
}

// UniquenessFromUseCase converts a uniqueness result to response.
func UniquenessFromUseCase(r usecase.UniquenessResult) UniquenessResponse {
	return UniquenessResponse{IsValid: r.IsValid, Message: r.Message}
}

// CandidatesResponse lists the options of a selection widget.
type CandidatesResponse struct {
	List       string              `json:"list"`
	Candidates []usecase.Candidate `json:"candidates"`
}

// EntityResponse represents a company or branch in API responses.
type EntityResponse struct {
	ID        string                  `json:"id"`
	Kind      domain.EntityKind       `json:"kind"`
	ParentID  string                  `json:"parent_id,omitempty"`
	Name      string                  `json:"name"`
	Fields    map[string]string       `json:"fields,omitempty"`
	Location  domain.StoredLocation   `json:"location"`
	Currency  *domain.CurrencyProfile `json:"currency,omitempty"`
	Anchors   *domain.FiscalAnchors   `json:"anchors,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// EntityFromDomain converts a domain entity to response.
func EntityFromDomain(e *domain.Entity) *EntityResponse {
	resp := &EntityResponse{
		ID:        e.ID,
		Kind:      e.Kind,
		ParentID:  e.ParentID,
		Name:      e.Name,
		Fields:    e.Fields,
		Location:  e.Location,
		Currency:  e.Currency,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}

	if e.Kind.HasAnchors() {
		anchors := e.Anchors
		resp.Anchors = &anchors
	}

	return resp
}

// EntitiesFromDomain converts domain entities to responses.
func EntitiesFromDomain(entities []*domain.Entity) []*EntityResponse {
	result := make([]*EntityResponse, len(entities))
	for i, e := range entities {
		result[i] = EntityFromDomain(e)
	}
	return result
}

// ListEntitiesResponse represents a page of entities.
type ListEntitiesResponse struct {
	Entities []*EntityResponse `json:"entities"`
	Total    int64             `json:"total"`
}

// AuditLogResponse represents one audit trail entry.
type AuditLogResponse struct {
	ID           string      `json:"id"`
	Actor        string      `json:"actor"`
	Action       string      `json:"action"`
	SessionID    string      `json:"session_id,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
	BeforeState  domain.JSON `json:"before_state,omitempty"`
	AfterState   domain.JSON `json:"after_state,omitempty"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AuditLogsFromDomain converts audit logs to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			ID:           l.ID,
			Actor:        l.Actor,
			Action:       l.Action,
			SessionID:    l.SessionID,
			RequestID:    l.RequestID,
			BeforeState:  l.BeforeState,
			AfterState:   l.AfterState,
			Status:       l.Status,
			ErrorMessage: l.ErrorMessage,
			CreatedAt:    l.CreatedAt,
		}
	}
	return result
}

// HistoryResponse represents the audit trail of an entity.
type HistoryResponse struct {
	EntityID string              `json:"entity_id"`
	Entries  []*AuditLogResponse `json:"entries"`
}
