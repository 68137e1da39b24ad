package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	Actor        string // Who performed the action
	Action       string // What action (company.create, company.anchor_reset, etc.)
	ResourceType string // company or branch
	ResourceID   string
	SessionID    string // Session the action was taken in
	RequestID    string // Request ID for tracing
	BeforeState  JSON
	AfterState   JSON
	Status       string // success, failure, error
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionCompanyCreate      AuditAction = "company.create"
	AuditActionCompanyUpdate      AuditAction = "company.update"
	AuditActionCompanyAnchorReset AuditAction = "company.anchor_reset"
	AuditActionBranchCreate       AuditAction = "branch.create"
	AuditActionBranchUpdate       AuditAction = "branch.update"
)

// SaveAuditAction returns the audit action for saving an entity of kind.
func SaveAuditAction(kind EntityKind, created bool) AuditAction {
	switch {
	case kind == EntityKindBranch && created:
		return AuditActionBranchCreate
	case kind == EntityKindBranch:
		return AuditActionBranchUpdate
	case created:
		return AuditActionCompanyCreate
	default:
		return AuditActionCompanyUpdate
	}
}

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
