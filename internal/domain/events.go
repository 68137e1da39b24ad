package domain

import "time"

// Event types
const (
	EventTypeCompanyCreated            = "company.created"
	EventTypeCompanyUpdated            = "company.updated"
	EventTypeBranchCreated             = "branch.created"
	EventTypeBranchUpdated             = "branch.updated"
	EventTypeCompanyDependentDataReset = "company.dependent_data_reset"
)

// Aggregate types
const (
	AggregateTypeCompany = "company"
	AggregateTypeBranch  = "branch"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntitySavedEvent payload
type EntitySavedEvent struct {
	EntityID     string `json:"entity_id"`
	Kind         string `json:"kind"`
	ParentID     string `json:"parent_id,omitempty"`
	Name         string `json:"name"`
	CountryCode  string `json:"country_code,omitempty"`
	CurrencyCode string `json:"currency_code"`
}

// DependentDataResetEvent payload
type DependentDataResetEvent struct {
	CompanyID           string `json:"company_id"`
	Field               string `json:"field"`
	PreviousValue       string `json:"previous_value"`
	NewValue            string `json:"new_value"`
	TransactionsDeleted int64  `json:"transactions_deleted"`
	EntriesDeleted      int64  `json:"entries_deleted"`
	MastersDeleted      int64  `json:"masters_deleted"`
	BalancesCleared     int64  `json:"balances_cleared"`
	ClearedBalanceTotal string `json:"cleared_balance_total"`
}

// SavedEventType returns the event type for saving an entity of kind.
func SavedEventType(kind EntityKind, created bool) string {
	switch {
	case kind == EntityKindBranch && created:
		return EventTypeBranchCreated
	case kind == EntityKindBranch:
		return EventTypeBranchUpdated
	case created:
		return EventTypeCompanyCreated
	default:
		return EventTypeCompanyUpdated
	}
}
