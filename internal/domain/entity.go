package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntityKind is the type of organizational entity.
type EntityKind string

const (
	EntityKindCompany EntityKind = "company"
	EntityKindBranch  EntityKind = "branch"
)

// ParseEntityKind parses an entity kind.
func ParseEntityKind(s string) (EntityKind, error) {
	switch k := EntityKind(strings.ToLower(strings.TrimSpace(s))); k {
	case EntityKindCompany, EntityKindBranch:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEntityKind, s)
}

// HasAnchors reports whether entities of this kind carry fiscal anchors.
func (k EntityKind) HasAnchors() bool {
	return k == EntityKindCompany
}

// HasUniqueName reports whether the name must be unique among siblings.
func (k EntityKind) HasUniqueName() bool {
	return k == EntityKindBranch
}

// Entity is a persisted company or branch.
type Entity struct {
	ID       string            `json:"id"`
	Kind     EntityKind        `json:"kind"`
	ParentID string            `json:"parent_id,omitempty"`
	Name     string            `json:"name"`
	Fields   map[string]string `json:"fields,omitempty"`
	Location StoredLocation    `json:"location"`
	// Currency is nil when no profile was stored.
	Currency  *CurrencyProfile `json:"currency,omitempty"`
	Anchors   FiscalAnchors    `json:"anchors"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SiblingName is one entry of the sibling name registry.
type SiblingName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DateLayout is the wire format of fiscal anchor dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day. The zero value means unset.
type Date struct {
	time.Time
}

// NewDate returns the date of t in UTC.
func NewDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidFieldValue, s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Equal reports whether both dates name the same day.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AnchorField names a fiscal anchor.
type AnchorField string

const (
	AnchorFinancialYearStart AnchorField = "financial_year_start"
	AnchorBooksBeginningDate AnchorField = "books_beginning_date"
)

// FieldKey returns the session field key of the anchor.
func (f AnchorField) FieldKey() FieldKey {
	return FieldKey(f)
}

// FiscalAnchors are the accounting period boundaries of a company.
type FiscalAnchors struct {
	FinancialYearStart Date `json:"financial_year_start"`
	BooksBeginningDate Date `json:"books_beginning_date"`
}

// Get returns the value of field.
func (a FiscalAnchors) Get(field AnchorField) Date {
	if field == AnchorBooksBeginningDate {
		return a.BooksBeginningDate
	}
	return a.FinancialYearStart
}

// With returns a copy of a with field set to value.
func (a FiscalAnchors) With(field AnchorField, value Date) FiscalAnchors {
	switch field {
	case AnchorFinancialYearStart:
		a.FinancialYearStart = value
	case AnchorBooksBeginningDate:
		a.BooksBeginningDate = value
	}
	return a
}

// GuardStatus is the state of a fiscal anchor change.
type GuardStatus string

const (
	GuardStatusStable              GuardStatus = "stable"
	GuardStatusPendingConfirmation GuardStatus = "pending-confirmation"
	GuardStatusApplied             GuardStatus = "applied"
	GuardStatusCancelled           GuardStatus = "cancelled"
)

// AnchorProposal is a request to move a fiscal anchor. EntityID is empty for
// entities that were never persisted.
type AnchorProposal struct {
	EntityID      string
	Field         AnchorField
	CurrentValue  Date
	ProposedValue Date
}

// PendingAnchorChange is an anchor change awaiting destructive-reset
// confirmation. It only lives inside a session.
type PendingAnchorChange struct {
	EntityID         string      `json:"entity_id"`
	Field            AnchorField `json:"field"`
	CurrentValue     Date        `json:"current_value"`
	ProposedValue    Date        `json:"proposed_value"`
	HasDependentData bool        `json:"has_dependent_data"`
	ProposedAt       time.Time   `json:"proposed_at"`
}

// AnchorDecision is the outcome of proposing an anchor change. Value is the
// anchor value in effect after the decision.
type AnchorDecision struct {
	Status  GuardStatus          `json:"status"`
	Field   AnchorField          `json:"field"`
	Value   Date                 `json:"value"`
	Pending *PendingAnchorChange `json:"pending,omitempty"`
}

// ResetReport counts what a destructive reset removed.
type ResetReport struct {
	TransactionsDeleted int64           `json:"transactions_deleted"`
	EntriesDeleted      int64           `json:"entries_deleted"`
	MastersDeleted      int64           `json:"masters_deleted"`
	BalancesCleared     int64           `json:"balances_cleared"`
	ClearedBalanceTotal decimal.Decimal `json:"cleared_balance_total"`
}

// ResetResult is the outcome of a confirmed anchor change.
type ResetResult struct {
	Status GuardStatus `json:"status"`
	Field  AnchorField `json:"field"`
	Value  Date        `json:"value"`
	Report ResetReport `json:"report"`
}
