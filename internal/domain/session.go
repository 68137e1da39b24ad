package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// SessionMode is the mode an entity-edit session was opened in.
type SessionMode string

const (
	SessionModeCreate SessionMode = "create"
	SessionModeEdit   SessionMode = "edit"
	SessionModeView   SessionMode = "view"
)

// ParseSessionMode parses a session mode.
func ParseSessionMode(s string) (SessionMode, error) {
	switch m := SessionMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SessionModeCreate, SessionModeEdit, SessionModeView:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// FieldKey names a session field. Keys not listed below are pass-through form
// fields.
type FieldKey string

const (
	FieldCountry    FieldKey = "country"
	FieldState      FieldKey = "state"
	FieldCity       FieldKey = "city"
	FieldPostalCode FieldKey = "postal_code"

	FieldFinancialYearStart FieldKey = FieldKey(AnchorFinancialYearStart)
	FieldBooksBeginningDate FieldKey = FieldKey(AnchorBooksBeginningDate)

	FieldName FieldKey = "name"

	FieldCurrencySymbol              FieldKey = "currency_symbol"
	FieldCurrencyFormalName          FieldKey = "currency_formal_name"
	FieldShowInMillions              FieldKey = "show_in_millions"
	FieldDecimalPlaces               FieldKey = "decimal_places"
	FieldAfterDecimalWord            FieldKey = "after_decimal_word"
	FieldDecimalPlacesInWords        FieldKey = "decimal_places_in_words"
	FieldSuffixSymbolToAmount        FieldKey = "suffix_symbol_to_amount"
	FieldSpaceBetweenAmountAndSymbol FieldKey = "space_between_amount_and_symbol"
)

// IsLocation reports whether the key is one of the four location fields.
func (k FieldKey) IsLocation() bool {
	switch k {
	case FieldCountry, FieldState, FieldCity, FieldPostalCode:
		return true
	}
	return false
}

// Anchor returns the anchor field named by k.
func (k FieldKey) Anchor() (AnchorField, bool) {
	switch k {
	case FieldFinancialYearStart:
		return AnchorFinancialYearStart, true
	case FieldBooksBeginningDate:
		return AnchorBooksBeginningDate, true
	}
	return "", false
}

// IsCurrency reports whether the key is a currency profile field.
func (k FieldKey) IsCurrency() bool {
	switch k {
	case FieldCurrencySymbol, FieldCurrencyFormalName, FieldShowInMillions, FieldDecimalPlaces,
		FieldAfterDecimalWord, FieldDecimalPlacesInWords, FieldSuffixSymbolToAmount,
		FieldSpaceBetweenAmountAndSymbol:
		return true
	}
	return false
}

// SessionState is the state of one entity-edit session. Operations return a
// new state and never mutate their input.
type SessionState struct {
	ID       string      `json:"id"`
	Mode     SessionMode `json:"mode"`
	Kind     EntityKind  `json:"kind"`
	ParentID string      `json:"parent_id,omitempty"`

	// Exactly one of these is set outside create mode.
	EditingItem *Entity `json:"editing_item,omitempty"`
	ViewingItem *Entity `json:"viewing_item,omitempty"`

	Name   string            `json:"name"`
	Fields map[string]string `json:"fields,omitempty"`

	Location   LocationSelection  `json:"location"`
	Candidates LocationCandidates `json:"candidates"`
	Postal     PostalOutcome      `json:"postal"`

	Currency CurrencyProfile `json:"currency"`
	// CurrencyExplicit is set while the currency comes from a stored profile
	// or user edits instead of the country table.
	CurrencyExplicit bool `json:"currency_explicit"`

	Anchors FiscalAnchors                       `json:"anchors"`
	Pending map[AnchorField]PendingAnchorChange `json:"pending,omitempty"`

	// SelectionVersion advances whenever an upstream location field changes.
	SelectionVersion int64 `json:"selection_version"`
	// Revision advances on every accepted operation.
	Revision int64 `json:"revision"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Clone returns a deep copy of s.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	c := *s
	c.Fields = maps.Clone(s.Fields)
	c.Pending = maps.Clone(s.Pending)
	c.Candidates.States = slices.Clone(s.Candidates.States)
	c.Candidates.Cities = slices.Clone(s.Candidates.Cities)
	c.Candidates.PostalCandidates = slices.Clone(s.Candidates.PostalCandidates)
	if s.EditingItem != nil {
		item := *s.EditingItem
		item.Fields = maps.Clone(s.EditingItem.Fields)
		c.EditingItem = &item
	}
	if s.ViewingItem != nil {
		item := *s.ViewingItem
		item.Fields = maps.Clone(s.ViewingItem.Fields)
		c.ViewingItem = &item
	}
	return &c
}

// IsReadOnly reports whether mutations are rejected.
func (s *SessionState) IsReadOnly() bool {
	return s.Mode == SessionModeView
}

// Item returns the persisted entity the session was opened on, if any.
func (s *SessionState) Item() *Entity {
	if s.EditingItem != nil {
		return s.EditingItem
	}
	return s.ViewingItem
}

// EntityID returns the ID of the persisted entity, or "" in create mode.
func (s *SessionState) EntityID() string {
	if item := s.Item(); item != nil {
		return item.ID
	}
	return ""
}

// HasPending reports whether any anchor change awaits confirmation.
func (s *SessionState) HasPending() bool {
	return len(s.Pending) > 0
}

// PendingFields returns the anchor fields awaiting confirmation in a stable
// order.
func (s *SessionState) PendingFields() []AnchorField {
	fields := slices.Collect(maps.Keys(s.Pending))
	slices.Sort(fields)
	return fields
}

// EntityPayload is the persistence-ready record produced by a successful
// submit. Anchors is nil for kinds without fiscal anchors.
type EntityPayload struct {
	ID       string            `json:"id,omitempty"`
	Kind     EntityKind        `json:"kind"`
	ParentID string            `json:"parent_id,omitempty"`
	Name     string            `json:"name"`
	Fields   map[string]string `json:"fields,omitempty"`
	Location LocationSelection `json:"location"`
	Currency CurrencyProfile   `json:"currency"`
	Anchors  *FiscalAnchors    `json:"anchors,omitempty"`
}

// ToEntity converts the payload to an entity, keeping the timestamps of prev
// when it is not nil.
func (p EntityPayload) ToEntity(prev *Entity, now time.Time) *Entity {
	currency := p.Currency
	e := &Entity{
		ID:       p.ID,
		Kind:     p.Kind,
		ParentID: p.ParentID,
		Name:     strings.TrimSpace(p.Name),
		Fields:   maps.Clone(p.Fields),
		Location: StoredLocation{
			Country:    p.Location.CountryCode,
			State:      p.Location.StateCode,
			City:       p.Location.CityName,
			PostalCode: p.Location.PostalCode,
		},
		Currency:  &currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Anchors != nil {
		e.Anchors = *p.Anchors
	}
	if prev != nil {
		e.CreatedAt = prev.CreatedAt
	}
	return e
}
