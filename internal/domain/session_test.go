package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseSessionMode(t *testing.T) {
	for _, in := range []string{"create", "EDIT", " view "} {
		if _, err := ParseSessionMode(in); err != nil {
			t.Errorf("ParseSessionMode(%q) returned %v", in, err)
		}
	}
	if _, err := ParseSessionMode("delete"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
}

func TestFieldKey_Classification(t *testing.T) {
	if !FieldPostalCode.IsLocation() || FieldName.IsLocation() {
		t.Error("IsLocation misclassified")
	}
	if f, ok := FieldBooksBeginningDate.Anchor(); !ok || f != AnchorBooksBeginningDate {
		t.Error("Anchor misclassified books_beginning_date")
	}
	if _, ok := FieldKey("email").Anchor(); ok {
		t.Error("email is not an anchor")
	}
	if !FieldDecimalPlaces.IsCurrency() || FieldCountry.IsCurrency() {
		t.Error("IsCurrency misclassified")
	}
}

func TestSessionState_Clone(t *testing.T) {
	s := &SessionState{
		Mode:        SessionModeEdit,
		EditingItem: &Entity{ID: "c1", Fields: map[string]string{"email": "a@example.com"}},
		Fields:      map[string]string{"phone": "1"},
		Pending: map[AnchorField]PendingAnchorChange{
			AnchorFinancialYearStart: {Field: AnchorFinancialYearStart},
		},
		Candidates: LocationCandidates{States: []State{{Code: "KA"}}},
	}

	c := s.Clone()
	c.Fields["phone"] = "2"
	c.EditingItem.Fields["email"] = "b@example.com"
	delete(c.Pending, AnchorFinancialYearStart)
	c.Candidates.States[0].Code = "MH"

	if s.Fields["phone"] != "1" || s.EditingItem.Fields["email"] != "a@example.com" {
		t.Error("clone shares field maps")
	}
	if !s.HasPending() {
		t.Error("clone shares pending map")
	}
	if s.Candidates.States[0].Code != "KA" {
		t.Error("clone shares candidate slices")
	}
	if s.EntityID() != "c1" || c.EntityID() != "c1" {
		t.Error("entity id lost")
	}
}

func TestSessionState_PendingFieldsSorted(t *testing.T) {
	s := &SessionState{Pending: map[AnchorField]PendingAnchorChange{
		AnchorFinancialYearStart: {},
		AnchorBooksBeginningDate: {},
	}}

	got := s.PendingFields()
	if len(got) != 2 || got[0] != AnchorBooksBeginningDate || got[1] != AnchorFinancialYearStart {
		t.Errorf("unexpected order: %v", got)
	}
}

func TestSessionState_ReadOnlyAndItem(t *testing.T) {
	view := &SessionState{Mode: SessionModeView, ViewingItem: &Entity{ID: "b1"}}
	if !view.IsReadOnly() || view.EntityID() != "b1" {
		t.Error("view session should be read-only and expose the viewed item")
	}

	create := &SessionState{Mode: SessionModeCreate}
	if create.IsReadOnly() || create.EntityID() != "" || create.Item() != nil {
		t.Error("create session should have no item")
	}
}

func TestEntityPayload_ToEntity(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(48 * time.Hour)
	fy, _ := ParseDate("2024-04-01")

	p := EntityPayload{
		ID:       "c1",
		Kind:     EntityKindCompany,
		Name:     "  Acme  ",
		Location: LocationSelection{CountryCode: "IN", StateCode: "KA", CityName: "Bengaluru", PostalCode: "560001"},
		Currency: DeriveCurrency("IN"),
		Anchors:  &FiscalAnchors{FinancialYearStart: fy},
	}

	e := p.ToEntity(&Entity{CreatedAt: created}, now)
	if e.Name != "Acme" {
		t.Errorf("expected trimmed name, got %q", e.Name)
	}
	if e.Location != (StoredLocation{Country: "IN", State: "KA", City: "Bengaluru", PostalCode: "560001"}) {
		t.Errorf("unexpected stored location: %+v", e.Location)
	}
	if e.Currency == nil || e.Currency.FormalName != "INR" {
		t.Errorf("unexpected currency: %+v", e.Currency)
	}
	if !e.CreatedAt.Equal(created) || !e.UpdatedAt.Equal(now) {
		t.Errorf("unexpected timestamps: %v %v", e.CreatedAt, e.UpdatedAt)
	}
	if !e.Anchors.FinancialYearStart.Equal(fy) {
		t.Error("anchors not copied")
	}
}
