//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

var bengaluru = []fieldStep{
	{domain.FieldCountry, "IN"},
	{domain.FieldState, "KA"},
	{domain.FieldCity, "Bengaluru"},
	{domain.FieldPostalCode, "560034"},
}

func TestCreateCompanyAndBranches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	s, err := h.sessions.Start(ctx, usecase.StartInput{Mode: domain.SessionModeCreate, Kind: domain.EntityKindCompany})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.fill(t, s.ID, append([]fieldStep{{domain.FieldName, "Acme Traders"}}, append(bengaluru,
		fieldStep{domain.FieldFinancialYearStart, "2024-04-01"},
		fieldStep{domain.FieldBooksBeginningDate, "2024-04-01"})...)...)

	company, err := h.sessions.Submit(ctx, usecase.SubmitInput{SessionID: s.ID, Actor: "alice", RequestID: "req-1"})
	if err != nil {
		t.Fatalf("submit company: %v", err)
	}

	stored, err := h.entities.GetByID(ctx, company.ID)
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	if stored.Name != "Acme Traders" || stored.Location.PostalCode != "560034" {
		t.Errorf("unexpected stored company: %+v", stored)
	}
	if stored.Currency == nil || stored.Currency.FormalName != "INR" {
		t.Errorf("expected INR currency, got %+v", stored.Currency)
	}
	if stored.Anchors.FinancialYearStart.String() != "2024-04-01" {
		t.Errorf("expected financial year start 2024-04-01, got %s", stored.Anchors.FinancialYearStart)
	}

	if _, err := h.sessions.Get(ctx, s.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected submitted session to be closed, got %v", err)
	}

	newBranch := func(name string) (*domain.Entity, error) {
		bs, err := h.sessions.Start(ctx, usecase.StartInput{
			Mode:     domain.SessionModeCreate,
			Kind:     domain.EntityKindBranch,
			ParentID: company.ID,
		})
		if err != nil {
			t.Fatalf("start branch: %v", err)
		}
		h.fill(t, bs.ID, append([]fieldStep{{domain.FieldName, name}}, bengaluru...)...)
		return h.sessions.Submit(ctx, usecase.SubmitInput{SessionID: bs.ID, Actor: "alice"})
	}

	if _, err := newBranch("Koramangala"); err != nil {
		t.Fatalf("submit branch: %v", err)
	}

	_, err = newBranch("  KORAMANGALA ")
	if !errors.Is(err, domain.ErrUniquenessViolation) {
		t.Fatalf("expected uniqueness violation for a case-insensitive duplicate, got %v", err)
	}

	branches, err := h.entities.List(ctx, domain.EntityKindBranch, company.ID, 10, 0)
	if err != nil {
		t.Fatalf("list branches: %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("expected 1 branch, got %d", len(branches))
	}
	if !branches[0].Anchors.FinancialYearStart.IsZero() {
		t.Errorf("branches do not carry fiscal anchors")
	}

	logs, err := h.audit.List(ctx, domain.AuditFilter{Actor: "alice", Limit: 10})
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit logs, got %d", len(logs))
	}

	events, err := h.outbox.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("get unpublished events: %v", err)
	}
	if len(events) != 2 || events[0].EventType != domain.EventTypeCompanyCreated || events[1].EventType != domain.EventTypeBranchCreated {
		t.Fatalf("unexpected outbox events: %+v", events)
	}
}

func TestEditCompanyWithoutDependentDataAppliesAnchorDirectly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	anchor, _ := domain.ParseDate("2024-04-01")
	company := h.db.CreateTestCompany(ctx, "Quiet Co", anchor)

	s, err := h.sessions.Start(ctx, usecase.StartInput{Mode: domain.SessionModeEdit, Kind: domain.EntityKindCompany, EntityID: company.ID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	s, err = h.sessions.Propose(ctx, usecase.ProposeInput{SessionID: s.ID, Field: domain.FieldFinancialYearStart, Value: "2025-04-01"})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if s.HasPending() {
		t.Fatalf("expected no pending change for a company without ledger data")
	}

	if _, err := h.sessions.Submit(ctx, usecase.SubmitInput{SessionID: s.ID, Actor: "bob"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	stored, err := h.entities.GetByID(ctx, company.ID)
	if err != nil {
		t.Fatalf("get company: %v", err)
	}
	if stored.Anchors.FinancialYearStart.String() != "2025-04-01" {
		t.Errorf("expected updated anchor, got %s", stored.Anchors.FinancialYearStart)
	}
}

func TestViewSessionIsReadOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	anchor, _ := domain.ParseDate("2024-04-01")
	company := h.db.CreateTestCompany(ctx, "Read Only Co", anchor)

	s, err := h.sessions.Start(ctx, usecase.StartInput{Mode: domain.SessionModeView, Kind: domain.EntityKindCompany, EntityID: company.ID})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = h.sessions.Propose(ctx, usecase.ProposeInput{SessionID: s.ID, Field: domain.FieldName, Value: "Renamed"})
	if !errors.Is(err, domain.ErrReadOnlySession) {
		t.Fatalf("expected read-only error, got %v", err)
	}
}
