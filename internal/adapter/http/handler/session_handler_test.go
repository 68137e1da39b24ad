package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/orgconf/internal/adapter/http/dto"
	"github.com/iho/orgconf/internal/adapter/http/middleware"
	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

type sessionServiceStub struct {
	startFn      func(ctx context.Context, input usecase.StartInput) (*domain.SessionState, error)
	getFn        func(ctx context.Context, id string) (*domain.SessionState, error)
	proposeFn    func(ctx context.Context, input usecase.ProposeInput) (*domain.SessionState, error)
	confirmFn    func(ctx context.Context, input usecase.AnchorInput) (*domain.SessionState, domain.ResetResult, error)
	cancelFn     func(ctx context.Context, input usecase.AnchorInput) (*domain.SessionState, error)
	checkNameFn  func(ctx context.Context, sessionID string) (usecase.UniquenessResult, error)
	candidatesFn func(ctx context.Context, sessionID, list, q string) ([]usecase.Candidate, error)
	submitFn     func(ctx context.Context, input usecase.SubmitInput) (*domain.Entity, error)
	closeFn      func(ctx context.Context, sessionID string) error
}

func (s *sessionServiceStub) Start(ctx context.Context, input usecase.StartInput) (*domain.SessionState, error) {
	return s.startFn(ctx, input)
}

func (s *sessionServiceStub) Get(ctx context.Context, id string) (*domain.SessionState, error) {
	return s.getFn(ctx, id)
}

func (s *sessionServiceStub) Propose(ctx context.Context, input usecase.ProposeInput) (*domain.SessionState, error) {
	return s.proposeFn(ctx, input)
}

func (s *sessionServiceStub) Confirm(ctx context.Context, input usecase.AnchorInput) (*domain.SessionState, domain.ResetResult, error) {
	return s.confirmFn(ctx, input)
}

func (s *sessionServiceStub) Cancel(ctx context.Context, input usecase.AnchorInput) (*domain.SessionState, error) {
	return s.cancelFn(ctx, input)
}

func (s *sessionServiceStub) CheckName(ctx context.Context, sessionID string) (usecase.UniquenessResult, error) {
	return s.checkNameFn(ctx, sessionID)
}

func (s *sessionServiceStub) Candidates(ctx context.Context, sessionID, list, q string) ([]usecase.Candidate, error) {
	return s.candidatesFn(ctx, sessionID, list, q)
}

func (s *sessionServiceStub) Submit(ctx context.Context, input usecase.SubmitInput) (*domain.Entity, error) {
	return s.submitFn(ctx, input)
}

func (s *sessionServiceStub) Close(ctx context.Context, sessionID string) error {
	return s.closeFn(ctx, sessionID)
}

func companySession() *domain.SessionState {
	return &domain.SessionState{
		ID:       "sess-1",
		Mode:     domain.SessionModeCreate,
		Kind:     domain.EntityKindCompany,
		Name:     "Acme",
		Revision: 1,
	}
}

func TestSessionHandler_Start(t *testing.T) {
	var captured usecase.StartInput
	h := NewSessionHandler(&sessionServiceStub{
		startFn: func(ctx context.Context, input usecase.StartInput) (*domain.SessionState, error) {
			captured = input
			return companySession(), nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"mode":"create","kind":"company"}`))
	rec := httptest.NewRecorder()

	h.Start(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Mode != domain.SessionModeCreate || captured.Kind != domain.EntityKindCompany {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "sess-1" || resp.Anchors == nil {
		t.Fatalf("unexpected session: %+v", resp)
	}
}

func TestSessionHandler_StartRejectsInvalidRequest(t *testing.T) {
	h := NewSessionHandler(&sessionServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"mode":"edit","kind":"company"}`))
	rec := httptest.NewRecorder()

	h.Start(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if resp := decodeError(t, rec.Body.Bytes()); resp.Fields["entity_id"] == "" {
		t.Fatalf("expected entity_id error, got %+v", resp)
	}
}

func TestSessionHandler_ProposeValidationError(t *testing.T) {
	h := NewSessionHandler(&sessionServiceStub{
		proposeFn: func(ctx context.Context, input usecase.ProposeInput) (*domain.SessionState, error) {
			if input.SessionID != "sess-1" || input.Field != domain.FieldPostalCode {
				t.Fatalf("unexpected input: %+v", input)
			}
			return nil, domain.NewValidationError(domain.FieldPostalCode, "malformed", domain.ErrMalformedInput, "postal code must be 6 digits")
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/sessions/sess-1/fields", strings.NewReader(`{"field":"postal_code","value":"12"}`))
	req = withURLParams(req, map[string]string{"id": "sess-1"})
	rec := httptest.NewRecorder()

	h.Propose(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	resp := decodeError(t, rec.Body.Bytes())
	if resp.Field != "postal_code" || resp.Reason != "malformed" {
		t.Fatalf("unexpected error body: %+v", resp)
	}
}

func TestSessionHandler_ConfirmPassesActor(t *testing.T) {
	fys, _ := domain.ParseDate("2026-04-01")

	var captured usecase.AnchorInput
	h := NewSessionHandler(&sessionServiceStub{
		confirmFn: func(ctx context.Context, input usecase.AnchorInput) (*domain.SessionState, domain.ResetResult, error) {
			captured = input
			return companySession(), domain.ResetResult{
				Status: domain.GuardStatusApplied,
				Field:  domain.AnchorFinancialYearStart,
				Value:  fys,
				Report: domain.ResetReport{TransactionsDeleted: 4},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/sessions/sess-1/anchors/confirm",
		strings.NewReader(`{"field":"financial_year_start","revision":3}`))
	req = withURLParams(req, map[string]string{"id": "sess-1"})
	req = req.WithContext(middleware.WithActor(req.Context(), "alice"))
	rec := httptest.NewRecorder()

	h.Confirm(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Actor != "alice" || captured.Field != domain.AnchorFinancialYearStart || captured.Revision == nil || *captured.Revision != 3 {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.ConfirmResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result.Status != domain.GuardStatusApplied || resp.Result.Report.TransactionsDeleted != 4 {
		t.Fatalf("unexpected result: %+v", resp.Result)
	}
}

func TestSessionHandler_ConfirmResetFailure(t *testing.T) {
	h := NewSessionHandler(&sessionServiceStub{
		confirmFn: func(ctx context.Context, input usecase.AnchorInput) (*domain.SessionState, domain.ResetResult, error) {
			return companySession(), domain.ResetResult{}, fmt.Errorf("%w: disk full", domain.ErrDestructiveResetFailed)
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"field":"books_beginning_date"}`))
	req = withURLParams(req, map[string]string{"id": "sess-1"})
	rec := httptest.NewRecorder()

	h.Confirm(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if resp := decodeError(t, rec.Body.Bytes()); resp.Error != "destructive-reset-failed" {
		t.Fatalf("unexpected error code: %+v", resp)
	}
}

func TestSessionHandler_SubmitPendingConfirmation(t *testing.T) {
	h := NewSessionHandler(&sessionServiceStub{
		submitFn: func(ctx context.Context, input usecase.SubmitInput) (*domain.Entity, error) {
			return nil, fmt.Errorf("%w: [financial_year_start]", domain.ErrPendingConfirmation)
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/sessions/sess-1/submit", http.NoBody)
	req = withURLParams(req, map[string]string{"id": "sess-1"})
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if resp := decodeError(t, rec.Body.Bytes()); resp.Error != "pending-confirmation" {
		t.Fatalf("unexpected error code: %+v", resp)
	}
}

func TestSessionHandler_Submit(t *testing.T) {
	h := NewSessionHandler(&sessionServiceStub{
		submitFn: func(ctx context.Context, input usecase.SubmitInput) (*domain.Entity, error) {
			if input.SessionID != "sess-1" {
				t.Fatalf("unexpected session: %s", input.SessionID)
			}
			return &domain.Entity{ID: "br-1", Kind: domain.EntityKindBranch, ParentID: "co-1", Name: "North"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/sessions/sess-1/submit", strings.NewReader(`{"revision":5}`))
	req = withURLParams(req, map[string]string{"id": "sess-1"})
	rec := httptest.NewRecorder()

	h.Submit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.EntityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "br-1" || resp.Anchors != nil {
		t.Fatalf("unexpected entity: %+v", resp)
	}
}

func TestSessionHandler_CandidatesAndCheckName(t *testing.T) {
	h := NewSessionHandler(&sessionServiceStub{
		candidatesFn: func(ctx context.Context, sessionID, list, q string) ([]usecase.Candidate, error) {
			if list != "cities" || q != "beng" {
				t.Fatalf("unexpected list/q: %s %s", list, q)
			}
			return []usecase.Candidate{{Code: "Bengaluru", Label: "Bengaluru"}}, nil
		},
		checkNameFn: func(ctx context.Context, sessionID string) (usecase.UniquenessResult, error) {
			return usecase.UniquenessResult{IsValid: false, Message: usecase.MessageNameExists}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/sessions/sess-1/candidates/cities?q=beng", nil)
	req = withURLParams(req, map[string]string{"id": "sess-1", "list": "cities"})
	rec := httptest.NewRecorder()
	h.Candidates(rec, req)

	var candidates dto.CandidatesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &candidates); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(candidates.Candidates) != 1 || candidates.List != "cities" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}

	req = httptest.NewRequest(http.MethodGet, "/sessions/sess-1/name-check", nil)
	req = withURLParams(req, map[string]string{"id": "sess-1"})
	rec = httptest.NewRecorder()
	h.CheckName(rec, req)

	var uniq dto.UniquenessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &uniq); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if uniq.IsValid || uniq.Message != "already exists" {
		t.Fatalf("unexpected uniqueness result: %+v", uniq)
	}
}

func TestSessionHandler_GetAndClose(t *testing.T) {
	closed := ""
	h := NewSessionHandler(&sessionServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.SessionState, error) {
			return nil, domain.ErrSessionNotFound
		},
		closeFn: func(ctx context.Context, sessionID string) error {
			closed = sessionID
			return nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/sessions/gone", nil), map[string]string{"id": "gone"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	req = withURLParams(httptest.NewRequest(http.MethodDelete, "/sessions/sess-1", nil), map[string]string{"id": "sess-1"})
	rec = httptest.NewRecorder()
	h.Close(rec, req)
	if rec.Code != http.StatusNoContent || closed != "sess-1" {
		t.Fatalf("expected 204 and close of sess-1, got %d %q", rec.Code, closed)
	}
}

func TestSessionHandler_CancelReadOnly(t *testing.T) {
	h := NewSessionHandler(&sessionServiceStub{
		cancelFn: func(ctx context.Context, input usecase.AnchorInput) (*domain.SessionState, error) {
			return nil, domain.ErrReadOnlySession
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"field":"financial_year_start"}`))
	req = withURLParams(req, map[string]string{"id": "sess-1"})
	rec := httptest.NewRecorder()

	h.Cancel(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
