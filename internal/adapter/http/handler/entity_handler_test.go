package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/orgconf/internal/adapter/http/dto"
	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

type entityServiceStub struct {
	getFn     func(ctx context.Context, id string) (*domain.Entity, error)
	listFn    func(ctx context.Context, input usecase.ListEntitiesInput) ([]*domain.Entity, error)
	historyFn func(ctx context.Context, id string, limit, offset int) ([]*domain.AuditLog, error)
}

func (s *entityServiceStub) GetEntity(ctx context.Context, id string) (*domain.Entity, error) {
	return s.getFn(ctx, id)
}

func (s *entityServiceStub) ListEntities(ctx context.Context, input usecase.ListEntitiesInput) ([]*domain.Entity, error) {
	return s.listFn(ctx, input)
}

func (s *entityServiceStub) History(ctx context.Context, id string, limit, offset int) ([]*domain.AuditLog, error) {
	return s.historyFn(ctx, id, limit, offset)
}

func TestEntityHandler_List(t *testing.T) {
	var captured usecase.ListEntitiesInput
	h := NewEntityHandler(&entityServiceStub{
		listFn: func(ctx context.Context, input usecase.ListEntitiesInput) ([]*domain.Entity, error) {
			captured = input
			return []*domain.Entity{
				{ID: "br-1", Kind: domain.EntityKindBranch, ParentID: "co-1", Name: "North"},
				{ID: "br-2", Kind: domain.EntityKindBranch, ParentID: "co-1", Name: "South"},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/entities?kind=branch&parent_id=co-1&limit=5&offset=10", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Kind != domain.EntityKindBranch || captured.ParentID != "co-1" || captured.Limit != 5 || captured.Offset != 10 {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.ListEntitiesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 || resp.Entities[1].Name != "South" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEntityHandler_ListInvalidKind(t *testing.T) {
	h := NewEntityHandler(&entityServiceStub{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/entities?kind=warehouse", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntityHandler_Get(t *testing.T) {
	fys, _ := domain.ParseDate("2025-04-01")
	h := NewEntityHandler(&entityServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Entity, error) {
			if id != "co-1" {
				return nil, domain.ErrEntityNotFound
			}
			return &domain.Entity{
				ID:      "co-1",
				Kind:    domain.EntityKindCompany,
				Name:    "Acme",
				Anchors: domain.FiscalAnchors{FinancialYearStart: fys, BooksBeginningDate: fys},
			}, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/entities/co-1", nil), map[string]string{"id": "co-1"})
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.EntityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Anchors == nil || !resp.Anchors.FinancialYearStart.Equal(fys) {
		t.Fatalf("expected anchors in response, got %+v", resp.Anchors)
	}

	req = withURLParams(httptest.NewRequest(http.MethodGet, "/entities/missing", nil), map[string]string{"id": "missing"})
	rec = httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEntityHandler_History(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	h := NewEntityHandler(&entityServiceStub{
		historyFn: func(ctx context.Context, id string, limit, offset int) ([]*domain.AuditLog, error) {
			if limit != 20 || offset != 0 {
				t.Fatalf("expected default pagination, got %d/%d", limit, offset)
			}
			return []*domain.AuditLog{{
				ID:         "log-1",
				Actor:      "alice",
				Action:     string(domain.AuditActionCompanyAnchorReset),
				ResourceID: id,
				Status:     "success",
				AfterState: domain.JSON{"transactions_deleted": float64(3)},
				CreatedAt:  now,
			}}, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/entities/co-1/history", nil), map[string]string{"id": "co-1"})
	rec := httptest.NewRecorder()
	h.History(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.EntityID != "co-1" || len(resp.Entries) != 1 || resp.Entries[0].Action != "company.anchor_reset" {
		t.Fatalf("unexpected history: %+v", resp)
	}
}
