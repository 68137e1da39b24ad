package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/orgconf/internal/adapter/http/dto"
	"github.com/iho/orgconf/internal/domain"
)

// withURLParams attaches chi route parameters to req.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to decode error response %q: %v", body, err)
	}
	return resp
}

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/entities?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/entities?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"session not found", domain.ErrSessionNotFound, http.StatusNotFound},
		{"entity not found", fmt.Errorf("%w: co-9", domain.ErrEntityNotFound), http.StatusNotFound},
		{"read only", domain.ErrReadOnlySession, http.StatusForbidden},
		{"pending confirmation", domain.ErrPendingConfirmation, http.StatusConflict},
		{"stale session", domain.ErrStaleSession, http.StatusConflict},
		{"reset failed", domain.ErrDestructiveResetFailed, http.StatusBadGateway},
		{"oracle unavailable", domain.ErrOracleUnavailable, http.StatusServiceUnavailable},
		{"duplicate name", domain.NewValidationError(domain.FieldName, "duplicate", domain.ErrUniquenessViolation, "already exists"), http.StatusUnprocessableEntity},
		{"postal mismatch", domain.ErrCityMismatch, http.StatusUnprocessableEntity},
		{"invalid mode", domain.ErrInvalidMode, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteDomainErrorCodes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  string
		wantField string
	}{
		{"pending", fmt.Errorf("%w: [financial_year_start]", domain.ErrPendingConfirmation), codePendingConfirmation, ""},
		{"reset", fmt.Errorf("%w: disk full", domain.ErrDestructiveResetFailed), codeResetFailed, ""},
		{"stale", domain.ErrStaleSession, codeStaleSession, ""},
		{"validation", domain.NewValidationError(domain.FieldPostalCode, "city-mismatch", domain.ErrCityMismatch, "560001 is in Bengaluru"), codeValidation, "postal_code"},
		{"other", domain.ErrSessionNotFound, "fallback", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", nil)

			writeDomainError(rr, req, tt.err, "fallback")

			resp := decodeError(t, rr.Body.Bytes())
			if resp.Error != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, resp.Error)
			}
			if resp.Field != tt.wantField {
				t.Fatalf("expected field %q, got %q", tt.wantField, resp.Field)
			}
			if tt.wantField != "" && resp.Fields[tt.wantField] == "" {
				t.Fatalf("expected field message, got %+v", resp.Fields)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		var body dto.AnchorRequest

		if decodeJSON(rr, req, &body, false) {
			t.Fatal("expected decode to fail")
		}
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("validation failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"field":"closing_date"}`))
		var body dto.AnchorRequest

		if decodeJSON(rr, req, &body, false) {
			t.Fatal("expected validation to fail")
		}
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rr.Code)
		}
		if resp := decodeError(t, rr.Body.Bytes()); resp.Fields["field"] == "" {
			t.Fatalf("expected field error, got %+v", resp)
		}
	})

	t.Run("empty body allowed", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		var body dto.SubmitRequest

		if !decodeJSON(rr, req, &body, true) {
			t.Fatalf("expected empty body to be accepted, got %d %s", rr.Code, rr.Body.String())
		}
	})
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	resp := decodeError(t, rr.Body.Bytes())
	if resp.Error != "bad request" || resp.Message != "detail" {
		t.Fatalf("expected error message to propagate, got %+v", resp)
	}
}
