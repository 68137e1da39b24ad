package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okPinger() Pinger {
	return PingerFunc(func(ctx context.Context) error { return nil })
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(okPinger(), okPinger())

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	down := PingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name     string
		postgres Pinger
		redis    Pinger
		status   int
		body     string
	}{
		{"ready", okPinger(), okPinger(), http.StatusOK, "ready"},
		{"postgres down", down, okPinger(), http.StatusServiceUnavailable, "postgres unhealthy"},
		{"redis down", okPinger(), down, http.StatusServiceUnavailable, "redis unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.postgres, tt.redis)

			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestHealthHandler_ReadinessHasDeadline(t *testing.T) {
	var hasDeadline bool
	h := NewHealthHandler(PingerFunc(func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}), okPinger())

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.True(t, hasDeadline)
}
