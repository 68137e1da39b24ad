package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/orgconf/internal/adapter/http/dto"
	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

// SessionService defines the behavior needed by SessionHandler.
type SessionService interface {
	Start(ctx context.Context, input usecase.StartInput) (*domain.SessionState, error)
	Get(ctx context.Context, id string) (*domain.SessionState, error)
	Propose(ctx context.Context, input usecase.ProposeInput) (*domain.SessionState, error)
	Confirm(ctx context.Context, input usecase.AnchorInput) (*domain.SessionState, domain.ResetResult, error)
	Cancel(ctx context.Context, input usecase.AnchorInput) (*domain.SessionState, error)
	CheckName(ctx context.Context, sessionID string) (usecase.UniquenessResult, error)
	Candidates(ctx context.Context, sessionID, list, q string) ([]usecase.Candidate, error)
	Submit(ctx context.Context, input usecase.SubmitInput) (*domain.Entity, error)
	Close(ctx context.Context, sessionID string) error
}

// SessionHandler handles entity-edit session requests.
type SessionHandler struct {
	sessionUC SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionUC SessionService) *SessionHandler {
	return &SessionHandler{sessionUC: sessionUC}
}

// Start opens a session.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartSessionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	s, err := h.sessionUC.Start(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, err, "failed to start session")
		return
	}

	writeJSON(w, http.StatusCreated, dto.SessionFromDomain(s))
}

// Get returns a session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessionUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionFromDomain(s))
}

// Propose applies one field edit.
func (h *SessionHandler) Propose(w http.ResponseWriter, r *http.Request) {
	var req dto.ProposeFieldRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	s, err := h.sessionUC.Propose(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, r, err, "failed to update field")
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionFromDomain(s))
}

// Confirm executes a pending anchor change and its destructive reset.
func (h *SessionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req dto.AnchorRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	actor, requestID := requestMeta(r)
	s, result, err := h.sessionUC.Confirm(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id"), actor, requestID))
	if err != nil {
		writeDomainError(w, r, err, "failed to confirm change")
		return
	}

	writeJSON(w, http.StatusOK, dto.ConfirmResponse{
		Session: dto.SessionFromDomain(s),
		Result:  result,
	})
}

// Cancel discards a pending anchor change.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req dto.AnchorRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	actor, requestID := requestMeta(r)
	s, err := h.sessionUC.Cancel(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id"), actor, requestID))
	if err != nil {
		writeDomainError(w, r, err, "failed to cancel change")
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionFromDomain(s))
}

// CheckName reports whether the session's name is unique among siblings.
func (h *SessionHandler) CheckName(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionUC.CheckName(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "failed to check name")
		return
	}

	writeJSON(w, http.StatusOK, dto.UniquenessFromUseCase(result))
}

// Candidates lists the options of a selection widget, filtered by ?q=.
func (h *SessionHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	list := chi.URLParam(r, "list")

	candidates, err := h.sessionUC.Candidates(r.Context(), chi.URLParam(r, "id"), list, r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, r, err, "failed to list candidates")
		return
	}

	if candidates == nil {
		candidates = []usecase.Candidate{}
	}

	writeJSON(w, http.StatusOK, dto.CandidatesResponse{List: list, Candidates: candidates})
}

// Submit persists the session's entity and closes the session.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	actor, requestID := requestMeta(r)
	entity, err := h.sessionUC.Submit(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id"), actor, requestID))
	if err != nil {
		writeDomainError(w, r, err, "failed to submit session")
		return
	}

	writeJSON(w, http.StatusOK, dto.EntityFromDomain(entity))
}

// Close discards a session without saving.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionUC.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err, "failed to close session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
