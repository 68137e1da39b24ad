package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/orgconf/internal/adapter/http/dto"
	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

// EntityService defines the behavior needed by EntityHandler.
type EntityService interface {
	GetEntity(ctx context.Context, id string) (*domain.Entity, error)
	ListEntities(ctx context.Context, input usecase.ListEntitiesInput) ([]*domain.Entity, error)
	History(ctx context.Context, id string, limit, offset int) ([]*domain.AuditLog, error)
}

// EntityHandler handles read access to companies and branches.
type EntityHandler struct {
	entityUC EntityService
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityUC EntityService) *EntityHandler {
	return &EntityHandler{entityUC: entityUC}
}

// List lists entities, optionally filtered by ?kind= and ?parent_id=.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	input := usecase.ListEntitiesInput{
		ParentID: r.URL.Query().Get("parent_id"),
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		k, err := domain.ParseEntityKind(kind)
		if err != nil {
			writeDomainError(w, r, err, "invalid kind")
			return
		}
		input.Kind = k
	}

	entities, err := h.entityUC.ListEntities(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, err, "failed to list entities")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntitiesResponse{
		Entities: dto.EntitiesFromDomain(entities),
		Total:    int64(len(entities)),
	})
}

// Get retrieves an entity by ID.
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entity ID", "")
		return
	}

	entity, err := h.entityUC.GetEntity(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "failed to get entity")
		return
	}

	writeJSON(w, http.StatusOK, dto.EntityFromDomain(entity))
}

// History returns the audit trail of an entity.
func (h *EntityHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	logs, err := h.entityUC.History(r.Context(), id, parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, err, "failed to get history")
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryResponse{
		EntityID: id,
		Entries:  dto.AuditLogsFromDomain(logs),
	})
}
