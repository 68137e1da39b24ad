package usecase

import (
	"context"

	"github.com/iho/orgconf/internal/domain"
)

// EntityUseCase handles read access to companies and branches.
type EntityUseCase struct {
	entityRepo EntityRepository
	auditRepo  AuditRepository
}

// NewEntityUseCase creates a new EntityUseCase.
func NewEntityUseCase(entityRepo EntityRepository, auditRepo AuditRepository) *EntityUseCase {
	return &EntityUseCase{
		entityRepo: entityRepo,
		auditRepo:  auditRepo,
	}
}

// GetEntity retrieves an entity by ID.
func (uc *EntityUseCase) GetEntity(ctx context.Context, id string) (*domain.Entity, error) {
	return uc.entityRepo.GetByID(ctx, id)
}

// ListEntitiesInput represents input for listing entities.
type ListEntitiesInput struct {
	Kind     domain.EntityKind
	ParentID string
	Limit    int
	Offset   int
}

// ListEntities lists entities with pagination.
func (uc *EntityUseCase) ListEntities(ctx context.Context, input ListEntitiesInput) ([]*domain.Entity, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	return uc.entityRepo.List(ctx, input.Kind, input.ParentID, input.Limit, input.Offset)
}

// History returns the audit trail of an entity, newest first.
func (uc *EntityUseCase) History(ctx context.Context, id string, limit, offset int) ([]*domain.AuditLog, error) {
	e, err := uc.entityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	limit, offset, _ = domain.ValidatePagination(limit, offset)

	return uc.auditRepo.List(ctx, domain.AuditFilter{
		ResourceType: string(e.Kind),
		ResourceID:   e.ID,
		Limit:        limit,
		Offset:       offset,
	})
}
