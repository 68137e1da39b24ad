package usecase

import (
	"context"
	"time"

	"github.com/iho/orgconf/internal/domain"
)

// LocationOracle is the read-only reference data provider. Implementations
// may return empty or partial results.
type LocationOracle interface {
	GetCountries(ctx context.Context) ([]domain.Country, error)
	GetStates(ctx context.Context, countryCode string) ([]domain.State, error)
	GetCities(ctx context.Context, countryCode, stateCode string) ([]domain.City, error)
	SearchPostalByCity(ctx context.Context, cityName string) ([]domain.PostalRecord, error)
	SearchPostalByCode(ctx context.Context, code string) ([]domain.PostalRecord, error)
}

// DependentDataChecker reports whether records computed relative to a
// company's fiscal anchors exist.
type DependentDataChecker interface {
	HasTransactions(ctx context.Context, entityID string) (bool, error)
	HasMasterRecords(ctx context.Context, entityID string) (bool, error)
}

// DependentDataResetter deletes all dependent data of a company.
type DependentDataResetter interface {
	ResetDependentData(ctx context.Context, tx Transaction, entityID string) (domain.ResetReport, error)
}

// EntityRepository defines data access for companies and branches.
type EntityRepository interface {
	CreateTx(ctx context.Context, tx Transaction, entity *domain.Entity) error
	UpdateTx(ctx context.Context, tx Transaction, entity *domain.Entity) error
	GetByID(ctx context.Context, id string) (*domain.Entity, error)
	List(ctx context.Context, kind domain.EntityKind, parentID string, limit, offset int) ([]*domain.Entity, error)
	ListSiblingNames(ctx context.Context, kind domain.EntityKind, parentID string) ([]domain.SiblingName, error)
	UpdateAnchorTx(ctx context.Context, tx Transaction, id string, field domain.AnchorField, value domain.Date, updatedAt time.Time) error
}

// SessionStore persists entity-edit sessions.
type SessionStore interface {
	Create(ctx context.Context, session *domain.SessionState, ttl time.Duration) error
	Get(ctx context.Context, id string) (*domain.SessionState, error)
	// Save stores session only if the stored revision equals expectedRevision,
	// otherwise it returns domain.ErrStaleSession.
	Save(ctx context.Context, session *domain.SessionState, expectedRevision int64, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops key so the request can be retried.
	Release(ctx context.Context, key string) error
}
