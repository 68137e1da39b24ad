//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/iho/orgconf/internal/adapter/oracle"
	"github.com/iho/orgconf/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/orgconf/internal/adapter/repository/redis"
	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
	"github.com/iho/orgconf/tests/testutil"
)

type harness struct {
	db       *testutil.TestDB
	entities *postgres.EntityRepository
	outbox   *postgres.OutboxRepository
	audit    *postgres.AuditRepository
	sessions *usecase.SessionUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)
	db.TruncateAll(context.Background())

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locations, err := oracle.NewMemoryOracle()
	if err != nil {
		t.Fatalf("failed to load location dataset: %v", err)
	}

	pool := db.Pool
	txManager := postgres.NewTxManager(pool)
	entityRepo := postgres.NewEntityRepository(pool, nil)
	dependentRepo := postgres.NewDependentDataRepository(pool, nil)
	outboxRepo := postgres.NewOutboxRepository(pool, nil)
	auditRepo := postgres.NewAuditRepository(pool, nil)
	idGen := postgres.NewULIDGenerator()

	resolver := usecase.NewLocationResolver(locations, "IN", nil)
	guard := usecase.NewAnchorGuard(txManager, dependentRepo, dependentRepo, entityRepo, outboxRepo, auditRepo, idGen, nil)
	config := usecase.NewEntityConfigUseCase(resolver, guard, usecase.NewUniquenessValidator(), idGen)
	sessions := usecase.NewSessionUseCase(
		config, resolver, redisRepo.NewSessionStore(client, nil), entityRepo, txManager, outboxRepo, auditRepo, idGen, 0, nil,
	).WithRetrier(postgres.NewRetrier(nil))

	return &harness{
		db:       db,
		entities: entityRepo,
		outbox:   outboxRepo,
		audit:    auditRepo,
		sessions: sessions,
	}
}

type fieldStep struct {
	field domain.FieldKey
	value string
}

// fill proposes each step in order and fails the test on the first error.
func (h *harness) fill(t *testing.T, sessionID string, steps ...fieldStep) {
	t.Helper()

	for _, step := range steps {
		_, err := h.sessions.Propose(context.Background(), usecase.ProposeInput{
			SessionID: sessionID,
			Field:     step.field,
			Value:     step.value,
		})
		if err != nil {
			t.Fatalf("propose %s=%q: %v", step.field, step.value, err)
		}
	}
}
