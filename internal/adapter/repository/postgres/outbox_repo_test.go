package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/orgconf/internal/domain"
)

var outboxColumns = []string{
	"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published",
}

func TestOutboxRepositoryCreate(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tx := beginMockTx(t, pool)
	pool.ExpectExec("INSERT INTO outbox_events").
		WithArgs(
			"ev-1", "co-1", domain.AggregateTypeCompany, domain.EventTypeCompanyCreated,
			[]byte(`{"entity_id":"co-1","name":"Acme"}`),
			timeToPgTimestamptz(now),
			false,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), tx, &domain.OutboxEvent{
		ID:            "ev-1",
		AggregateID:   "co-1",
		AggregateType: domain.AggregateTypeCompany,
		EventType:     domain.EventTypeCompanyCreated,
		Payload:       map[string]any{"entity_id": "co-1", "name": "Acme"},
		CreatedAt:     now,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	assertExpectations(t, pool)
}

func TestOutboxRepositoryGetUnpublished(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pool.ExpectQuery("WHERE published = FALSE").
		WithArgs(int32(50)).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow("ev-1", "co-1", "company", "company.created",
				[]byte(`{"entity_id":"co-1"}`), timeToPgTimestamptz(now), pgtype.Timestamptz{}, false).
			AddRow("ev-2", "br-1", "branch", "branch.created",
				[]byte(`{"entity_id":"br-1","parent_id":"co-1"}`), timeToPgTimestamptz(now.Add(time.Second)), pgtype.Timestamptz{}, false))

	events, err := repo.GetUnpublished(context.Background(), 50)
	if err != nil {
		t.Fatalf("get unpublished failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].PublishedAt != nil || events[0].Published {
		t.Fatalf("expected unpublished event, got %+v", events[0])
	}
	if events[1].Payload["parent_id"] != "co-1" {
		t.Fatalf("unexpected payload: %+v", events[1].Payload)
	}
	if !events[0].CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at: %s", events[0].CreatedAt)
	}

	assertExpectations(t, pool)
}

func TestOutboxRepositoryGetByAggregate(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool, nil)
	published := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)

	pool.ExpectQuery("WHERE aggregate_type = \\$1 AND aggregate_id = \\$2").
		WithArgs("company", "co-1", int32(10), int32(0)).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow("ev-3", "co-1", "company", "company.dependent_data_reset",
				[]byte(`{"company_id":"co-1"}`), timeToPgTimestamptz(published.Add(-time.Minute)),
				timeToPgTimestamptz(published), true))

	events, err := repo.GetByAggregate(context.Background(), "company", "co-1", 10, 0)
	if err != nil {
		t.Fatalf("get by aggregate failed: %v", err)
	}

	if len(events) != 1 || events[0].PublishedAt == nil || !events[0].PublishedAt.Equal(published) {
		t.Fatalf("unexpected events: %+v", events)
	}

	assertExpectations(t, pool)
}

func TestOutboxRepositoryMarkPublished(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pool.ExpectExec("UPDATE outbox_events SET published = TRUE").
		WithArgs("ev-1", timeToPgTimestamptz(now)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.MarkPublished(context.Background(), "ev-1", now); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}

	assertExpectations(t, pool)
}
