package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
	"github.com/iho/orgconf/internal/usecase"
)

var entityColumns = []string{
	"id", "kind", "parent_id", "name", "fields", "country", "state", "city", "postal_code",
	"currency", "financial_year_start", "books_beginning_date", "created_at", "updated_at",
}

func beginMockTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBegin()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	return tx
}

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func testCompany(t *testing.T) *domain.Entity {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	currency := domain.DeriveCurrency("IN")
	return &domain.Entity{
		ID:     "co-1",
		Kind:   domain.EntityKindCompany,
		Name:   "Acme",
		Fields: map[string]string{"email": "books@acme.test"},
		Location: domain.StoredLocation{
			Country: "IN", State: "KA", City: "Bengaluru", PostalCode: "560001",
		},
		Currency:  &currency,
		Anchors:   domain.FiscalAnchors{FinancialYearStart: mustDate(t, "2024-04-01")},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestEntityRepositoryCreateTx(t *testing.T) {
	pool := newMockPool(t)
	repo := newEntityRepository(pool, nil)
	company := testCompany(t)

	tx := beginMockTx(t, pool)
	pool.ExpectExec("INSERT INTO entities").
		WithArgs(
			"co-1", "company", "", "Acme", []byte(`{"email":"books@acme.test"}`),
			"IN", "KA", "Bengaluru", "560001",
			pgxmock.AnyArg(),
			pgtype.Date{Time: company.Anchors.FinancialYearStart.Time, Valid: true},
			pgtype.Date{},
			timeToPgTimestamptz(company.CreatedAt),
			timeToPgTimestamptz(company.UpdatedAt),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectCommit()

	if err := repo.CreateTx(context.Background(), tx, company); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, pool)
}

func TestEntityRepositoryCreateTxUniqueViolation(t *testing.T) {
	pool := newMockPool(t)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	repo := newEntityRepository(pool, m)

	branch := &domain.Entity{ID: "br-2", Kind: domain.EntityKindBranch, ParentID: "co-1", Name: "North"}

	tx := beginMockTx(t, pool)
	pool.ExpectExec("INSERT INTO entities").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "idx_entities_branch_name"})

	err := repo.CreateTx(context.Background(), tx, branch)
	if !errors.Is(err, domain.ErrUniquenessViolation) {
		t.Fatalf("expected ErrUniquenessViolation, got %v", err)
	}

	if v := testutil.ToFloat64(m.DBErrors.WithLabelValues("insert")); v != 0 {
		t.Fatalf("uniqueness violations must not count as db errors, got %v", v)
	}
	if v := testutil.ToFloat64(m.DBQueries.WithLabelValues("insert", "entities")); v != 1 {
		t.Fatalf("expected one insert, got %v", v)
	}
}

func TestEntityRepositoryUpdateTxNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := newEntityRepository(pool, nil)

	tx := beginMockTx(t, pool)
	pool.ExpectExec("UPDATE entities").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateTx(context.Background(), tx, testCompany(t))
	if !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestEntityRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := newEntityRepository(pool, nil)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := pgxmock.NewRows(entityColumns).AddRow(
		"co-1", "company", "", "Acme",
		[]byte(`{"email":"books@acme.test"}`),
		"India", "Karnataka", "Bengaluru", "560001",
		[]byte(`{"symbol":"₹","formal_name":"INR","decimal_places":2}`),
		pgtype.Date{Time: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		pgtype.Date{},
		timeToPgTimestamptz(now),
		timeToPgTimestamptz(now),
	)
	pool.ExpectQuery("FROM entities WHERE id").WithArgs("co-1").WillReturnRows(rows)

	e, err := repo.GetByID(context.Background(), "co-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if e.Kind != domain.EntityKindCompany || e.Name != "Acme" {
		t.Fatalf("unexpected entity: %+v", e)
	}
	if e.Location.Country != "India" || e.Location.State != "Karnataka" {
		t.Fatalf("stored location must be returned verbatim, got %+v", e.Location)
	}
	if e.Currency == nil || e.Currency.FormalName != "INR" || e.Currency.DecimalPlaces != 2 {
		t.Fatalf("unexpected currency: %+v", e.Currency)
	}
	if got := e.Anchors.FinancialYearStart.String(); got != "2024-04-01" {
		t.Fatalf("unexpected financial year start: %s", got)
	}
	if !e.Anchors.BooksBeginningDate.IsZero() {
		t.Fatalf("expected unset books beginning date, got %s", e.Anchors.BooksBeginningDate)
	}
	if e.Fields["email"] != "books@acme.test" {
		t.Fatalf("unexpected fields: %+v", e.Fields)
	}

	assertExpectations(t, pool)
}

func TestEntityRepositoryGetByIDWithoutCurrency(t *testing.T) {
	pool := newMockPool(t)
	repo := newEntityRepository(pool, nil)

	rows := pgxmock.NewRows(entityColumns).AddRow(
		"br-1", "branch", "co-1", "North", []byte(`{}`),
		"", "", "", "",
		nil, pgtype.Date{}, pgtype.Date{},
		timeToPgTimestamptz(time.Now()), timeToPgTimestamptz(time.Now()),
	)
	pool.ExpectQuery("FROM entities WHERE id").WithArgs("br-1").WillReturnRows(rows)

	e, err := repo.GetByID(context.Background(), "br-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if e.Currency != nil {
		t.Fatalf("expected no stored currency, got %+v", e.Currency)
	}
	if e.ParentID != "co-1" {
		t.Fatalf("unexpected parent: %q", e.ParentID)
	}
}

func TestEntityRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := newEntityRepository(pool, nil)

	pool.ExpectQuery("FROM entities WHERE id").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestEntityRepositoryListSiblingNames(t *testing.T) {
	pool := newMockPool(t)
	repo := newEntityRepository(pool, nil)

	pool.ExpectQuery("SELECT id, name FROM entities").
		WithArgs("branch", "co-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow("br-1", "North").
			AddRow("br-2", "South"))

	names, err := repo.ListSiblingNames(context.Background(), domain.EntityKindBranch, "co-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(names) != 2 || names[1] != (domain.SiblingName{ID: "br-2", Name: "South"}) {
		t.Fatalf("unexpected names: %+v", names)
	}
}

func TestEntityRepositoryUpdateAnchorTx(t *testing.T) {
	updatedAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		field   domain.AnchorField
		query   string
		rows    int64
		wantErr error
	}{
		{"financial year start", domain.AnchorFinancialYearStart, "SET financial_year_start", 1, nil},
		{"books beginning date", domain.AnchorBooksBeginningDate, "SET books_beginning_date", 1, nil},
		{"not a company", domain.AnchorFinancialYearStart, "SET financial_year_start", 0, domain.ErrEntityNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			repo := newEntityRepository(pool, nil)
			value := mustDate(t, "2025-04-01")

			tx := beginMockTx(t, pool)
			pool.ExpectExec(tt.query).
				WithArgs("co-1", pgtype.Date{Time: value.Time, Valid: true}, timeToPgTimestamptz(updatedAt)).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))

			err := repo.UpdateAnchorTx(context.Background(), tx, "co-1", tt.field, value, updatedAt)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			assertExpectations(t, pool)
		})
	}
}

func TestEntityRepositoryUpdateAnchorTxUnknownField(t *testing.T) {
	pool := newMockPool(t)
	repo := newEntityRepository(pool, nil)
	tx := beginMockTx(t, pool)

	err := repo.UpdateAnchorTx(context.Background(), tx, "co-1", domain.AnchorField("closing_date"), domain.Date{}, time.Now())
	if !errors.Is(err, domain.ErrUnsupportedField) {
		t.Fatalf("expected ErrUnsupportedField, got %v", err)
	}
}
