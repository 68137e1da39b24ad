package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/postgres"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to a migrated test database.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := DatabaseURL(t)

	if err := postgres.RunMigrations(dbURL, migrationsPath()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	return &TestDB{Pool: pool, t: t}
}

// migrationsPath finds the migrations from the project root or a test
// package directory.
func migrationsPath() string {
	candidates := []string{
		"internal/infrastructure/postgres/migrations",
		"../../internal/infrastructure/postgres/migrations",
		"../../../internal/infrastructure/postgres/migrations",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return candidates[0]
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE ledger_entries, ledger_balances, ledger_transfers, ledger_accounts CASCADE;
		TRUNCATE TABLE outbox_events, audit_logs CASCADE;
		TRUNCATE TABLE entities CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateTestCompany inserts a company with both fiscal anchors set.
func (db *TestDB) CreateTestCompany(ctx context.Context, name string, anchor domain.Date) *domain.Entity {
	db.t.Helper()

	now := time.Now().UTC()
	id := GenerateID()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO entities (id, kind, name, country, state, city, postal_code,
			currency, financial_year_start, books_beginning_date, created_at, updated_at)
		VALUES ($1, 'company', $2, 'IN', 'KA', 'Bengaluru', '560001',
			'{"symbol":"₹","formal_name":"INR","decimal_places":2}', $3, $3, $4, $4)`,
		id, name, anchor.Time, now)
	if err != nil {
		db.t.Fatalf("failed to create test company: %v", err)
	}

	return &domain.Entity{
		ID:       id,
		Kind:     domain.EntityKindCompany,
		Name:     name,
		Location: domain.StoredLocation{Country: "IN", State: "KA", City: "Bengaluru", PostalCode: "560001"},
		Anchors:  domain.FiscalAnchors{FinancialYearStart: anchor, BooksBeginningDate: anchor},
	}
}

// LedgerSeed describes the rows created by SeedLedger.
type LedgerSeed struct {
	AccountIDs  []string
	TransferIDs []string
}

// SeedLedger creates two accounts and the given number of transfers of amount
// between them, with entries and offsetting balances.
func (db *TestDB) SeedLedger(ctx context.Context, companyID string, transfers int, amount decimal.Decimal) LedgerSeed {
	db.t.Helper()

	seed := LedgerSeed{AccountIDs: []string{GenerateID(), GenerateID()}}

	for i, accountID := range seed.AccountIDs {
		if _, err := db.Pool.Exec(ctx,
			`INSERT INTO ledger_accounts (id, company_id, name, currency) VALUES ($1, $2, $3, 'INR')`,
			accountID, companyID, []string{"cash", "sales"}[i]); err != nil {
			db.t.Fatalf("failed to create ledger account: %v", err)
		}
	}

	total := amount.Mul(decimal.NewFromInt(int64(transfers)))
	for i := 0; i < transfers; i++ {
		transferID := GenerateID()
		seed.TransferIDs = append(seed.TransferIDs, transferID)

		if _, err := db.Pool.Exec(ctx, `
			INSERT INTO ledger_transfers (id, company_id, from_account_id, to_account_id, amount, posted_on)
			VALUES ($1, $2, $3, $4, $5, CURRENT_DATE)`,
			transferID, companyID, seed.AccountIDs[1], seed.AccountIDs[0], amount.String()); err != nil {
			db.t.Fatalf("failed to create ledger transfer: %v", err)
		}
		if _, err := db.Pool.Exec(ctx, `
			INSERT INTO ledger_entries (id, transfer_id, account_id, amount) VALUES
				($1, $3, $4, $6), ($2, $3, $5, -$6::numeric)`,
			GenerateID(), GenerateID(), transferID, seed.AccountIDs[0], seed.AccountIDs[1], amount.String()); err != nil {
			db.t.Fatalf("failed to create ledger entries: %v", err)
		}
	}

	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO ledger_balances (account_id, company_id, balance) VALUES ($1, $3, $4), ($2, $3, -$4::numeric)`,
		seed.AccountIDs[0], seed.AccountIDs[1], companyID, total.String()); err != nil {
		db.t.Fatalf("failed to create ledger balances: %v", err)
	}
	return seed
}

// CountRows returns the number of rows of table that belong to companyID.
// table must be one of the ledger tables.
func (db *TestDB) CountRows(ctx context.Context, table, companyID string) int {
	db.t.Helper()

	query := map[string]string{
		"ledger_accounts":  `SELECT COUNT(*) FROM ledger_accounts WHERE company_id = $1`,
		"ledger_transfers": `SELECT COUNT(*) FROM ledger_transfers WHERE company_id = $1`,
		"ledger_balances":  `SELECT COUNT(*) FROM ledger_balances WHERE company_id = $1`,
		"ledger_entries": `SELECT COUNT(*) FROM ledger_entries e
			JOIN ledger_transfers t ON t.id = e.transfer_id WHERE t.company_id = $1`,
	}[table]
	if query == "" {
		db.t.Fatalf("unknown table %q", table)
	}

	var n int
	if err := db.Pool.QueryRow(ctx, query, companyID).Scan(&n); err != nil {
		db.t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
