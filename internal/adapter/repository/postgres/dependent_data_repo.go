package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
	"github.com/iho/orgconf/internal/infrastructure/postgres/generated"
	"github.com/iho/orgconf/internal/usecase"
)

// DependentDataRepository implements usecase.DependentDataChecker and
// usecase.DependentDataResetter over the ledger tables. Ledger accounts are
// the master records; transfers and their entries are the transactions.
type DependentDataRepository struct {
	queries *generated.Queries
	metrics *metrics.Metrics
}

// NewDependentDataRepository creates a new DependentDataRepository.
func NewDependentDataRepository(pool *pgxpool.Pool, m *metrics.Metrics) *DependentDataRepository {
	return newDependentDataRepository(pool, m)
}

func newDependentDataRepository(db generated.DBTX, m *metrics.Metrics) *DependentDataRepository {
	return &DependentDataRepository{
		queries: generated.New(db),
		metrics: m,
	}
}

// HasTransactions reports whether the company has posted transfers.
func (r *DependentDataRepository) HasTransactions(ctx context.Context, entityID string) (_ bool, err error) {
	defer observe(r.metrics, "exists", "ledger_transfers", time.Now(), &err)

	return r.queries.HasLedgerTransfers(ctx, entityID)
}

// HasMasterRecords reports whether the company has ledger accounts.
func (r *DependentDataRepository) HasMasterRecords(ctx context.Context, entityID string) (_ bool, err error) {
	defer observe(r.metrics, "exists", "ledger_accounts", time.Now(), &err)

	return r.queries.HasLedgerAccounts(ctx, entityID)
}

// ResetDependentData deletes every ledger row of the company within tx. The
// company row is locked first so that concurrent resets of the same company
// serialize. Children are deleted before their parents.
func (r *DependentDataRepository) ResetDependentData(ctx context.Context, tx usecase.Transaction, entityID string) (report domain.ResetReport, err error) {
	defer observe(r.metrics, "reset", "ledger", time.Now(), &err)

	queries := queriesForTx(tx)

	if _, err := queries.LockCompany(ctx, entityID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ResetReport{}, fmt.Errorf("%w: company %s", domain.ErrEntityNotFound, entityID)
		}
		return domain.ResetReport{}, fmt.Errorf("lock company: %w", err)
	}

	total, err := queries.SumLedgerBalancesByCompany(ctx, entityID)
	if err != nil {
		return domain.ResetReport{}, fmt.Errorf("sum balances: %w", err)
	}
	report.ClearedBalanceTotal = numericToDecimal(total)

	if report.EntriesDeleted, err = queries.DeleteLedgerEntriesByCompany(ctx, entityID); err != nil {
		return domain.ResetReport{}, fmt.Errorf("delete entries: %w", err)
	}
	if report.TransactionsDeleted, err = queries.DeleteLedgerTransfersByCompany(ctx, entityID); err != nil {
		return domain.ResetReport{}, fmt.Errorf("delete transfers: %w", err)
	}
	if report.BalancesCleared, err = queries.DeleteLedgerBalancesByCompany(ctx, entityID); err != nil {
		return domain.ResetReport{}, fmt.Errorf("delete balances: %w", err)
	}
	if report.MastersDeleted, err = queries.DeleteLedgerAccountsByCompany(ctx, entityID); err != nil {
		return domain.ResetReport{}, fmt.Errorf("delete accounts: %w", err)
	}

	return report, nil
}
