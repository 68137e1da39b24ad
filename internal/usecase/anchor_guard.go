package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
)

// HasDependentDataFunc reports whether an entity has data that a fiscal
// anchor change would invalidate.
type HasDependentDataFunc func(ctx context.Context, entityID string) (bool, error)

// ActionContext identifies who performed an action, for auditing.
type ActionContext struct {
	Actor     string
	SessionID string
	RequestID string
}

// AnchorGuard governs changes to fiscal anchors of companies that may already
// have dependent financial data.
type AnchorGuard struct {
	txManager  TransactionManager
	checker    DependentDataChecker
	resetter   DependentDataResetter
	entityRepo EntityRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
}

// NewAnchorGuard creates a new AnchorGuard.
func NewAnchorGuard(
	txManager TransactionManager,
	checker DependentDataChecker,
	resetter DependentDataResetter,
	entityRepo EntityRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *AnchorGuard {
	return &AnchorGuard{
		txManager:  txManager,
		checker:    checker,
		resetter:   resetter,
		entityRepo: entityRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		metrics:    m,
	}
}

// HasDependentData reports whether the entity has transactions or master
// records. Both lookups run concurrently; either one is enough.
func (g *AnchorGuard) HasDependentData(ctx context.Context, entityID string) (bool, error) {
	if g.checker == nil {
		return false, errors.New("dependent data checker not configured")
	}

	var hasTransactions, hasMasters bool

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		hasTransactions, err = g.checker.HasTransactions(egCtx, entityID)
		return err
	})
	eg.Go(func() error {
		var err error
		hasMasters, err = g.checker.HasMasterRecords(egCtx, entityID)
		return err
	})

	if err := eg.Wait(); err != nil {
		return false, err
	}

	return hasTransactions || hasMasters, nil
}

// ProposeChange decides whether moving an anchor needs destructive-reset
// confirmation. New entities and unset anchors are applied directly. When
// hasDependentData is nil the guard's own checker is used. A failing
// predicate fails the proposal.
func (g *AnchorGuard) ProposeChange(ctx context.Context, p domain.AnchorProposal, hasDependentData HasDependentDataFunc) (domain.AnchorDecision, error) {
	applied := domain.AnchorDecision{
		Status: domain.GuardStatusApplied,
		Field:  p.Field,
		Value:  p.ProposedValue,
	}

	if p.EntityID == "" || p.CurrentValue.IsZero() || p.ProposedValue.Equal(p.CurrentValue) {
		g.recordDecision(p.Field, applied.Status)
		return applied, nil
	}

	if hasDependentData == nil {
		hasDependentData = g.HasDependentData
	}

	has, err := hasDependentData(ctx, p.EntityID)
	if err != nil {
		return domain.AnchorDecision{}, fmt.Errorf("check dependent data for %s: %w", p.EntityID, err)
	}

	if !has {
		g.recordDecision(p.Field, applied.Status)
		return applied, nil
	}

	zerolog.Ctx(ctx).Info().
		Str("entity_id", p.EntityID).
		Str("field", string(p.Field)).
		Str("current", p.CurrentValue.String()).
		Str("proposed", p.ProposedValue.String()).
		Msg("anchor change requires destructive reset confirmation")

	g.recordDecision(p.Field, domain.GuardStatusPendingConfirmation)

	return domain.AnchorDecision{
		Status: domain.GuardStatusPendingConfirmation,
		Field:  p.Field,
		Value:  p.CurrentValue,
		Pending: &domain.PendingAnchorChange{
			EntityID:         p.EntityID,
			Field:            p.Field,
			CurrentValue:     p.CurrentValue,
			ProposedValue:    p.ProposedValue,
			HasDependentData: true,
			ProposedAt:       time.Now().UTC(),
		},
	}, nil
}

// Confirm deletes all dependent data of the entity and applies the proposed
// anchor value in a single transaction. On any failure nothing is changed
// and the error wraps domain.ErrDestructiveResetFailed.
func (g *AnchorGuard) Confirm(ctx context.Context, pending domain.PendingAnchorChange, action ActionContext) (result domain.ResetResult, err error) {
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			result = domain.ResetResult{}
			err = fmt.Errorf("%w: reset panicked: %v", domain.ErrDestructiveResetFailed, p)
		}
		g.recordReset(ctx, pending, start, result, err)
	}()

	if g.resetter == nil || g.txManager == nil || g.entityRepo == nil {
		return domain.ResetResult{}, fmt.Errorf("%w: reset executor not configured", domain.ErrDestructiveResetFailed)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := g.txManager.Begin(txCtx)
	if err != nil {
		return domain.ResetResult{}, fmt.Errorf("%w: begin: %w", domain.ErrDestructiveResetFailed, err)
	}
	defer tx.Rollback(txCtx)

	report, err := g.resetter.ResetDependentData(txCtx, tx, pending.EntityID)
	if err != nil {
		return domain.ResetResult{}, fmt.Errorf("%w: %w", domain.ErrDestructiveResetFailed, err)
	}

	now := time.Now().UTC()

	if err := g.entityRepo.UpdateAnchorTx(txCtx, tx, pending.EntityID, pending.Field, pending.ProposedValue, now); err != nil {
		return domain.ResetResult{}, fmt.Errorf("%w: apply anchor: %w", domain.ErrDestructiveResetFailed, err)
	}

	if g.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            g.idGen.Generate(),
			AggregateID:   pending.EntityID,
			AggregateType: domain.AggregateTypeCompany,
			EventType:     domain.EventTypeCompanyDependentDataReset,
			Payload: domain.MarshalState(domain.DependentDataResetEvent{
				CompanyID:           pending.EntityID,
				Field:               string(pending.Field),
				PreviousValue:       pending.CurrentValue.String(),
				NewValue:            pending.ProposedValue.String(),
				TransactionsDeleted: report.TransactionsDeleted,
				EntriesDeleted:      report.EntriesDeleted,
				MastersDeleted:      report.MastersDeleted,
				BalancesCleared:     report.BalancesCleared,
				ClearedBalanceTotal: report.ClearedBalanceTotal.String(),
			}),
			CreatedAt: now,
		}
		if err := g.outboxRepo.Create(txCtx, tx, event); err != nil {
			return domain.ResetResult{}, fmt.Errorf("%w: outbox: %w", domain.ErrDestructiveResetFailed, err)
		}
	}

	if g.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           g.idGen.Generate(),
			Actor:        action.Actor,
			Action:       string(domain.AuditActionCompanyAnchorReset),
			ResourceType: domain.AggregateTypeCompany,
			ResourceID:   pending.EntityID,
			SessionID:    action.SessionID,
			RequestID:    action.RequestID,
			BeforeState:  domain.JSON{string(pending.Field): pending.CurrentValue.String()},
			AfterState: domain.JSON{
				string(pending.Field): pending.ProposedValue.String(),
				"reset":               domain.MarshalState(report),
			},
			Status:    string(domain.AuditStatusSuccess),
			CreatedAt: now,
		}
		if err := g.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
			return domain.ResetResult{}, fmt.Errorf("%w: audit: %w", domain.ErrDestructiveResetFailed, err)
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return domain.ResetResult{}, fmt.Errorf("%w: commit: %w", domain.ErrDestructiveResetFailed, err)
	}

	return domain.ResetResult{
		Status: domain.GuardStatusApplied,
		Field:  pending.Field,
		Value:  pending.ProposedValue,
		Report: report,
	}, nil
}

// Cancel discards a pending change. The anchor keeps its current value.
func (g *AnchorGuard) Cancel(pending domain.PendingAnchorChange) domain.AnchorDecision {
	g.recordDecision(pending.Field, domain.GuardStatusCancelled)

	return domain.AnchorDecision{
		Status: domain.GuardStatusCancelled,
		Field:  pending.Field,
		Value:  pending.CurrentValue,
	}
}

func (g *AnchorGuard) recordDecision(field domain.AnchorField, status domain.GuardStatus) {
	if g.metrics != nil {
		g.metrics.GuardDecisions.WithLabelValues(string(field), string(status)).Inc()
	}
}

func (g *AnchorGuard) recordReset(ctx context.Context, pending domain.PendingAnchorChange, start time.Time, result domain.ResetResult, err error) {
	logger := zerolog.Ctx(ctx)

	if err != nil {
		logger.Error().
			Err(err).
			Str("entity_id", pending.EntityID).
			Str("field", string(pending.Field)).
			Msg("destructive reset failed, anchor unchanged")
	} else {
		logger.Info().
			Str("entity_id", pending.EntityID).
			Str("field", string(pending.Field)).
			Str("value", result.Value.String()).
			Int64("transactions_deleted", result.Report.TransactionsDeleted).
			Int64("masters_deleted", result.Report.MastersDeleted).
			Dur("duration", time.Since(start)).
			Msg("destructive reset completed")
	}

	if g.metrics == nil {
		return
	}

	if err != nil {
		g.metrics.DestructiveResets.WithLabelValues("failure").Inc()
		return
	}

	g.metrics.DestructiveResets.WithLabelValues("success").Inc()
	g.metrics.ResetDuration.Observe(time.Since(start).Seconds())
	g.metrics.ResetRowsDeleted.WithLabelValues("ledger_transfers").Add(float64(result.Report.TransactionsDeleted))
	g.metrics.ResetRowsDeleted.WithLabelValues("ledger_entries").Add(float64(result.Report.EntriesDeleted))
	g.metrics.ResetRowsDeleted.WithLabelValues("ledger_accounts").Add(float64(result.Report.MastersDeleted))
	g.metrics.ResetRowsDeleted.WithLabelValues("ledger_balances").Add(float64(result.Report.BalancesCleared))
}
