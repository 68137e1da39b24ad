package postgres

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
	"github.com/iho/orgconf/internal/infrastructure/postgres/generated"
	"github.com/iho/orgconf/internal/usecase"
)

const auditTable = "audit_logs"

// AuditRepository implements audit log persistence
type AuditRepository struct {
	db      generated.DBTX
	metrics *metrics.Metrics
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool, m *metrics.Metrics) *AuditRepository {
	return newAuditRepository(pool, m)
}

func newAuditRepository(db generated.DBTX, m *metrics.Metrics) *AuditRepository {
	return &AuditRepository{db: db, metrics: m}
}

// CreateTx inserts a new audit log entry within a transaction, so the entry
// only exists if the audited change committed.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) (err error) {
	defer observe(r.metrics, "insert", auditTable, time.Now(), &err)

	var beforeStateJSON, afterStateJSON []byte

	if log.BeforeState != nil {
		beforeStateJSON, err = json.Marshal(log.BeforeState)
		if err != nil {
			return err
		}
	}

	if log.AfterState != nil {
		afterStateJSON, err = json.Marshal(log.AfterState)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (
			id, actor, action, resource_type, resource_id,
			session_id, request_id,
			before_state, after_state, status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.(*Tx).PgxTx().Exec(ctx, query,
		log.ID,
		log.Actor,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.SessionID,
		log.RequestID,
		beforeStateJSON,
		afterStateJSON,
		log.Status,
		log.ErrorMessage,
		log.CreatedAt,
	)

	return err
}

// List retrieves audit logs with filtering, newest first
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) (_ []*domain.AuditLog, err error) {
	defer observe(r.metrics, "select", auditTable, time.Now(), &err)

	query := `
		SELECT id, actor, action, resource_type, resource_id,
		       session_id, request_id,
		       before_state, after_state, status, error_message, created_at
		FROM audit_logs
		WHERE 1=1`
	args := []any{}

	where := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		query += ` AND ` + column + ` = $` + strconv.Itoa(len(args))
	}

	where("actor", filter.Actor)
	where("action", filter.Action)
	where("resource_type", filter.ResourceType)
	where("resource_id", filter.ResourceID)

	query += ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var beforeStateJSON, afterStateJSON []byte

		err := rows.Scan(
			&log.ID,
			&log.Actor,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&log.SessionID,
			&log.RequestID,
			&beforeStateJSON,
			&afterStateJSON,
			&log.Status,
			&log.ErrorMessage,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if beforeStateJSON != nil {
			_ = json.Unmarshal(beforeStateJSON, &log.BeforeState)
		}

		if afterStateJSON != nil {
			_ = json.Unmarshal(afterStateJSON, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
