package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
)

// observe records a query against table. Missing rows and constraint
// violations surfaced as domain errors are not counted as failures.
func observe(m *metrics.Metrics, operation, table string, start time.Time, errp *error) {
	if m == nil {
		return
	}

	m.DBQueries.WithLabelValues(operation, table).Inc()
	m.DBDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())

	if err := *errp; err != nil && !isExpected(err) {
		m.DBErrors.WithLabelValues(operation).Inc()
	}
}

func isExpected(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, domain.ErrEntityNotFound) ||
		errors.Is(err, domain.ErrUniquenessViolation)
}
