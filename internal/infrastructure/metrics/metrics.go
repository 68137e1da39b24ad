package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Session metrics
	SessionsStarted  *prometheus.CounterVec
	SessionConflicts prometheus.Counter
	Submits          *prometheus.CounterVec
	SubmitDuration   prometheus.Histogram

	// Location metrics
	OracleRequests    *prometheus.CounterVec
	OracleDegraded    *prometheus.CounterVec
	OracleDuration    *prometheus.HistogramVec
	PostalValidations *prometheus.CounterVec

	// Fiscal anchor metrics
	GuardDecisions    *prometheus.CounterVec
	DestructiveResets *prometheus.CounterVec
	ResetDuration     prometheus.Histogram
	ResetRowsDeleted  *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPPanics   *prometheus.CounterVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec
	DBRetries     *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisDuration   *prometheus.HistogramVec
	RedisErrors     *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit and outbox metrics
	AuditLogsCreated *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all Prometheus metrics and registers them on reg
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Session metrics
		SessionsStarted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_sessions_started_total",
				Help: "Total number of entity-edit sessions started",
			},
			[]string{"mode", "kind"},
		),
		SessionConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "orgconf_session_conflicts_total",
			Help: "Total number of session writes discarded as stale",
		}),
		Submits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_submits_total",
				Help: "Total number of session submits by outcome",
			},
			[]string{"kind", "result"},
		),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "orgconf_submit_duration_seconds",
			Help:    "Duration of session submits",
			Buckets: prometheus.DefBuckets,
		}),

		// Location metrics
		OracleRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_oracle_requests_total",
				Help: "Total reference data oracle requests",
			},
			[]string{"operation", "result"},
		),
		OracleDegraded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_oracle_degraded_total",
				Help: "Total lookups that degraded because the oracle failed",
			},
			[]string{"operation"},
		),
		OracleDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orgconf_oracle_duration_seconds",
				Help:    "Reference data oracle request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		PostalValidations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_postal_validations_total",
				Help: "Total postal code validations by reason",
			},
			[]string{"reason"},
		),

		// Fiscal anchor metrics
		GuardDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_anchor_guard_decisions_total",
				Help: "Total fiscal anchor guard decisions by status",
			},
			[]string{"field", "status"},
		),
		DestructiveResets: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_destructive_resets_total",
				Help: "Total destructive resets by result",
			},
			[]string{"result"},
		),
		ResetDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "orgconf_destructive_reset_duration_seconds",
			Help:    "Duration of destructive resets",
			Buckets: prometheus.DefBuckets,
		}),
		ResetRowsDeleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_reset_rows_deleted_total",
				Help: "Total dependent rows removed by destructive resets",
			},
			[]string{"table"},
		),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orgconf_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPPanics: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_http_panics_total",
				Help: "Total panics recovered in HTTP handlers",
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orgconf_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "orgconf_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
		DBRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_db_retries_total",
				Help: "Total transaction retries after transient conflicts",
			},
			[]string{"sqlstate"},
		),

		// Redis metrics
		RedisOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orgconf_redis_duration_seconds",
				Help:    "Redis operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedisErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),

		// Audit and outbox metrics
		AuditLogsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgconf_events_published_total",
				Help: "Total outbox events published by result",
			},
			[]string{"event_type", "result"},
		),
	}
}
