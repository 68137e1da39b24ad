package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/orgconf/internal/adapter/http/middleware"
	"github.com/iho/orgconf/internal/infrastructure/metrics"
)

const (
	maintenanceInterval = 15 * time.Second
	limiterMaxIdle      = 10 * time.Minute
)

// runMaintenance refreshes the connection gauge and drops idle rate limiters
// until ctx is cancelled.
func runMaintenance(ctx context.Context, stat func() *pgxpool.Stat, rl *middleware.RateLimiter, m *metrics.Metrics) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		maintain(stat, rl, m)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func maintain(stat func() *pgxpool.Stat, rl *middleware.RateLimiter, m *metrics.Metrics) {
	if m != nil && stat != nil {
		m.DBConnections.Set(float64(stat().TotalConns()))
	}
	if rl != nil {
		rl.CleanupLimiters(limiterMaxIdle)
	}
}
