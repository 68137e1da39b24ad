package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const postgresImage = "postgres:16-alpine"

// DatabaseURL returns DATABASE_URL when set. Otherwise it starts a disposable
// postgres container that is terminated when the test finishes.
func DatabaseURL(t *testing.T) string {
	t.Helper()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("orgconf"),
		tcpostgres.WithUsername("orgconf"),
		tcpostgres.WithPassword("orgconf"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}
	return dbURL
}
