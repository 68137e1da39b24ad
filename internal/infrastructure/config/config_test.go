package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iho/orgconf/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.OracleMode != config.OracleModeMemory || cfg.RichLookupCountry != "IN" {
		t.Fatalf("unexpected oracle defaults: mode=%s rich=%s", cfg.OracleMode, cfg.RichLookupCountry)
	}

	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected 30m session TTL, got %s", cfg.SessionTTL)
	}

	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected no kafka brokers by default, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("ORACLE_MODE", "http")
	t.Setenv("ORACLE_URL", "https://reference.example/api/")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.OracleMode != config.OracleModeHTTP || cfg.OracleURL != "https://reference.example/api/" {
		t.Fatalf("expected http oracle settings, got mode=%s url=%s", cfg.OracleMode, cfg.OracleURL)
	}

	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("expected two kafka brokers, got %v", cfg.KafkaBrokers)
	}

	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadHTTPOracleRequiresURL(t *testing.T) {
	t.Setenv("ORACLE_MODE", "http")
	t.Setenv("ORACLE_URL", "")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for http oracle without url")
	}
}

func TestLoadUnknownOracleMode(t *testing.T) {
	t.Setenv("ORACLE_MODE", "carrier-pigeon")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for unknown oracle mode")
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SESSION_TTL=5m\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Chdir(dir)

	// Only set so that t.Setenv restores the variable after the test.
	t.Setenv("SESSION_TTL", "")
	os.Unsetenv("SESSION_TTL")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.SessionTTL != 5*time.Minute {
		t.Fatalf("expected .env session TTL, got %s", cfg.SessionTTL)
	}
}
