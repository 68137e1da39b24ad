package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultSessionTTL is how long an idle entity-edit session is kept
	DefaultSessionTTL = 30 * time.Minute

	// DefaultRichLookupCountry has a dedicated postal oracle
	DefaultRichLookupCountry = "IN"

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// MaxCandidates caps filtered candidate lists
	MaxCandidates = 50
)
