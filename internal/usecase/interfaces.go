package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// EntryRepository defines data access for the append-only transaction log.
type EntryRepository interface {
	// Append stores entry and sets its ID.
	Append(ctx context.Context, tx Transaction, entry *domain.Entry) error
	// Query streams matching entries in ascending id order. A nil tx reads
	// outside any transaction. Each range over the result re-runs the query.
	Query(ctx context.Context, tx Transaction, filter domain.EntryFilter) iter.Seq2[*domain.Entry, error]
	// LockAccount serialises writers that read-then-append for one account
	// until tx ends.
	LockAccount(ctx context.Context, tx Transaction, accountID string) error
}

// RateRepository defines data access for rate observations.
type RateRepository interface {
	Append(ctx context.Context, tx Transaction, obs *domain.RateObservation) error
	// Latest returns the newest observation or a *domain.RateNotFoundError.
	Latest(ctx context.Context, currency string) (*domain.RateObservation, error)
	History(ctx context.Context, currency string, limit int) ([]*domain.RateObservation, error)
}

// SettingsRepository defines data access for key/value settings.
type SettingsRepository interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// SetIfAbsent stores value unless key is set and returns the stored value.
	SetIfAbsent(ctx context.Context, key, value string) (string, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// MetricsRecorder receives business events.
type MetricsRecorder interface {
	EntryAppended(kind domain.Kind)
	ExchangeCompleted(fromCurrency, toCurrency string)
	RateSet(currency string)
	RateMissing(currency string)
	Reconciled(direction string)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release forgets key so that a failed request can be retried.
	Release(ctx context.Context, key string) error
}
