package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking writers
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// SettingBaseCurrency is the settings key holding the base currency.
	SettingBaseCurrency = "base_currency"

	// UncategorizedCategory collects expenses recorded without a category.
	UncategorizedCategory = "uncategorized"

	// NoteConfirmed marks a reconciliation that found no drift.
	NoteConfirmed = "confirmed"

	// DefaultRateHistoryLimit bounds rate history listings.
	DefaultRateHistoryLimit = 20
)
