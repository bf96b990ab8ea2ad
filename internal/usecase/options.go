package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// Option customises a use case.
type Option func(*options)

type options struct {
	retrier Retrier
	metrics MetricsRecorder
	logger  zerolog.Logger
	now     func() time.Time
}

// WithRetrier retries storage transactions on transient conflicts.
func WithRetrier(r Retrier) Option {
	return func(o *options) {
		if r != nil {
			o.retrier = r
		}
	}
}

// WithMetrics reports business events to m.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger sets the logger used for business events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		retrier: noRetry{},
		metrics: noopMetrics{},
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// stamp returns the current instant in UTC at the precision every storage
// backend keeps.
func (o options) stamp() time.Time {
	return o.now().UTC().Truncate(time.Microsecond)
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}

type noopMetrics struct{}

func (noopMetrics) EntryAppended(domain.Kind) {}
func (noopMetrics) ExchangeCompleted(string, string) {}
func (noopMetrics) RateSet(string) {}
func (noopMetrics) RateMissing(string) {}
func (noopMetrics) Reconciled(string) {}

// runInTx runs fn inside one storage transaction, retrying the whole unit
// when the retrier classifies the failure as transient.
func runInTx(ctx context.Context, txManager TransactionManager, retrier Retrier, fn func(ctx context.Context, tx Transaction) error) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	return retrier.Retry(ctx, func() error {
		tx, err := txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := fn(ctx, tx); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
}
