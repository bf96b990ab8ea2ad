package usecase

import (
	"context"
	"iter"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// TransactionLog is the only writer of ledger entries.
type TransactionLog struct {
	chart     *domain.Chart
	txManager TransactionManager
	entryRepo EntryRepository
	opts      options
}

// NewTransactionLog creates a new TransactionLog.
func NewTransactionLog(chart *domain.Chart, txManager TransactionManager, entryRepo EntryRepository, opts ...Option) *TransactionLog {
	return &TransactionLog{
		chart:     chart,
		txManager: txManager,
		entryRepo: entryRepo,
		opts:      newOptions(opts),
	}
}

// Append validates, timestamps and stores one entry. On success the entry's
// ID and CreatedAt are set.
func (l *TransactionLog) Append(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if err := l.chart.ValidateEntry(entry); err != nil {
		return nil, err
	}

	err := runInTx(ctx, l.txManager, l.opts.retrier, func(ctx context.Context, tx Transaction) error {
		return l.appendTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	l.appended(entry)

	return entry, nil
}

// AppendPair stores two entries in one transaction. Either both are
// persisted or neither is.
func (l *TransactionLog) AppendPair(ctx context.Context, first, second *domain.Entry) error {
	for _, e := range []*domain.Entry{first, second} {
		if err := l.chart.ValidateEntry(e); err != nil {
			return err
		}
	}

	err := runInTx(ctx, l.txManager, l.opts.retrier, func(ctx context.Context, tx Transaction) error {
		if err := l.appendTx(ctx, tx, first); err != nil {
			return err
		}
		return l.appendTx(ctx, tx, second)
	})
	if err != nil {
		return err
	}

	l.appended(first, second)

	return nil
}

// Query streams entries matching filter in insertion order.
func (l *TransactionLog) Query(ctx context.Context, filter domain.EntryFilter) iter.Seq2[*domain.Entry, error] {
	return l.entryRepo.Query(ctx, nil, filter)
}

// appendTx validates and stores entry inside an open transaction.
func (l *TransactionLog) appendTx(ctx context.Context, tx Transaction, entry *domain.Entry) error {
	if err := l.chart.ValidateEntry(entry); err != nil {
		return err
	}

	entry.CreatedAt = l.opts.stamp()

	return l.entryRepo.Append(ctx, tx, entry)
}

func (l *TransactionLog) appended(entries ...*domain.Entry) {
	for _, e := range entries {
		l.opts.metrics.EntryAppended(e.Kind)
		l.opts.logger.Info().
			Int64("entry_id", e.ID).
			Str("kind", string(e.Kind)).
			Str("account", e.Account).
			Str("amount", e.Amount.String()).
			Str("currency", e.Currency).
			Str("actor_id", e.Actor.ID).
			Msg("entry appended")
	}
}
