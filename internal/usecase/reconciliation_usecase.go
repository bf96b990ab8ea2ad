package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// Direction is the outcome of a reconciliation.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ReconciliationUseCase aligns a derived balance with an observed one by
// appending a corrective entry
type ReconciliationUseCase struct {
	chart     *domain.Chart
	txManager TransactionManager
	entryRepo EntryRepository
	log       *TransactionLog
	epsilon   decimal.Decimal
	opts      options
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	chart *domain.Chart,
	txManager TransactionManager,
	entryRepo EntryRepository,
	log *TransactionLog,
	opts ...Option,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		chart:     chart,
		txManager: txManager,
		entryRepo: entryRepo,
		log:       log,
		epsilon:   decimal.RequireFromString(domain.ReconcileEpsilon),
		opts:      newOptions(opts),
	}
}

// ReconcileInput is an observed native balance for one account.
type ReconcileInput struct {
	Actor    domain.Actor
	Account  string
	Observed decimal.Decimal
}

// ReconciliationResult represents the result of a reconciliation
type ReconciliationResult struct {
	Entry     *domain.Entry
	Direction Direction
	Previous  decimal.Decimal
	Observed  decimal.Decimal
	Delta     decimal.Decimal
}

// Reconcile appends a reconcile_up or reconcile_down entry so that the
// account's balance equals the observed one. A drift below the epsilon is
// recorded as a zero-amount confirmation.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, input ReconcileInput) (*ReconciliationResult, error) {
	acc, err := uc.chart.Account(input.Account)
	if err != nil {
		return nil, err
	}

	var result *ReconciliationResult
	err = runInTx(ctx, uc.txManager, uc.opts.retrier, func(ctx context.Context, tx Transaction) error {
		if err := uc.entryRepo.LockAccount(ctx, tx, acc.ID); err != nil {
			return err
		}

		current, err := domain.FoldBalance(uc.entryRepo.Query(ctx, tx, domain.EntryFilter{Account: acc.ID}))
		if err != nil {
			return err
		}

		result = uc.plan(acc, current, input)

		return uc.log.appendTx(ctx, tx, result.Entry)
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", acc.ID, err)
	}

	uc.log.appended(result.Entry)
	uc.opts.metrics.Reconciled(string(result.Direction))
	uc.opts.logger.Info().
		Str("account", acc.ID).
		Str("previous", result.Previous.String()).
		Str("observed", result.Observed.String()).
		Str("direction", string(result.Direction)).
		Msg("account reconciled")

	return result, nil
}

func (uc *ReconciliationUseCase) plan(acc domain.Account, current decimal.Decimal, input ReconcileInput) *ReconciliationResult {
	delta := input.Observed.Sub(current)

	entry := &domain.Entry{
		Actor:    input.Actor,
		Account:  acc.ID,
		Currency: acc.Currency,
		Amount:   delta.Abs(),
	}

	direction := DirectionNone
	switch {
	case delta.Abs().LessThan(uc.epsilon):
		entry.Kind = domain.KindReconcileUp
		entry.Amount = decimal.Zero
		entry.Note = NoteConfirmed
	case delta.IsPositive():
		direction = DirectionUp
		entry.Kind = domain.KindReconcileUp
		entry.Note = "observed " + input.Observed.String()
	default:
		direction = DirectionDown
		entry.Kind = domain.KindReconcileDown
		entry.Note = "observed " + input.Observed.String()
	}

	return &ReconciliationResult{
		Entry:     entry,
		Direction: direction,
		Previous:  current,
		Observed:  input.Observed,
		Delta:     delta,
	}
}
