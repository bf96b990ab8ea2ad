package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// Ledger is the single entry point front-ends use for the core operations.
type Ledger struct {
	entries    *EntryUseCase
	exchanges  *ExchangeUseCase
	rates      *RateUseCase
	balances   *BalanceUseCase
	reconciler *ReconciliationUseCase
	reports    *ReportUseCase
}

// NewLedger creates a new Ledger.
func NewLedger(
	entries *EntryUseCase,
	exchanges *ExchangeUseCase,
	rates *RateUseCase,
	balances *BalanceUseCase,
	reconciler *ReconciliationUseCase,
	reports *ReportUseCase,
) *Ledger {
	return &Ledger{
		entries:    entries,
		exchanges:  exchanges,
		rates:      rates,
		balances:   balances,
		reconciler: reconciler,
		reports:    reports,
	}
}

func (l *Ledger) RecordExpense(ctx context.Context, input RecordInput) (*domain.Entry, error) {
	return l.entries.RecordExpense(ctx, input)
}

func (l *Ledger) RecordIncome(ctx context.Context, input RecordInput) (*domain.Entry, error) {
	return l.entries.RecordIncome(ctx, input)
}

func (l *Ledger) Exchange(ctx context.Context, input ExchangeInput) (*ExchangeResult, error) {
	return l.exchanges.Exchange(ctx, input)
}

func (l *Ledger) SetRate(ctx context.Context, currency string, valueInBase decimal.Decimal) (*domain.RateObservation, error) {
	return l.rates.SetRate(ctx, currency, valueInBase)
}

// Balances values every account in the base currency.
func (l *Ledger) Balances(ctx context.Context) (*Valuation, error) {
	return l.balances.Valuation(ctx)
}

func (l *Ledger) Reconcile(ctx context.Context, input ReconcileInput) (*ReconciliationResult, error) {
	return l.reconciler.Reconcile(ctx, input)
}

func (l *Ledger) Report(ctx context.Context, period domain.Period) (*Report, error) {
	return l.reports.Report(ctx, period)
}
