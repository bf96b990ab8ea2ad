package usecase_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase/mocks"
)

var testActor = domain.Actor{ID: "42", Name: "Anna"}

type fixture struct {
	store      *mocks.Store
	chart      *domain.Chart
	metrics    *mocks.MockMetrics
	now        time.Time
	log        *usecase.TransactionLog
	rates      *usecase.RateUseCase
	entries    *usecase.EntryUseCase
	balances   *usecase.BalanceUseCase
	exchanges  *usecase.ExchangeUseCase
	reconciler *usecase.ReconciliationUseCase
	reports    *usecase.ReportUseCase
	audit      *usecase.LedgerUseCase
	ledger     *usecase.Ledger
}

func newTestChart(t *testing.T) *domain.Chart {
	t.Helper()

	chart, err := domain.NewChart("USD", []domain.Account{
		{ID: "cash-ARS", Currency: "ARS"},
		{ID: "cash-USD", Currency: "USD"},
		{ID: "card-EUR", Currency: "EUR"},
		{ID: "exchA-USDT", Currency: "USDT"},
		{ID: "exchA-BTC", Currency: "BTC"},
		{ID: "card-RUB", Currency: "RUB"},
		{ID: "card-ARS", Currency: "ARS"},
	}, []string{"food", "rent", "entertainment", "other"})
	if err != nil {
		t.Fatalf("NewChart: %v", err)
	}

	return chart
}

// newFixture wires every use case over an in-memory store. The clock starts
// at a fixed instant and advances one second per reading.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   mocks.NewStore(),
		chart:   newTestChart(t),
		metrics: mocks.NewMockMetrics(),
		now:     time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC),
	}

	opts := []usecase.Option{
		usecase.WithMetrics(f.metrics),
		usecase.WithClock(func() time.Time {
			f.now = f.now.Add(time.Second)
			return f.now
		}),
	}

	entryRepo := f.store.Entries()
	f.log = usecase.NewTransactionLog(f.chart, f.store, entryRepo, opts...)
	f.rates = usecase.NewRateUseCase(f.chart, f.store, f.store.Rates(), f.store.Settings(), opts...)
	f.entries = usecase.NewEntryUseCase(f.chart, f.log)
	f.balances = usecase.NewBalanceUseCase(f.chart, f.log, f.rates, opts...)
	f.exchanges = usecase.NewExchangeUseCase(f.chart, f.store, f.log, f.rates, mocks.NewMockIDGenerator(), opts...)
	f.reconciler = usecase.NewReconciliationUseCase(f.chart, f.store, entryRepo, f.log, opts...)
	f.reports = usecase.NewReportUseCase(f.log, f.rates, time.UTC, opts...)
	f.audit = usecase.NewLedgerUseCase(f.log)
	f.ledger = usecase.NewLedger(f.entries, f.exchanges, f.rates, f.balances, f.reconciler, f.reports)

	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
