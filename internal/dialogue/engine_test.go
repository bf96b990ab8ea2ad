package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

var anna = domain.Actor{ID: "42", Name: "Anna"}

type memStore struct {
	sessions map[string]Session
}

func (m *memStore) Load(_ context.Context, key string) (*Session, error) {
	s, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStore) Save(_ context.Context, key string, s *Session, _ time.Duration) error {
	m.sessions[key] = *s
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.sessions, key)
	return nil
}

type fakeLedger struct {
	records    []usecase.RecordInput
	exchanges  []usecase.ExchangeInput
	reconciles []usecase.ReconcileInput
	periods    []domain.Period
	rates      map[string]decimal.Decimal
	err        error
	balanceErr error
}

func (f *fakeLedger) entry(kind domain.Kind, in usecase.RecordInput) (*domain.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.records = append(f.records, in)
	return &domain.Entry{
		ID:       int64(len(f.records)),
		Kind:     kind,
		Account:  in.Account,
		Category: in.Category,
		Currency: in.Currency,
		Amount:   in.Amount,
	}, nil
}

func (f *fakeLedger) RecordExpense(_ context.Context, in usecase.RecordInput) (*domain.Entry, error) {
	return f.entry(domain.KindExpense, in)
}

func (f *fakeLedger) RecordIncome(_ context.Context, in usecase.RecordInput) (*domain.Entry, error) {
	return f.entry(domain.KindIncome, in)
}

func (f *fakeLedger) Exchange(_ context.Context, in usecase.ExchangeInput) (*usecase.ExchangeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.exchanges = append(f.exchanges, in)
	dest := in.Amount.Mul(in.RateToBase)
	return &usecase.ExchangeResult{
		Out:               &domain.Entry{Account: in.FromAccount, Amount: in.Amount, Currency: "ARS"},
		In:                &domain.Entry{Account: in.ToAccount, Amount: dest, Currency: "USD"},
		DestinationAmount: dest,
	}, nil
}

func (f *fakeLedger) SetRate(_ context.Context, currency string, value decimal.Decimal) (*domain.RateObservation, error) {
	if !value.IsPositive() {
		return nil, domain.ErrInvalidRate
	}
	if f.rates == nil {
		f.rates = make(map[string]decimal.Decimal)
	}
	f.rates[currency] = value
	return &domain.RateObservation{Currency: strings.ToUpper(currency), ValueInBase: value}, nil
}

func (f *fakeLedger) Balances(context.Context) (*usecase.Valuation, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &usecase.Valuation{
		BaseCurrency: "USD",
		Accounts: []usecase.AccountValuation{
			{Account: domain.Account{ID: "cash-USD", Currency: "USD"}, Native: decimal.RequireFromString("1.2"), Base: decimal.RequireFromString("1.2")},
		},
		Total: decimal.RequireFromString("1.2"),
	}, nil
}

func (f *fakeLedger) Reconcile(_ context.Context, in usecase.ReconcileInput) (*usecase.ReconciliationResult, error) {
	f.reconciles = append(f.reconciles, in)
	delta := in.Observed.Sub(decimal.NewFromInt(50))
	direction := usecase.DirectionDown
	if delta.IsPositive() {
		direction = usecase.DirectionUp
	}
	return &usecase.ReconciliationResult{
		Entry:     &domain.Entry{Account: in.Account, Currency: "USD", Amount: delta.Abs()},
		Direction: direction,
		Delta:     delta,
	}, nil
}

func (f *fakeLedger) Report(_ context.Context, p domain.Period) (*usecase.Report, error) {
	if p.Kind == domain.PeriodCustom && p.From > p.To {
		return nil, fmt.Errorf("%w: start after end", domain.ErrInvalidPeriod)
	}
	f.periods = append(f.periods, p)
	return &usecase.Report{
		BaseCurrency: "USD",
		Categories: []usecase.CategoryTotal{
			{Category: "food", Base: decimal.RequireFromString("0.12")},
		},
		Total: decimal.RequireFromString("0.12"),
	}, nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeLedger, *memStore) {
	t.Helper()

	chart, err := domain.NewChart("USD", []domain.Account{
		{ID: "cash-USD", Currency: "USD"},
		{ID: "cash-ARS", Currency: "ARS"},
		{ID: "card-EUR", Currency: "EUR"},
	}, []string{"food", "rent"})
	require.NoError(t, err)

	ledger := &fakeLedger{}
	store := &memStore{sessions: make(map[string]Session)}

	return NewEngine(ledger, chart, store, WithDefaultCurrency("ars")), ledger, store
}

func send(t *testing.T, e *Engine, texts ...string) *Reply {
	t.Helper()

	var reply *Reply
	for _, text := range texts {
		var err error
		reply, err = e.Handle(context.Background(), anna, "chat-1", text)
		require.NoError(t, err, text)
	}

	return reply
}

func TestExpenseFlow(t *testing.T) {
	e, ledger, store := newTestEngine(t)

	r := send(t, e, "/expense")
	assert.Equal(t, []string{"food", "rent"}, r.Options)
	assert.Equal(t, StateExpenseCategory, r.State)

	r = send(t, e, "Food", "1,2")
	assert.Equal(t, []string{"ARS", "USD", "EUR"}, r.Options, "default input currency first")

	r = send(t, e, "usd")
	assert.Equal(t, []string{"cash-USD"}, r.Options)

	r = send(t, e, "cash-USD")
	assert.Equal(t, StateIdle, r.State)
	assert.Contains(t, r.Text, "$1.20")
	assert.Empty(t, store.sessions)

	require.Len(t, ledger.records, 1)
	got := ledger.records[0]
	assert.Equal(t, "food", got.Category)
	assert.Equal(t, "USD", got.Currency)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1.2")))
	assert.Equal(t, anna, got.Actor)
}

func TestInvalidInputRepromptsSameState(t *testing.T) {
	e, ledger, store := newTestEngine(t)

	r := send(t, e, "/expense", "groceries")
	assert.Equal(t, StateExpenseCategory, r.State)
	assert.Contains(t, r.Text, "Unknown category")

	r = send(t, e, "rent", "lots")
	assert.Equal(t, StateExpenseAmount, r.State)

	r = send(t, e, "-5")
	assert.Equal(t, StateExpenseAmount, r.State)

	r = send(t, e, "100", "ARS", "cash-USD")
	assert.Equal(t, StateExpenseAccount, r.State, "account must hold the chosen currency")
	assert.Equal(t, []string{"cash-ARS"}, r.Options)
	assert.Equal(t, StateExpenseAccount, store.sessions["chat-1"].State)
	assert.Empty(t, ledger.records)
}

func TestCommandAbandonsFlow(t *testing.T) {
	e, ledger, _ := newTestEngine(t)

	r := send(t, e, "/expense", "food", "/cancel")
	assert.Equal(t, StateIdle, r.State)

	r = send(t, e, "100")
	assert.Contains(t, r.Text, "/help")
	assert.Empty(t, ledger.records)
}

func TestIncomeFlow(t *testing.T) {
	e, ledger, _ := newTestEngine(t)

	r := send(t, e, "/income", "500")
	assert.Equal(t, []string{"USD", "ARS", "EUR"}, r.Options, "income keeps chart order")

	send(t, e, "ARS", "cash-ARS")
	require.Len(t, ledger.records, 1)
	assert.Equal(t, "cash-ARS", ledger.records[0].Account)
}

func TestExchangeFlow(t *testing.T) {
	e, ledger, _ := newTestEngine(t)

	r := send(t, e, "/exchange", "cash-ARS")
	assert.NotContains(t, r.Options, "cash-ARS")

	r = send(t, e, "cash-USD", "1000")
	assert.Equal(t, StateExchangeRate, r.State)

	r = send(t, e, "0.0012")
	assert.Equal(t, StateIdle, r.State)
	assert.Contains(t, r.Text, "$1.20")

	require.Len(t, ledger.exchanges, 1)
	assert.True(t, ledger.exchanges[0].RateToBase.Equal(decimal.RequireFromString("0.0012")))
}

func TestExchangeFromBaseSkipsRate(t *testing.T) {
	e, ledger, _ := newTestEngine(t)

	r := send(t, e, "/exchange", "cash-USD", "card-EUR", "10")
	assert.Equal(t, StateIdle, r.State)
	require.Len(t, ledger.exchanges, 1)
	assert.True(t, ledger.exchanges[0].RateToBase.Equal(decimal.NewFromInt(1)))
}

func TestExchangeMissingRateEndsWithGuidance(t *testing.T) {
	e, ledger, store := newTestEngine(t)
	ledger.err = domain.NewRateNotFound("EUR")

	r := send(t, e, "/exchange", "cash-ARS", "card-EUR", "1000", "0.0012")
	assert.Equal(t, StateIdle, r.State)
	assert.Contains(t, r.Text, "/setrate EUR")
	assert.Empty(t, store.sessions)
}

func TestStorageFailureIsReturned(t *testing.T) {
	e, ledger, store := newTestEngine(t)
	ledger.err = domain.StorageError("append entry", errors.New("disk full"))

	send(t, e, "/income", "10", "USD")
	_, err := e.Handle(context.Background(), anna, "chat-1", "cash-USD")
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Empty(t, store.sessions)
}

func TestReportFlow(t *testing.T) {
	e, ledger, _ := newTestEngine(t)

	r := send(t, e, "/report", "today")
	assert.Contains(t, r.Text, "food: $0.12")

	r = send(t, e, "/report", "custom")
	assert.Equal(t, StateReportCustom, r.State)

	r = send(t, e, "2024-03-10 2024-03-01")
	assert.Equal(t, StateReportCustom, r.State, "inverted dates re-prompt")

	r = send(t, e, "2024-03-01 2024-03-10")
	assert.Equal(t, StateIdle, r.State)

	require.Len(t, ledger.periods, 2)
	assert.Equal(t, domain.Period{Kind: domain.PeriodCustom, From: "2024-03-01", To: "2024-03-10"}, ledger.periods[1])
}

func TestReconcileFlow(t *testing.T) {
	e, ledger, _ := newTestEngine(t)

	r := send(t, e, "/reconcile", "cash-USD", "45")
	assert.Contains(t, r.Text, "written off $5.00")
	require.Len(t, ledger.reconciles, 1)
	assert.True(t, ledger.reconciles[0].Observed.Equal(decimal.NewFromInt(45)))
}

func TestSetRate(t *testing.T) {
	e, ledger, _ := newTestEngine(t)

	r := send(t, e, "/setrate ARS")
	assert.Contains(t, r.Text, "Usage")

	r = send(t, e, "/setrate ars 0,0012")
	assert.Equal(t, "Rate saved: 1 ARS = 0.0012 USD", r.Text)
	assert.True(t, ledger.rates["ars"].Equal(decimal.RequireFromString("0.0012")))

	r = send(t, e, "/setrate ARS 0")
	assert.Contains(t, r.Text, "Rejected")
}

func TestBalance(t *testing.T) {
	e, ledger, _ := newTestEngine(t)

	r := send(t, e, "/balance")
	assert.Contains(t, r.Text, "cash-USD: $1.20")
	assert.Contains(t, r.Text, "Total in USD: $1.20")

	ledger.balanceErr = fmt.Errorf("value card-EUR: %w", domain.NewRateNotFound("EUR"))
	r = send(t, e, "/balance")
	assert.Contains(t, r.Text, "/setrate EUR")
}

func TestInputIsSanitized(t *testing.T) {
	e, _, _ := newTestEngine(t)

	r := send(t, e, "/expense", "<b>food</b>")
	assert.Equal(t, StateExpenseAmount, r.State)
}

func TestCategoryWithAmpersandMatches(t *testing.T) {
	chart, err := domain.NewChart("USD", []domain.Account{
		{ID: "cash-USD", Currency: "USD"},
	}, []string{"food", "bed & bath"})
	require.NoError(t, err)

	ledger := &fakeLedger{}
	e := NewEngine(ledger, chart, &memStore{sessions: make(map[string]Session)})

	r := send(t, e, "/expense", "bed & bath")
	assert.Equal(t, StateExpenseAmount, r.State)
}

func TestFormatAmountCrypto(t *testing.T) {
	assert.Equal(t, "0.00012345 BTC", formatAmount(decimal.RequireFromString("0.00012345"), "BTC"))
	assert.Equal(t, "0.5 USDT", formatAmount(decimal.RequireFromString("0.5"), "USDT"))
}

func TestFormatAmountBeyondMinorUnitRange(t *testing.T) {
	huge := decimal.RequireFromString("100000000000000000000")
	assert.Equal(t, "100000000000000000000 USD", formatAmount(huge, "USD"))
	assert.Equal(t, "-100000000000000000000 ARS", formatAmount(huge.Neg(), "ARS"))
	assert.Equal(t, "$1.20", formatAmount(decimal.RequireFromString("1.2"), "USD"))
}
