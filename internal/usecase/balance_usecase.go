package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// BalanceUseCase derives balances by folding the transaction log. Nothing is
// cached between calls.
type BalanceUseCase struct {
	chart *domain.Chart
	log   *TransactionLog
	rates *RateUseCase
	opts  options
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(chart *domain.Chart, log *TransactionLog, rates *RateUseCase, opts ...Option) *BalanceUseCase {
	return &BalanceUseCase{
		chart: chart,
		log:   log,
		rates: rates,
		opts:  newOptions(opts),
	}
}

// AccountBalance is an account's native balance.
type AccountBalance struct {
	Account domain.Account
	Native  decimal.Decimal
}

// AccountValuation is an account's native balance and its base value.
type AccountValuation struct {
	Account domain.Account
	Native  decimal.Decimal
	Rate    decimal.Decimal
	Base    decimal.Decimal
}

// Valuation is a snapshot of every account valued in the base currency.
type Valuation struct {
	ValuedAt     time.Time
	BaseCurrency string
	Accounts     []AccountValuation
	Total        decimal.Decimal
}

// NativeBalance folds the entries of one account.
func (uc *BalanceUseCase) NativeBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	acc, err := uc.chart.Account(accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.FoldBalance(uc.log.Query(ctx, domain.EntryFilter{Account: acc.ID}))
}

// AllNativeBalances folds the whole log once. Every configured account is
// present, in chart order.
func (uc *BalanceUseCase) AllNativeBalances(ctx context.Context) ([]AccountBalance, error) {
	totals, err := domain.FoldBalances(uc.log.Query(ctx, domain.EntryFilter{}))
	if err != nil {
		return nil, err
	}

	accounts := uc.chart.Accounts()
	balances := make([]AccountBalance, 0, len(accounts))
	for _, acc := range accounts {
		native, ok := totals[acc.ID]
		if !ok {
			native = decimal.Zero
		}
		balances = append(balances, AccountBalance{Account: acc, Native: native})
	}

	return balances, nil
}

// Valuation values every account in the base currency. A currency without a
// rate fails the whole call; no partial total is returned.
func (uc *BalanceUseCase) Valuation(ctx context.Context) (*Valuation, error) {
	balances, err := uc.AllNativeBalances(ctx)
	if err != nil {
		return nil, err
	}

	// Rates are resolved after the fold so no lookup runs while rows are open.
	rates := make(map[string]decimal.Decimal)
	v := &Valuation{
		ValuedAt:     uc.opts.now().UTC(),
		BaseCurrency: uc.rates.BaseCurrency(),
		Accounts:     make([]AccountValuation, 0, len(balances)),
		Total:        decimal.Zero,
	}

	for _, b := range balances {
		rate, ok := rates[b.Account.Currency]
		if !ok {
			obs, err := uc.rates.LatestRate(ctx, b.Account.Currency)
			if err != nil {
				return nil, fmt.Errorf("value %s: %w", b.Account.ID, err)
			}
			rate = obs.ValueInBase
			rates[b.Account.Currency] = rate
		}

		base := b.Native.Mul(rate)
		v.Accounts = append(v.Accounts, AccountValuation{
			Account: b.Account,
			Native:  b.Native,
			Rate:    rate,
			Base:    base,
		})
		v.Total = v.Total.Add(base)
	}

	return v, nil
}
