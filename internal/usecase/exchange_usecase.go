package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// ExchangeUseCase moves value between two accounts, possibly across
// currencies.
type ExchangeUseCase struct {
	chart     *domain.Chart
	txManager TransactionManager
	log       *TransactionLog
	rates     *RateUseCase
	idGen     IDGenerator
	opts      options
}

// NewExchangeUseCase creates a new ExchangeUseCase.
func NewExchangeUseCase(
	chart *domain.Chart,
	txManager TransactionManager,
	log *TransactionLog,
	rates *RateUseCase,
	idGen IDGenerator,
	opts ...Option,
) *ExchangeUseCase {
	return &ExchangeUseCase{
		chart:     chart,
		txManager: txManager,
		log:       log,
		rates:     rates,
		idGen:     idGen,
		opts:      newOptions(opts),
	}
}

// ExchangeInput describes an exchange. RateToBase is the value of one unit
// of the source currency in the base currency.
type ExchangeInput struct {
	Actor       domain.Actor
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
	RateToBase  decimal.Decimal
}

// ExchangeResult holds both legs of a completed exchange.
type ExchangeResult struct {
	Out               *domain.Entry
	In                *domain.Entry
	Rate              *domain.RateObservation
	DestinationAmount decimal.Decimal
	ValueInBase       decimal.Decimal
	DestinationRate   decimal.Decimal
}

// Exchange records the supplied source rate and both legs atomically. When
// the destination currency has no rate nothing is written.
func (uc *ExchangeUseCase) Exchange(ctx context.Context, input ExchangeInput) (*ExchangeResult, error) {
	from, to, err := uc.validate(input)
	if err != nil {
		return nil, err
	}

	destRate, err := uc.destinationRate(ctx, from, to, input.RateToBase)
	if err != nil {
		return nil, err
	}

	valueInBase := input.Amount.Mul(input.RateToBase)
	destAmount := valueInBase.DivRound(destRate, domain.ExchangePrecision)

	pairID := uc.idGen.Generate()
	out := &domain.Entry{
		Actor:    input.Actor,
		Kind:     domain.KindExchangeOut,
		Account:  from.ID,
		Amount:   input.Amount,
		Currency: from.Currency,
		Note:     "-> " + to.ID,
		PairID:   pairID,
	}
	in := &domain.Entry{
		Actor:    input.Actor,
		Kind:     domain.KindExchangeIn,
		Account:  to.ID,
		Amount:   destAmount,
		Currency: to.Currency,
		Note:     "from " + from.ID,
		PairID:   pairID,
	}

	var obs *domain.RateObservation
	err = runInTx(ctx, uc.txManager, uc.opts.retrier, func(ctx context.Context, tx Transaction) error {
		obs = nil
		if from.Currency != uc.rates.BaseCurrency() {
			obs, err = uc.rates.record(ctx, tx, from.Currency, input.RateToBase)
			if err != nil {
				return err
			}
		}

		if err := uc.log.appendTx(ctx, tx, out); err != nil {
			return err
		}
		return uc.log.appendTx(ctx, tx, in)
	})
	if err != nil {
		return nil, err
	}

	uc.log.appended(out, in)
	if obs != nil {
		uc.opts.metrics.RateSet(from.Currency)
	}
	uc.opts.metrics.ExchangeCompleted(from.Currency, to.Currency)
	uc.opts.logger.Info().
		Str("pair_id", pairID).
		Str("from", from.ID).
		Str("to", to.ID).
		Str("amount", input.Amount.String()).
		Str("destination_amount", destAmount.String()).
		Msg("exchange completed")

	return &ExchangeResult{
		Out:               out,
		In:                in,
		Rate:              obs,
		DestinationAmount: destAmount,
		ValueInBase:       valueInBase,
		DestinationRate:   destRate,
	}, nil
}

func (uc *ExchangeUseCase) validate(input ExchangeInput) (domain.Account, domain.Account, error) {
	from, err := uc.chart.Account(input.FromAccount)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	to, err := uc.chart.Account(input.ToAccount)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	if from.ID == to.ID {
		return domain.Account{}, domain.Account{}, fmt.Errorf("%w: %s", domain.ErrSameAccount, from.ID)
	}

	if err := domain.ValidatePositiveAmount(input.Amount); err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	if _, err := uc.rates.validate(from.Currency, input.RateToBase); err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	return from, to, nil
}

// destinationRate resolves the value of one destination unit in base.
func (uc *ExchangeUseCase) destinationRate(ctx context.Context, from, to domain.Account, rateToBase decimal.Decimal) (decimal.Decimal, error) {
	switch to.Currency {
	case uc.rates.BaseCurrency():
		return decimal.NewFromInt(1), nil
	case from.Currency:
		return rateToBase, nil
	}

	obs, err := uc.rates.LatestRate(ctx, to.Currency)
	if err != nil {
		return decimal.Zero, err
	}

	return obs.ValueInBase, nil
}
