package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// RateUseCase is the rate store: operator-supplied conversion factors to the
// base currency, append-only.
type RateUseCase struct {
	baseCurrency string
	txManager    TransactionManager
	rateRepo     RateRepository
	settingsRepo SettingsRepository
	opts         options
}

// NewRateUseCase creates a new RateUseCase.
func NewRateUseCase(
	chart *domain.Chart,
	txManager TransactionManager,
	rateRepo RateRepository,
	settingsRepo SettingsRepository,
	opts ...Option,
) *RateUseCase {
	return &RateUseCase{
		baseCurrency: chart.BaseCurrency(),
		txManager:    txManager,
		rateRepo:     rateRepo,
		settingsRepo: settingsRepo,
		opts:         newOptions(opts),
	}
}

// BaseCurrency returns the currency all rates are expressed in.
func (uc *RateUseCase) BaseCurrency() string {
	return uc.baseCurrency
}

// EnsureBaseCurrency records the base currency on first start and refuses to
// run against a store that was seeded with a different one. It also seeds
// the base rate observation of 1.
func (uc *RateUseCase) EnsureBaseCurrency(ctx context.Context) error {
	stored, err := uc.settingsRepo.SetIfAbsent(ctx, SettingBaseCurrency, uc.baseCurrency)
	if err != nil {
		return err
	}

	if stored != uc.baseCurrency {
		return fmt.Errorf("%w: store has %s, configured %s", domain.ErrBaseCurrencyMismatch, stored, uc.baseCurrency)
	}

	_, err = uc.rateRepo.Latest(ctx, uc.baseCurrency)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrRateNotFound) {
		return err
	}

	return runInTx(ctx, uc.txManager, uc.opts.retrier, func(ctx context.Context, tx Transaction) error {
		_, err := uc.record(ctx, tx, uc.baseCurrency, decimal.NewFromInt(1))
		return err
	})
}

// SetRate appends an observation for currency.
func (uc *RateUseCase) SetRate(ctx context.Context, currency string, valueInBase decimal.Decimal) (*domain.RateObservation, error) {
	cur, err := uc.validate(currency, valueInBase)
	if err != nil {
		return nil, err
	}

	var obs *domain.RateObservation
	err = runInTx(ctx, uc.txManager, uc.opts.retrier, func(ctx context.Context, tx Transaction) error {
		obs, err = uc.record(ctx, tx, cur, valueInBase)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.opts.metrics.RateSet(cur)
	uc.opts.logger.Info().
		Str("currency", cur).
		Str("value_in_base", valueInBase.String()).
		Msg("rate set")

	return obs, nil
}

// LatestRate returns the most recent observation for currency. The base
// currency always resolves to 1.
func (uc *RateUseCase) LatestRate(ctx context.Context, currency string) (*domain.RateObservation, error) {
	cur, err := domain.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	if cur == uc.baseCurrency {
		return &domain.RateObservation{Currency: cur, ValueInBase: decimal.NewFromInt(1)}, nil
	}

	obs, err := uc.rateRepo.Latest(ctx, cur)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			uc.opts.metrics.RateMissing(cur)
			uc.opts.logger.Warn().Str("currency", cur).Msg("rate missing")
		}
		return nil, err
	}

	return obs, nil
}

// RateHistory lists observations for currency, newest first.
func (uc *RateUseCase) RateHistory(ctx context.Context, currency string, limit int) ([]*domain.RateObservation, error) {
	cur, err := domain.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultRateHistoryLimit
	}

	return uc.rateRepo.History(ctx, cur, limit)
}

func (uc *RateUseCase) validate(currency string, valueInBase decimal.Decimal) (string, error) {
	cur, err := domain.NormalizeCurrency(currency)
	if err != nil {
		return "", err
	}

	if err := domain.ValidateRate(valueInBase); err != nil {
		return "", err
	}

	if cur == uc.baseCurrency && !valueInBase.Equal(decimal.NewFromInt(1)) {
		return "", fmt.Errorf("%w: got %s for %s", domain.ErrBaseRateFixed, valueInBase, cur)
	}

	return cur, nil
}

// record appends an already validated observation inside tx.
func (uc *RateUseCase) record(ctx context.Context, tx Transaction, currency string, valueInBase decimal.Decimal) (*domain.RateObservation, error) {
	obs := &domain.RateObservation{
		ObservedAt:  uc.opts.stamp(),
		Currency:    currency,
		ValueInBase: valueInBase,
	}

	if err := uc.rateRepo.Append(ctx, tx, obs); err != nil {
		return nil, err
	}

	return obs, nil
}
