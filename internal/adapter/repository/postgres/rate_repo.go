package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

const rateColumns = `id, observed_at, currency, value_in_base::text`

// RateRepository implements usecase.RateRepository.
type RateRepository struct {
	pool DB
}

// NewRateRepository creates a new RateRepository.
func NewRateRepository(pool DB) *RateRepository {
	return &RateRepository{pool: pool}
}

// Append inserts obs and sets its ID.
func (r *RateRepository) Append(ctx context.Context, tx usecase.Transaction, obs *domain.RateObservation) error {
	err := conn(r.pool, tx).QueryRow(ctx, `
		INSERT INTO fx_rates (observed_at, currency, value_in_base)
		VALUES ($1, $2, $3)
		RETURNING id`,
		timeToPgTimestamptz(obs.ObservedAt),
		obs.Currency,
		decimalToNumeric(obs.ValueInBase),
	).Scan(&obs.ID)

	return domain.StorageError("append rate", err)
}

// Latest returns the newest observation for currency.
func (r *RateRepository) Latest(ctx context.Context, currency string) (*domain.RateObservation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+rateColumns+`
		FROM fx_rates
		WHERE currency = $1
		ORDER BY observed_at DESC, id DESC
		LIMIT 1`, currency)

	obs, err := scanRate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewRateNotFound(currency)
	}

	return obs, err
}

// History returns up to limit observations for currency, newest first.
func (r *RateRepository) History(ctx context.Context, currency string, limit int) ([]*domain.RateObservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rateColumns+`
		FROM fx_rates
		WHERE currency = $1
		ORDER BY observed_at DESC, id DESC
		LIMIT $2`, currency, limit)
	if err != nil {
		return nil, domain.StorageError("rate history", err)
	}
	defer rows.Close()

	var out []*domain.RateObservation
	for rows.Next() {
		obs, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}

	return out, domain.StorageError("rate history", rows.Err())
}

// scanRate leaves pgx.ErrNoRows reachable for the caller.
func scanRate(row pgx.Row) (*domain.RateObservation, error) {
	var (
		obs   domain.RateObservation
		value string
	)

	if err := row.Scan(&obs.ID, &obs.ObservedAt, &obs.Currency, &value); err != nil {
		return nil, domain.StorageError("scan rate", err)
	}

	v, err := decimal.NewFromString(value)
	if err != nil {
		return nil, domain.StorageError("scan rate value", err)
	}

	obs.ObservedAt = obs.ObservedAt.UTC()
	obs.ValueInBase = v

	return &obs, nil
}
