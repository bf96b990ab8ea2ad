package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

const rateColumns = `id, observed_at, currency, value_in_base`

// RateRepository implements usecase.RateRepository.
type RateRepository struct {
	db DB
}

// NewRateRepository creates a new RateRepository.
func NewRateRepository(db DB) *RateRepository {
	return &RateRepository{db: db}
}

// Append inserts obs and sets its ID.
func (r *RateRepository) Append(ctx context.Context, tx usecase.Transaction, obs *domain.RateObservation) error {
	res, err := conn(r.db, tx).ExecContext(ctx, `
		INSERT INTO fx_rates (observed_at, currency, value_in_base)
		VALUES (?, ?, ?)`,
		formatTime(obs.ObservedAt),
		obs.Currency,
		obs.ValueInBase.String(),
	)
	if err != nil {
		return domain.StorageError("append rate", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.StorageError("append rate", err)
	}
	obs.ID = id

	return nil
}

// Latest returns the newest observation for currency. Ties on the timestamp
// go to the later insert.
func (r *RateRepository) Latest(ctx context.Context, currency string) (*domain.RateObservation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+rateColumns+`
		FROM fx_rates
		WHERE currency = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT 1`, currency)

	var (
		obs      domain.RateObservation
		observed string
		value    string
	)

	err := row.Scan(&obs.ID, &observed, &obs.Currency, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewRateNotFound(currency)
	}
	if err != nil {
		return nil, domain.StorageError("latest rate", err)
	}

	return finishRate(&obs, observed, value)
}

// History returns up to limit observations for currency, newest first.
func (r *RateRepository) History(ctx context.Context, currency string, limit int) ([]*domain.RateObservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+rateColumns+`
		FROM fx_rates
		WHERE currency = ?
		ORDER BY observed_at DESC, id DESC
		LIMIT ?`, currency, limit)
	if err != nil {
		return nil, domain.StorageError("rate history", err)
	}
	defer rows.Close()

	var out []*domain.RateObservation
	for rows.Next() {
		var (
			obs      domain.RateObservation
			observed string
			value    string
		)
		if err := rows.Scan(&obs.ID, &observed, &obs.Currency, &value); err != nil {
			return nil, domain.StorageError("rate history", err)
		}
		o, err := finishRate(&obs, observed, value)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}

	return out, domain.StorageError("rate history", rows.Err())
}

func finishRate(obs *domain.RateObservation, observed, value string) (*domain.RateObservation, error) {
	var err error

	if obs.ObservedAt, err = parseTime(observed); err != nil {
		return nil, domain.StorageError("scan rate", err)
	}
	if obs.ValueInBase, err = parseDecimal(value); err != nil {
		return nil, domain.StorageError("scan rate", err)
	}

	return obs, nil
}
