package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// SettingsRepository implements usecase.SettingsRepository.
type SettingsRepository struct {
	pool DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(pool DB) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.StorageError("get setting", err)
	}

	return value, true, nil
}

// SetIfAbsent stores value unless key already has one, and returns what is
// stored afterwards.
func (r *SettingsRepository) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING`, key, value)
	if err != nil {
		return "", domain.StorageError("set setting", err)
	}

	stored, ok, err := r.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.StorageError("set setting", errors.New("setting vanished after insert"))
	}

	return stored, nil
}
