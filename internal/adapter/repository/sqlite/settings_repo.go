package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// SettingsRepository implements usecase.SettingsRepository.
type SettingsRepository struct {
	db DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
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
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value)
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
