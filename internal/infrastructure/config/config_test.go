package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnnaArgentina/family-budget-bot/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "USD", cfg.BaseCurrency)
	assert.Equal(t, "ARS", cfg.DefaultInputCurrency)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BASE_CURRENCY", " eur ")
	t.Setenv("REPORT_TIMEZONE", "America/Argentina/Buenos_Aires")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "postgres://example", cfg.DatabaseURL)
	assert.Equal(t, "redis://example", cfg.RedisURL)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "EUR", cfg.BaseCurrency)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Location().String())
	assert.True(t, cfg.AuthEnabled)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_PORT=7070\n"), 0o600))
	t.Setenv("HTTP_PORT", "")
	os.Unsetenv("HTTP_PORT")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mysql"}},
		{"unknown time zone", map[string]string{"REPORT_TIMEZONE": "Mars/Olympus"}},
		{"auth without secret", map[string]string{"AUTH_ENABLED": "true", "JWT_SECRET": ""}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"zero burst", map[string]string{"RATE_LIMIT_BURST": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestLoadChartDefault(t *testing.T) {
	chart, err := config.LoadChart("", "USD")
	require.NoError(t, err)

	accounts := chart.Accounts()
	require.Len(t, accounts, 10)
	assert.Equal(t, "cash-ARS", accounts[0].ID)
	assert.Equal(t, "card-EUR", accounts[9].ID)
	assert.Equal(t, []string{"food", "rent", "entertainment", "other"}, chart.Categories())
	assert.Equal(t, []string{"ARS", "RUB", "USD", "USDT", "BTC", "ETH", "EUR"}, chart.Currencies())
	assert.Equal(t, "USD", chart.BaseCurrency())
}

func TestLoadChartFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.yaml")
	content := "accounts:\n  - id: wallet\n    currency: gbp\ncategories: [Food]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	chart, err := config.LoadChart(path, "GBP")
	require.NoError(t, err)

	acc, err := chart.Account("wallet")
	require.NoError(t, err)
	assert.Equal(t, "GBP", acc.Currency)
	assert.Equal(t, "wallet", acc.Name)
	assert.True(t, chart.HasCategory("food"))
}

func TestLoadChartRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"unknown field", "accounts:\n  - id: a\n    currency: USD\n    balance: 5\n"},
		{"no accounts", "categories: [food]\n"},
		{"missing currency", "accounts:\n  - id: a\n"},
		{"duplicate account", "accounts:\n  - id: a\n    currency: USD\n  - id: a\n    currency: EUR\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "chart.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := config.LoadChart(path, "USD")
			require.Error(t, err)
		})
	}
}

func TestLoadChartMissingFile(t *testing.T) {
	_, err := config.LoadChart(filepath.Join(t.TempDir(), "absent.yaml"), "USD")
	require.Error(t, err)
}
