package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

//go:embed default_chart.yaml
var defaultChart []byte

// ChartFile is the YAML layout of the chart of accounts.
type ChartFile struct {
	Accounts   []AccountConfig `yaml:"accounts"   validate:"required,min=1,dive"`
	Categories []string        `yaml:"categories" validate:"dive,required"`
}

// AccountConfig describes one wallet.
type AccountConfig struct {
	ID       string `yaml:"id"             validate:"required,max=64"`
	Currency string `yaml:"currency"       validate:"required,alphanum,max=10"`
	Name     string `yaml:"name,omitempty" validate:"max=128"`
}

// LoadChart reads the chart at path, or the built-in one when path is empty,
// and freezes it with baseCurrency.
func LoadChart(path, baseCurrency string) (*domain.Chart, error) {
	buf := defaultChart
	if path != "" {
		var err error
		buf, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read chart: %w", err)
		}
	}

	file, err := parseChart(buf)
	if err != nil {
		if path == "" {
			path = "built-in chart"
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	accounts := make([]domain.Account, len(file.Accounts))
	for i, a := range file.Accounts {
		accounts[i] = domain.Account{ID: a.ID, Currency: a.Currency, Name: a.Name}
	}

	return domain.NewChart(baseCurrency, accounts, file.Categories)
}

func parseChart(buf []byte) (*ChartFile, error) {
	file := &ChartFile{}

	decoder := yaml.NewDecoder(bytes.NewReader(buf))
	decoder.KnownFields(true)
	if err := decoder.Decode(file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("chart is empty")
		}
		return nil, fmt.Errorf("decode chart: %w", err)
	}

	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("invalid chart: %w", err)
	}

	return file, nil
}
