package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxNoteLength = 500
	// ReconcileEpsilon is the drift below which a reconciliation is a
	// confirmation rather than an adjustment.
	ReconcileEpsilon = "0.000000001"
	// ExchangePrecision is the number of decimal places kept on the
	// destination leg of an exchange.
	ExchangePrecision = 8
)

// Crypto tickers such as USDT are accepted next to ISO 4217 codes.
var currencyRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

// NormalizeCurrency upper-cases and validates a currency code.
func NormalizeCurrency(currency string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if !currencyRegex.MatchString(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}

	return c, nil
}

// ValidatePositiveAmount rejects zero and negative amounts.
func ValidatePositiveAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, amount)
	}

	return nil
}

// ValidateRate rejects zero and negative rates.
func ValidateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidRate, rate)
	}

	return nil
}

// ValidateNote bounds free-form notes.
func ValidateNote(note string) error {
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return fmt.Errorf("%w: note exceeds %d characters", ErrValidation, MaxNoteLength)
	}

	return nil
}

// ParseAmount parses user-typed amounts, accepting a comma as the decimal
// separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}

	return d, nil
}
