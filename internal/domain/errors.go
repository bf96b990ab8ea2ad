package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ledger wraps exactly one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrRateNotFound = errors.New("rate not found")
	ErrStorage      = errors.New("storage failure")
)

var (
	// Entry errors
	ErrUnknownAccount     = fmt.Errorf("%w: unknown account", ErrValidation)
	ErrUnknownCategory    = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrUnknownKind        = fmt.Errorf("%w: unknown entry kind", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrCurrencyMismatch   = fmt.Errorf("%w: currency does not match account", ErrValidation)
	ErrCategoryNotAllowed = fmt.Errorf("%w: category is only allowed on expenses", ErrValidation)

	// Exchange errors
	ErrSameAccount = fmt.Errorf("%w: source and destination accounts are the same", ErrValidation)

	// Rate errors
	ErrInvalidRate          = fmt.Errorf("%w: rate must be a positive number", ErrValidation)
	ErrInvalidCurrency      = fmt.Errorf("%w: invalid currency code", ErrValidation)
	ErrBaseRateFixed        = fmt.Errorf("%w: base currency rate is fixed at 1", ErrValidation)
	ErrBaseCurrencyMismatch = fmt.Errorf("%w: configured base currency differs from stored one", ErrValidation)

	// Report errors
	ErrInvalidPeriod = fmt.Errorf("%w: invalid report period", ErrValidation)
)

// RateNotFoundError names the currency that has no rate observation yet.
type RateNotFoundError struct {
	Currency string
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("no rate for %s; set one with /setrate %s <value>", e.Currency, e.Currency)
}

// Is makes errors.Is(err, ErrRateNotFound) match.
func (e *RateNotFoundError) Is(target error) bool {
	return target == ErrRateNotFound
}

// NewRateNotFound returns a RateNotFoundError for currency.
func NewRateNotFound(currency string) error {
	return &RateNotFoundError{Currency: currency}
}

// MissingRateCurrency extracts the currency from a RateNotFoundError chain.
func MissingRateCurrency(err error) (string, bool) {
	var rnf *RateNotFoundError
	if errors.As(err, &rnf) {
		return rnf.Currency, true
	}

	return "", false
}

// ErrorKind classifies errors for callers that map them to responses.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindRateNotFound ErrorKind = "rate_not_found"
	KindStorage      ErrorKind = "storage"
	KindInternal     ErrorKind = "internal"
)

// KindOf returns the kind of err. A nil error has no kind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateNotFound):
		return KindRateNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}

// StorageError wraps a driver error so that both ErrStorage and the cause
// stay reachable through errors.Is/As.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
