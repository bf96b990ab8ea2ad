package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateObservation is one operator-supplied conversion factor: one unit of
// Currency is worth ValueInBase units of the base currency.
type RateObservation struct {
	ObservedAt  time.Time
	Currency    string
	ValueInBase decimal.Decimal
	ID          int64
}

// Convert returns amount expressed in the base currency.
func (r *RateObservation) Convert(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.ValueInBase)
}
