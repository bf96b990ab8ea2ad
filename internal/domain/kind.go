package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the movement kind of a ledger entry. The set is closed; each kind
// carries the sign it applies to the stored (non-negative) amount.
type Kind string

const (
	KindExpense       Kind = "expense"
	KindIncome        Kind = "income"
	KindExchangeOut   Kind = "exchange_out"
	KindExchangeIn    Kind = "exchange_in"
	KindReconcileUp   Kind = "reconcile_up"
	KindReconcileDown Kind = "reconcile_down"
)

// AllKinds lists every valid kind in declaration order.
func AllKinds() []Kind {
	return []Kind{
		KindExpense,
		KindIncome,
		KindExchangeOut,
		KindExchangeIn,
		KindReconcileUp,
		KindReconcileDown,
	}
}

// Sign returns +1 for kinds that increase an account balance, -1 for kinds
// that decrease it and 0 for values outside the enumeration.
func (k Kind) Sign() int {
	switch k {
	case KindIncome, KindExchangeIn, KindReconcileUp:
		return 1
	case KindExpense, KindExchangeOut, KindReconcileDown:
		return -1
	default:
		return 0
	}
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	return k.Sign() != 0
}

// IsReconcile reports whether k is one of the reconciliation adjustments.
func (k Kind) IsReconcile() bool {
	return k == KindReconcileUp || k == KindReconcileDown
}

// IsExchange reports whether k is one leg of an exchange.
func (k Kind) IsExchange() bool {
	return k == KindExchangeOut || k == KindExchangeIn
}

// Apply returns amount with the kind's sign applied.
func (k Kind) Apply(amount decimal.Decimal) decimal.Decimal {
	switch k.Sign() {
	case 1:
		return amount
	case -1:
		return amount.Neg()
	default:
		return decimal.Zero
	}
}

// ParseKind parses the storage/wire form of a kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}

	return k, nil
}

// kindGroups are filter shorthands covering both directions of a kind.
var kindGroups = map[string][]Kind{
	"reconcile": {KindReconcileUp, KindReconcileDown},
	"exchange":  {KindExchangeOut, KindExchangeIn},
}

// ParseKindFilter parses a kind as used in entry filters, where "reconcile"
// and "exchange" stand for both of their directions.
func ParseKindFilter(s string) ([]Kind, error) {
	if group, ok := kindGroups[strings.ToLower(strings.TrimSpace(s))]; ok {
		return append([]Kind(nil), group...), nil
	}

	k, err := ParseKind(s)
	if err != nil {
		return nil, err
	}

	return []Kind{k}, nil
}
