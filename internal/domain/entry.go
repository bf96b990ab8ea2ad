package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Actor records who performed an action. Both fields are optional.
type Actor struct {
	ID   string
	Name string
}

// Entry is one immutable record in the append-only transaction log. Amount is
// never negative; the direction comes from Kind.
type Entry struct {
	CreatedAt time.Time
	Actor     Actor
	Kind      Kind
	Category  string
	Account   string
	Currency  string
	Note      string
	PairID    string
	Amount    decimal.Decimal
	ID        int64
}

// Signed returns the entry's contribution to its account balance.
func (e *Entry) Signed() decimal.Decimal {
	return e.Kind.Apply(e.Amount)
}

// EntryFilter narrows a log query. Zero values mean "no constraint"; From and
// To are inclusive.
type EntryFilter struct {
	From    time.Time
	To      time.Time
	Account string
	Kinds   []Kind
}

// Matches reports whether e satisfies the filter.
func (f EntryFilter) Matches(e *Entry) bool {
	if f.Account != "" && e.Account != f.Account {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind) {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.CreatedAt.After(f.To) {
		return false
	}

	return true
}
