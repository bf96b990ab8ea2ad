package domain

import (
	"iter"

	"github.com/shopspring/decimal"
)

// FoldBalance sums the signed amounts of entries. The first error stops the
// fold and is returned as is.
func FoldBalance(entries iter.Seq2[*Entry, error]) (decimal.Decimal, error) {
	total := decimal.Zero
	for e, err := range entries {
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(e.Signed())
	}

	return total, nil
}

// FoldBalances folds entries into one balance per account in a single pass.
func FoldBalances(entries iter.Seq2[*Entry, error]) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for e, err := range entries {
		if err != nil {
			return nil, err
		}
		totals[e.Account] = totals[e.Account].Add(e.Signed())
	}

	return totals, nil
}
