package usecase

import (
	"context"
	"slices"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// LedgerUseCase handles ledger-wide audits.
type LedgerUseCase struct {
	log *TransactionLog
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(log *TransactionLog) *LedgerUseCase {
	return &LedgerUseCase{log: log}
}

// ConsistencyReport lists exchange legs that do not form a complete pair.
type ConsistencyReport struct {
	// UnpairedEntries are exchange legs stored without a pair id.
	UnpairedEntries []int64
	// IncompletePairs are pair ids that do not have exactly one leg of each
	// direction.
	IncompletePairs []string
	ExchangeLegs    int
	Pairs           int
	Consistent      bool
}

// CheckConsistency verifies that every exchange has both of its legs.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	type legs struct{ out, in int }

	pairs := make(map[string]*legs)
	report := &ConsistencyReport{}

	filter := domain.EntryFilter{Kinds: []domain.Kind{domain.KindExchangeOut, domain.KindExchangeIn}}
	for e, err := range uc.log.Query(ctx, filter) {
		if err != nil {
			return nil, err
		}

		report.ExchangeLegs++
		if e.PairID == "" {
			report.UnpairedEntries = append(report.UnpairedEntries, e.ID)
			continue
		}

		p, ok := pairs[e.PairID]
		if !ok {
			p = &legs{}
			pairs[e.PairID] = p
		}
		if e.Kind == domain.KindExchangeOut {
			p.out++
		} else {
			p.in++
		}
	}

	for id, p := range pairs {
		if p.out != 1 || p.in != 1 {
			report.IncompletePairs = append(report.IncompletePairs, id)
		}
	}
	slices.Sort(report.IncompletePairs)

	report.Pairs = len(pairs)
	report.Consistent = len(report.UnpairedEntries) == 0 && len(report.IncompletePairs) == 0

	return report, nil
}
