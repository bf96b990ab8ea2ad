package usecase

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// ReportUseCase summarises expenses per category over a time window.
type ReportUseCase struct {
	log   *TransactionLog
	rates *RateUseCase
	loc   *time.Location
	opts  options
}

// NewReportUseCase creates a new ReportUseCase. Calendar periods are
// resolved in loc.
func NewReportUseCase(log *TransactionLog, rates *RateUseCase, loc *time.Location, opts ...Option) *ReportUseCase {
	if loc == nil {
		loc = time.UTC
	}

	return &ReportUseCase{
		log:   log,
		rates: rates,
		loc:   loc,
		opts:  newOptions(opts),
	}
}

// CategoryTotal is the spend of one category.
type CategoryTotal struct {
	Category string
	// Native holds the unconverted sum per currency.
	Native map[string]decimal.Decimal
	Base   decimal.Decimal
}

// Report is an expense summary. Categories are sorted by name.
type Report struct {
	Window       domain.Window
	Period       domain.PeriodKind
	BaseCurrency string
	Categories   []CategoryTotal
	Total        decimal.Decimal
	// MissingRates lists currencies that contributed 0 for lack of a rate.
	MissingRates []string
}

// Report resolves period against the current time and summarises it.
func (uc *ReportUseCase) Report(ctx context.Context, period domain.Period) (*Report, error) {
	if period.Kind == "" {
		period.Kind = domain.PeriodLast30Days
	}

	window, err := period.Resolve(uc.opts.now(), uc.loc)
	if err != nil {
		return nil, err
	}

	r, err := uc.Summarize(ctx, window)
	if err != nil {
		return nil, err
	}
	r.Period = period.Kind

	return r, nil
}

// Summarize groups expenses with start <= timestamp <= end. A currency
// without a rate contributes 0 instead of failing the report.
func (uc *ReportUseCase) Summarize(ctx context.Context, window domain.Window) (*Report, error) {
	filter := domain.EntryFilter{
		Kinds: []domain.Kind{domain.KindExpense},
		From:  window.Start.UTC(),
		To:    window.End.UTC(),
	}

	sums := make(map[string]map[string]decimal.Decimal)
	for e, err := range uc.log.Query(ctx, filter) {
		if err != nil {
			return nil, err
		}

		category := e.Category
		if category == "" {
			category = UncategorizedCategory
		}
		if sums[category] == nil {
			sums[category] = make(map[string]decimal.Decimal)
		}
		sums[category][e.Currency] = sums[category][e.Currency].Add(e.Amount)
	}

	rates, missing, err := uc.resolveRates(ctx, sums)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Window:       window,
		BaseCurrency: uc.rates.BaseCurrency(),
		Categories:   make([]CategoryTotal, 0, len(sums)),
		Total:        decimal.Zero,
		MissingRates: missing,
	}

	for category, byCurrency := range sums {
		ct := CategoryTotal{Category: category, Native: byCurrency, Base: decimal.Zero}
		for cur, amount := range byCurrency {
			if rate, ok := rates[cur]; ok {
				ct.Base = ct.Base.Add(amount.Mul(rate))
			}
		}
		r.Categories = append(r.Categories, ct)
		r.Total = r.Total.Add(ct.Base)
	}

	slices.SortFunc(r.Categories, func(a, b CategoryTotal) int {
		switch {
		case a.Category < b.Category:
			return -1
		case a.Category > b.Category:
			return 1
		default:
			return 0
		}
	})

	return r, nil
}

func (uc *ReportUseCase) resolveRates(ctx context.Context, sums map[string]map[string]decimal.Decimal) (map[string]decimal.Decimal, []string, error) {
	rates := make(map[string]decimal.Decimal)
	var missing []string

	for _, byCurrency := range sums {
		for cur := range byCurrency {
			if _, ok := rates[cur]; ok || slices.Contains(missing, cur) {
				continue
			}

			obs, err := uc.rates.LatestRate(ctx, cur)
			switch {
			case err == nil:
				rates[cur] = obs.ValueInBase
			case errors.Is(err, domain.ErrRateNotFound):
				missing = append(missing, cur)
			default:
				return nil, nil, err
			}
		}
	}

	slices.Sort(missing)

	return rates, missing, nil
}
