package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

// EntryUseCase records expenses and incomes and lists log entries.
type EntryUseCase struct {
	chart *domain.Chart
	log   *TransactionLog
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(chart *domain.Chart, log *TransactionLog) *EntryUseCase {
	return &EntryUseCase{chart: chart, log: log}
}

// RecordInput describes an expense or income. An empty Currency defaults to
// the account's native currency.
type RecordInput struct {
	Actor    domain.Actor
	Account  string
	Category string
	Currency string
	Note     string
	Amount   decimal.Decimal
}

// RecordExpense appends an expense entry.
func (uc *EntryUseCase) RecordExpense(ctx context.Context, input RecordInput) (*domain.Entry, error) {
	return uc.record(ctx, domain.KindExpense, input)
}

// RecordIncome appends an income entry. Incomes carry no category.
func (uc *EntryUseCase) RecordIncome(ctx context.Context, input RecordInput) (*domain.Entry, error) {
	return uc.record(ctx, domain.KindIncome, input)
}

func (uc *EntryUseCase) record(ctx context.Context, kind domain.Kind, input RecordInput) (*domain.Entry, error) {
	if err := domain.ValidatePositiveAmount(input.Amount); err != nil {
		return nil, err
	}

	acc, err := uc.chart.Account(input.Account)
	if err != nil {
		return nil, err
	}

	currency := acc.Currency
	if strings.TrimSpace(input.Currency) != "" {
		currency, err = domain.NormalizeCurrency(input.Currency)
		if err != nil {
			return nil, err
		}
	}

	return uc.log.Append(ctx, &domain.Entry{
		Actor:    input.Actor,
		Kind:     kind,
		Category: strings.ToLower(strings.TrimSpace(input.Category)),
		Account:  acc.ID,
		Amount:   input.Amount,
		Currency: currency,
		Note:     strings.TrimSpace(input.Note),
	})
}

// ListEntriesInput filters a log listing. Limit <= 0 means no limit.
type ListEntriesInput struct {
	Filter domain.EntryFilter
	Limit  int
}

// ListEntries collects matching entries in insertion order.
func (uc *EntryUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.Entry, error) {
	if input.Filter.Account != "" {
		if _, err := uc.chart.Account(input.Filter.Account); err != nil {
			return nil, err
		}
	}

	var entries []*domain.Entry
	for e, err := range uc.log.Query(ctx, input.Filter) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		if input.Limit > 0 && len(entries) >= input.Limit {
			break
		}
	}

	return entries, nil
}
