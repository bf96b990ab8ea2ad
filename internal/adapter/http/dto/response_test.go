package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

func TestEntryFromDomain(t *testing.T) {
	now := time.Now()
	entry := &domain.Entry{
		ID:        3,
		CreatedAt: now,
		Actor:     domain.Actor{ID: "42", Name: "Anna"},
		Kind:      domain.KindExpense,
		Category:  "food",
		Account:   "cash-ARS",
		Amount:    decimal.RequireFromString("123.45"),
		Currency:  "ARS",
	}

	resp := EntryFromDomain(entry)
	if resp.ID != 3 || resp.Amount != "123.45" || resp.Kind != "expense" || resp.ActorName != "Anna" {
		t.Fatalf("unexpected entry response: %+v", resp)
	}

	list := EntriesFromDomain([]*domain.Entry{entry})
	if len(list) != 1 || list[0].ID != entry.ID {
		t.Fatalf("EntriesFromDomain returned %+v", list)
	}

	if EntryFromDomain(nil) != nil {
		t.Fatalf("expected nil for nil entry")
	}
}

func TestAccountsFromChart(t *testing.T) {
	chart, err := domain.NewChart("USD", []domain.Account{
		{ID: "cash-ARS", Currency: "ARS"},
		{ID: "cash-USD", Currency: "USD", Name: "Dollars"},
	}, []string{"food"})
	if err != nil {
		t.Fatalf("NewChart: %v", err)
	}

	resp := AccountsFromChart(chart)
	if resp.BaseCurrency != "USD" || len(resp.Accounts) != 2 {
		t.Fatalf("unexpected accounts response: %+v", resp)
	}
	if resp.Accounts[0].Name != "cash-ARS" || resp.Accounts[1].Name != "Dollars" {
		t.Fatalf("unexpected account names: %+v", resp.Accounts)
	}
}

func TestExchangeFromUseCaseWithoutRate(t *testing.T) {
	result := &usecase.ExchangeResult{
		Out:               &domain.Entry{ID: 1, Kind: domain.KindExchangeOut, Amount: decimal.NewFromInt(10)},
		In:                &domain.Entry{ID: 2, Kind: domain.KindExchangeIn, Amount: decimal.RequireFromString("9.2")},
		DestinationAmount: decimal.RequireFromString("9.2"),
		DestinationRate:   decimal.RequireFromString("1.087"),
		ValueInBase:       decimal.NewFromInt(10),
	}

	resp := ExchangeFromUseCase(result)
	if resp.Rate != nil {
		t.Fatalf("expected no rate observation, got %+v", resp.Rate)
	}
	if resp.Out.ID != 1 || resp.In.Amount != "9.2" || resp.ValueInBase != "10" {
		t.Fatalf("unexpected exchange response: %+v", resp)
	}
}

func TestReportFromUseCase(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	report := &usecase.Report{
		Window:       domain.Window{Start: start, End: start.Add(time.Hour)},
		Period:       domain.PeriodMonthToDate,
		BaseCurrency: "USD",
		Categories: []usecase.CategoryTotal{
			{Category: "food", Native: map[string]decimal.Decimal{"ARS": decimal.NewFromInt(1000)}, Base: decimal.NewFromInt(1)},
		},
		Total:        decimal.NewFromInt(1),
		MissingRates: []string{"BTC"},
	}

	resp := ReportFromUseCase(report)
	if resp.Period != "month-to-date" || resp.Categories[0].Native["ARS"] != "1000" || resp.MissingRates[0] != "BTC" {
		t.Fatalf("unexpected report response: %+v", resp)
	}
}

func TestConsistencyFromUseCaseUsesEmptyLists(t *testing.T) {
	resp := ConsistencyFromUseCase(&usecase.ConsistencyReport{Consistent: true, Pairs: 2, ExchangeLegs: 4})
	if resp.UnpairedEntries == nil || resp.IncompletePairs == nil {
		t.Fatalf("expected empty lists, got %+v", resp)
	}
}
