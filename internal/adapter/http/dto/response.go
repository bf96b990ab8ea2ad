package dto

import (
	"time"

	"github.com/AnnaArgentina/family-budget-bot/internal/dialogue"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

// ErrorResponse is the body of every non-2xx API response. Currency is set
// when a rate is missing.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// AccountResponse represents a configured wallet.
type AccountResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// ListAccountsResponse lists the chart of accounts.
type ListAccountsResponse struct {
	Accounts     []AccountResponse `json:"accounts"`
	BaseCurrency string            `json:"base_currency"`
}

// AccountsFromChart converts the chart's accounts to responses.
func AccountsFromChart(chart *domain.Chart) ListAccountsResponse {
	accounts := chart.Accounts()
	result := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountResponse{ID: a.ID, Name: a.Name, Currency: a.Currency}
	}

	return ListAccountsResponse{Accounts: result, BaseCurrency: chart.BaseCurrency()}
}

// ListCategoriesResponse lists the expense categories.
type ListCategoriesResponse struct {
	Categories []string `json:"categories"`
}

// EntryResponse represents a ledger entry.
type EntryResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ActorID   string    `json:"actor_id,omitempty"`
	ActorName string    `json:"actor_name,omitempty"`
	Kind      string    `json:"kind"`
	Category  string    `json:"category,omitempty"`
	Account   string    `json:"account"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Note      string    `json:"note,omitempty"`
	PairID    string    `json:"pair_id,omitempty"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	if e == nil {
		return nil
	}

	return &EntryResponse{
		ID:        e.ID,
		CreatedAt: e.CreatedAt,
		ActorID:   e.Actor.ID,
		ActorName: e.Actor.Name,
		Kind:      string(e.Kind),
		Category:  e.Category,
		Account:   e.Account,
		Amount:    e.Amount.String(),
		Currency:  e.Currency,
		Note:      e.Note,
		PairID:    e.PairID,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse represents a log listing in insertion order.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int              `json:"total"`
}

// BalanceResponse is the native balance of one account.
type BalanceResponse struct {
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// AccountValuationResponse is one account valued in the base currency.
type AccountValuationResponse struct {
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Native   string `json:"native"`
	Rate     string `json:"rate"`
	Base     string `json:"base"`
}

// ValuationResponse values every account in the base currency.
type ValuationResponse struct {
	ValuedAt     time.Time                  `json:"valued_at"`
	BaseCurrency string                     `json:"base_currency"`
	Accounts     []AccountValuationResponse `json:"accounts"`
	Total        string                     `json:"total"`
}

// ValuationFromUseCase converts a valuation to a response.
func ValuationFromUseCase(v *usecase.Valuation) *ValuationResponse {
	accounts := make([]AccountValuationResponse, len(v.Accounts))
	for i, a := range v.Accounts {
		accounts[i] = AccountValuationResponse{
			Account:  a.Account.ID,
			Currency: a.Account.Currency,
			Native:   a.Native.String(),
			Rate:     a.Rate.String(),
			Base:     a.Base.String(),
		}
	}

	return &ValuationResponse{
		ValuedAt:     v.ValuedAt,
		BaseCurrency: v.BaseCurrency,
		Accounts:     accounts,
		Total:        v.Total.String(),
	}
}

// RateResponse represents a rate observation.
type RateResponse struct {
	ID          int64     `json:"id"`
	ObservedAt  time.Time `json:"observed_at"`
	Currency    string    `json:"currency"`
	ValueInBase string    `json:"value_in_base"`
}

// RateFromDomain converts a rate observation to a response.
func RateFromDomain(obs *domain.RateObservation) *RateResponse {
	if obs == nil {
		return nil
	}

	return &RateResponse{
		ID:          obs.ID,
		ObservedAt:  obs.ObservedAt,
		Currency:    obs.Currency,
		ValueInBase: obs.ValueInBase.String(),
	}
}

// RateHistoryResponse lists observations newest first.
type RateHistoryResponse struct {
	Currency     string          `json:"currency"`
	Observations []*RateResponse `json:"observations"`
}

// RateHistoryFromDomain converts a rate history to a response.
func RateHistoryFromDomain(currency string, history []*domain.RateObservation) *RateHistoryResponse {
	observations := make([]*RateResponse, len(history))
	for i, obs := range history {
		observations[i] = RateFromDomain(obs)
	}

	return &RateHistoryResponse{Currency: currency, Observations: observations}
}

// ExchangeResponse describes both legs of an exchange. Rate is absent when
// the source is the base currency.
type ExchangeResponse struct {
	Out               *EntryResponse `json:"out"`
	In                *EntryResponse `json:"in"`
	Rate              *RateResponse  `json:"rate,omitempty"`
	DestinationAmount string         `json:"destination_amount"`
	DestinationRate   string         `json:"destination_rate"`
	ValueInBase       string         `json:"value_in_base"`
}

// ExchangeFromUseCase converts an exchange result to a response.
func ExchangeFromUseCase(r *usecase.ExchangeResult) *ExchangeResponse {
	return &ExchangeResponse{
		Out:               EntryFromDomain(r.Out),
		In:                EntryFromDomain(r.In),
		Rate:              RateFromDomain(r.Rate),
		DestinationAmount: r.DestinationAmount.String(),
		DestinationRate:   r.DestinationRate.String(),
		ValueInBase:       r.ValueInBase.String(),
	}
}

// ReconciliationResponse describes the adjustment written by a reconciliation.
type ReconciliationResponse struct {
	Entry     *EntryResponse `json:"entry"`
	Direction string         `json:"direction"`
	Previous  string         `json:"previous"`
	Observed  string         `json:"observed"`
	Delta     string         `json:"delta"`
}

// ReconciliationFromUseCase converts a reconciliation result to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		Entry:     EntryFromDomain(r.Entry),
		Direction: string(r.Direction),
		Previous:  r.Previous.String(),
		Observed:  r.Observed.String(),
		Delta:     r.Delta.String(),
	}
}

// CategoryTotalResponse is the spend of one category.
type CategoryTotalResponse struct {
	Category string            `json:"category"`
	Native   map[string]string `json:"native"`
	Base     string            `json:"base"`
}

// ReportResponse is an expense summary over a window.
type ReportResponse struct {
	Period       string                  `json:"period"`
	Start        time.Time               `json:"start"`
	End          time.Time               `json:"end"`
	BaseCurrency string                  `json:"base_currency"`
	Categories   []CategoryTotalResponse `json:"categories"`
	Total        string                  `json:"total"`
	MissingRates []string                `json:"missing_rates,omitempty"`
}

// ReportFromUseCase converts a report to a response.
func ReportFromUseCase(r *usecase.Report) *ReportResponse {
	categories := make([]CategoryTotalResponse, len(r.Categories))
	for i, c := range r.Categories {
		native := make(map[string]string, len(c.Native))
		for cur, sum := range c.Native {
			native[cur] = sum.String()
		}
		categories[i] = CategoryTotalResponse{Category: c.Category, Native: native, Base: c.Base.String()}
	}

	return &ReportResponse{
		Period:       string(r.Period),
		Start:        r.Window.Start,
		End:          r.Window.End,
		BaseCurrency: r.BaseCurrency,
		Categories:   categories,
		Total:        r.Total.String(),
		MissingRates: r.MissingRates,
	}
}

// ConsistencyResponse reports exchange legs that lack their counterpart.
type ConsistencyResponse struct {
	Consistent      bool     `json:"consistent"`
	ExchangeLegs    int      `json:"exchange_legs"`
	Pairs           int      `json:"pairs"`
	UnpairedEntries []int64  `json:"unpaired_entries"`
	IncompletePairs []string `json:"incomplete_pairs"`
}

// ConsistencyFromUseCase converts a consistency report to a response.
func ConsistencyFromUseCase(r *usecase.ConsistencyReport) *ConsistencyResponse {
	resp := &ConsistencyResponse{
		Consistent:      r.Consistent,
		ExchangeLegs:    r.ExchangeLegs,
		Pairs:           r.Pairs,
		UnpairedEntries: r.UnpairedEntries,
		IncompletePairs: r.IncompletePairs,
	}
	if resp.UnpairedEntries == nil {
		resp.UnpairedEntries = []int64{}
	}
	if resp.IncompletePairs == nil {
		resp.IncompletePairs = []string{}
	}

	return resp
}

// DialogueResponse is the bot's reply to one message.
type DialogueResponse struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
	State   string   `json:"state,omitempty"`
}

// DialogueFromReply converts a dialogue reply to a response.
func DialogueFromReply(r *dialogue.Reply) *DialogueResponse {
	return &DialogueResponse{Text: r.Text, Options: r.Options, State: string(r.State)}
}
