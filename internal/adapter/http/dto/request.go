package dto

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup from free text supplied by clients. The policy
// entity-encodes what it keeps, so the result is unescaped back to plain text
// before it reaches the append-only log.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// RecordEntryRequest is the body of POST /expenses and POST /incomes.
type RecordEntryRequest struct {
	Account  string `json:"account"`
	Category string `json:"category,omitempty"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Note     string `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordEntryRequest) ToUseCaseInput(actor domain.Actor) (usecase.RecordInput, error) {
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return usecase.RecordInput{}, err
	}

	return usecase.RecordInput{
		Actor:    actor,
		Account:  strings.TrimSpace(r.Account),
		Category: strings.ToLower(strings.TrimSpace(r.Category)),
		Currency: strings.ToUpper(strings.TrimSpace(r.Currency)),
		Note:     SanitizeText(r.Note),
		Amount:   amount,
	}, nil
}

// ExchangeRequest is the body of POST /exchanges. RateToBase is the value of
// one unit of the source currency in the base currency.
type ExchangeRequest struct {
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Amount      string `json:"amount"`
	RateToBase  string `json:"rate_to_base"`
}

// ToUseCaseInput converts to use case input.
func (r *ExchangeRequest) ToUseCaseInput(actor domain.Actor) (usecase.ExchangeInput, error) {
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return usecase.ExchangeInput{}, err
	}

	rate, err := parseRate(r.RateToBase)
	if err != nil {
		return usecase.ExchangeInput{}, err
	}

	return usecase.ExchangeInput{
		Actor:       actor,
		FromAccount: strings.TrimSpace(r.FromAccount),
		ToAccount:   strings.TrimSpace(r.ToAccount),
		Amount:      amount,
		RateToBase:  rate,
	}, nil
}

// SetRateRequest is the body of POST /rates.
type SetRateRequest struct {
	Currency    string `json:"currency"`
	ValueInBase string `json:"value_in_base"`
}

// Parse returns the currency and the parsed rate.
func (r *SetRateRequest) Parse() (string, decimal.Decimal, error) {
	rate, err := parseRate(r.ValueInBase)
	if err != nil {
		return "", decimal.Zero, err
	}

	return strings.TrimSpace(r.Currency), rate, nil
}

// ReconcileRequest is the body of POST /reconciliations.
type ReconcileRequest struct {
	Account  string `json:"account"`
	Observed string `json:"observed"`
}

// ToUseCaseInput converts to use case input.
func (r *ReconcileRequest) ToUseCaseInput(actor domain.Actor) (usecase.ReconcileInput, error) {
	observed, err := domain.ParseAmount(r.Observed)
	if err != nil {
		return usecase.ReconcileInput{}, err
	}

	return usecase.ReconcileInput{
		Actor:    actor,
		Account:  strings.TrimSpace(r.Account),
		Observed: observed,
	}, nil
}

// DialogueRequest is one message typed by a user.
type DialogueRequest struct {
	Text string `json:"text"`
}

func parseRate(s string) (decimal.Decimal, error) {
	rate, err := domain.ParseAmount(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidRate, s)
	}

	return rate, nil
}
