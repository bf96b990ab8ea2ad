package dialogue

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

const amountHint = "Could not read the amount. Enter a number, e.g. 123.45"

func (e *Engine) promptCategory() *Reply {
	return &Reply{Text: "Pick an expense category:", Options: e.chart.Categories()}
}

func (e *Engine) promptPeriod() *Reply {
	kinds := domain.PeriodKinds()
	options := make([]string, len(kinds))
	for i, k := range kinds {
		options[i] = string(k)
	}

	return &Reply{Text: "Pick the report period:", Options: options}
}

// currencyOptions lists the chart's currencies, the default input currency
// first when defaultFirst is set.
func (e *Engine) currencyOptions(defaultFirst bool) []string {
	currencies := e.chart.Currencies()
	if !defaultFirst {
		return currencies
	}

	def := e.defaultInputCurrency()
	if i := slices.Index(currencies, def); i > 0 {
		currencies = append([]string{def}, slices.Delete(currencies, i, i+1)...)
	}

	return currencies
}

// accountIDs lists account ids, limited to currency when it is set.
func (e *Engine) accountIDs(currency string) []string {
	var ids []string
	for _, acc := range e.chart.Accounts() {
		if currency == "" || acc.Currency == currency {
			ids = append(ids, acc.ID)
		}
	}

	return ids
}

func parsePositive(text string) (decimal.Decimal, bool) {
	amount, err := domain.ParseAmount(text)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}

	return amount, true
}

func (e *Engine) pickCurrency(text string) (string, bool) {
	cur, err := domain.NormalizeCurrency(text)
	if err != nil || !slices.Contains(e.chart.Currencies(), cur) {
		return "", false
	}

	return cur, true
}

func (e *Engine) pickAccount(text, currency string) (domain.Account, bool) {
	acc, err := e.chart.Account(strings.TrimSpace(text))
	if err != nil || (currency != "" && acc.Currency != currency) {
		return domain.Account{}, false
	}

	return acc, true
}

// Expense: category -> amount -> currency -> account.

func (e *Engine) expenseCategory(s *Session, text string) *Reply {
	category := strings.ToLower(text)
	if !e.chart.HasCategory(category) {
		r := e.promptCategory()
		r.Text = "Unknown category. " + r.Text
		return r
	}

	s.Category = category
	s.State = StateExpenseAmount
	return &Reply{Text: "Enter the amount, e.g. 123.45"}
}

func (e *Engine) expenseAmount(s *Session, text string) *Reply {
	amount, ok := parsePositive(text)
	if !ok {
		return &Reply{Text: amountHint}
	}

	s.Amount = amount.String()
	s.State = StateExpenseCurrency
	return &Reply{Text: "Pick the currency:", Options: e.currencyOptions(true)}
}

func (e *Engine) expenseCurrency(s *Session, text string) *Reply {
	cur, ok := e.pickCurrency(text)
	if !ok {
		return &Reply{Text: "Unknown currency. Pick the currency:", Options: e.currencyOptions(true)}
	}

	s.Currency = cur
	s.State = StateExpenseAccount
	return &Reply{Text: "Pick the account to pay from:", Options: e.accountIDs(cur)}
}

func (e *Engine) expenseAccount(ctx context.Context, actor domain.Actor, s *Session, text string) (*Reply, error) {
	acc, ok := e.pickAccount(text, s.Currency)
	if !ok {
		return &Reply{Text: "Pick one of the " + s.Currency + " accounts:", Options: e.accountIDs(s.Currency)}, nil
	}

	entry, err := e.ledger.RecordExpense(ctx, usecase.RecordInput{
		Actor:    actor,
		Account:  acc.ID,
		Category: s.Category,
		Currency: s.Currency,
		Amount:   decimal.RequireFromString(s.Amount),
	})
	if err != nil {
		return e.finish(s, err)
	}

	*s = Session{}
	return &Reply{Text: fmt.Sprintf("Expense recorded: %s %s from %s (#%d)",
		entry.Category, formatAmount(entry.Amount, entry.Currency), entry.Account, entry.ID)}, nil
}

// Income: amount -> currency -> account.

func (e *Engine) incomeAmount(s *Session, text string) *Reply {
	amount, ok := parsePositive(text)
	if !ok {
		return &Reply{Text: "Could not read the amount. Enter a number, e.g. 500"}
	}

	s.Amount = amount.String()
	s.State = StateIncomeCurrency
	return &Reply{Text: "Pick the income currency:", Options: e.currencyOptions(false)}
}

func (e *Engine) incomeCurrency(s *Session, text string) *Reply {
	cur, ok := e.pickCurrency(text)
	if !ok {
		return &Reply{Text: "Unknown currency. Pick the income currency:", Options: e.currencyOptions(false)}
	}

	s.Currency = cur
	s.State = StateIncomeAccount
	return &Reply{Text: "Pick the account to credit:", Options: e.accountIDs(cur)}
}

func (e *Engine) incomeAccount(ctx context.Context, actor domain.Actor, s *Session, text string) (*Reply, error) {
	acc, ok := e.pickAccount(text, s.Currency)
	if !ok {
		return &Reply{Text: "Pick one of the " + s.Currency + " accounts:", Options: e.accountIDs(s.Currency)}, nil
	}

	entry, err := e.ledger.RecordIncome(ctx, usecase.RecordInput{
		Actor:    actor,
		Account:  acc.ID,
		Currency: s.Currency,
		Amount:   decimal.RequireFromString(s.Amount),
	})
	if err != nil {
		return e.finish(s, err)
	}

	*s = Session{}
	return &Reply{Text: fmt.Sprintf("Income recorded: %s to %s (#%d)",
		formatAmount(entry.Amount, entry.Currency), entry.Account, entry.ID)}, nil
}

// Exchange: from -> to -> amount -> rate. The rate step is skipped when the
// source account holds the base currency.

func (e *Engine) exchangeFrom(s *Session, text string) *Reply {
	acc, ok := e.pickAccount(text, "")
	if !ok {
		return &Reply{Text: "Unknown account. Pick the account to exchange FROM:", Options: e.accountIDs("")}
	}

	s.FromAccount = acc.ID
	s.State = StateExchangeTo
	return &Reply{Text: "Pick the account to exchange TO:", Options: e.otherAccounts(acc.ID)}
}

func (e *Engine) otherAccounts(except string) []string {
	return slices.DeleteFunc(e.accountIDs(""), func(id string) bool { return id == except })
}

func (e *Engine) exchangeTo(s *Session, text string) *Reply {
	acc, ok := e.pickAccount(text, "")
	if !ok || acc.ID == s.FromAccount {
		return &Reply{Text: "Pick a different account to exchange TO:", Options: e.otherAccounts(s.FromAccount)}
	}

	from, _ := e.chart.Account(s.FromAccount)
	s.ToAccount = acc.ID
	s.State = StateExchangeAmount
	return &Reply{Text: fmt.Sprintf("How much %s to exchange?", from.Currency)}
}

func (e *Engine) exchangeAmount(ctx context.Context, actor domain.Actor, s *Session, text string) (*Reply, error) {
	amount, ok := parsePositive(text)
	if !ok {
		return &Reply{Text: amountHint}, nil
	}
	s.Amount = amount.String()

	from, _ := e.chart.Account(s.FromAccount)
	base := e.chart.BaseCurrency()
	if from.Currency == base {
		return e.exchange(ctx, actor, s, decimal.NewFromInt(1))
	}

	s.State = StateExchangeRate
	return &Reply{Text: fmt.Sprintf("Enter the deal rate: how many %s is 1 %s worth, e.g. 0.0012", base, from.Currency)}, nil
}

func (e *Engine) exchangeRate(ctx context.Context, actor domain.Actor, s *Session, text string) (*Reply, error) {
	rate, ok := parsePositive(text)
	if !ok {
		return &Reply{Text: fmt.Sprintf("Enter the rate as a number of %s per unit", e.chart.BaseCurrency())}, nil
	}

	return e.exchange(ctx, actor, s, rate)
}

func (e *Engine) exchange(ctx context.Context, actor domain.Actor, s *Session, rate decimal.Decimal) (*Reply, error) {
	res, err := e.ledger.Exchange(ctx, usecase.ExchangeInput{
		Actor:       actor,
		FromAccount: s.FromAccount,
		ToAccount:   s.ToAccount,
		Amount:      decimal.RequireFromString(s.Amount),
		RateToBase:  rate,
	})
	if err != nil {
		return e.finish(s, err)
	}

	*s = Session{}
	return &Reply{Text: fmt.Sprintf("Exchanged %s -> %s (1 %s = %s %s)",
		formatAmount(res.Out.Amount, res.Out.Currency),
		formatAmount(res.In.Amount, res.In.Currency),
		res.Out.Currency, rate.String(), e.chart.BaseCurrency())}, nil
}

// Report: period -> custom dates when the period is custom.

func (e *Engine) reportPeriod(ctx context.Context, s *Session, text string) (*Reply, error) {
	kind, err := domain.ParsePeriodKind(text)
	if err != nil || text == "" {
		r := e.promptPeriod()
		r.Text = "Unknown period. " + r.Text
		return r, nil
	}

	if kind == domain.PeriodCustom {
		s.State = StateReportCustom
		return &Reply{Text: "Enter the dates as YYYY-MM-DD YYYY-MM-DD (from and to)"}, nil
	}

	return e.report(ctx, s, domain.Period{Kind: kind})
}

func (e *Engine) reportCustom(ctx context.Context, s *Session, text string) (*Reply, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return &Reply{Text: "Format: 2025-11-01 2025-11-10"}, nil
	}

	period := domain.Period{Kind: domain.PeriodCustom, From: fields[0], To: fields[1]}
	r, err := e.ledger.Report(ctx, period)
	if domain.KindOf(err) == domain.KindValidation {
		return &Reply{Text: "Format: 2025-11-01 2025-11-10 (" + err.Error() + ")"}, nil
	}
	if err != nil {
		return e.finish(s, err)
	}

	*s = Session{}
	return &Reply{Text: formatReport(r)}, nil
}

func (e *Engine) report(ctx context.Context, s *Session, period domain.Period) (*Reply, error) {
	r, err := e.ledger.Report(ctx, period)
	if err != nil {
		return e.finish(s, err)
	}

	*s = Session{}
	return &Reply{Text: formatReport(r)}, nil
}

// Reconcile: account -> observed balance.

func (e *Engine) reconcileAccount(s *Session, text string) *Reply {
	acc, ok := e.pickAccount(text, "")
	if !ok {
		return &Reply{Text: "Unknown account. Pick the account to reconcile:", Options: e.accountIDs("")}
	}

	s.Account = acc.ID
	s.State = StateReconcileAmount
	return &Reply{Text: fmt.Sprintf("Enter the actual %s balance of %s", acc.Currency, acc.ID)}
}

func (e *Engine) reconcileAmount(ctx context.Context, actor domain.Actor, s *Session, text string) (*Reply, error) {
	observed, err := domain.ParseAmount(text)
	if err != nil {
		return &Reply{Text: "Enter a number."}, nil
	}

	res, err := e.ledger.Reconcile(ctx, usecase.ReconcileInput{Actor: actor, Account: s.Account, Observed: observed})
	if err != nil {
		return e.finish(s, err)
	}

	*s = Session{}
	cur := res.Entry.Currency
	switch res.Direction {
	case usecase.DirectionUp:
		return &Reply{Text: fmt.Sprintf("Reconciled %s: added %s", res.Entry.Account, formatAmount(res.Delta, cur))}, nil
	case usecase.DirectionDown:
		return &Reply{Text: fmt.Sprintf("Reconciled %s: written off %s", res.Entry.Account, formatAmount(res.Delta.Abs(), cur))}, nil
	}

	return &Reply{Text: "Balance confirmed, no adjustment needed."}, nil
}

// One-shot commands.

func (e *Engine) setRate(ctx context.Context, args []string) (*Reply, error) {
	base := e.chart.BaseCurrency()
	usage := fmt.Sprintf("Usage: /setrate CCY VALUE_IN_%s, e.g. /setrate ARS 0.0012", base)
	if len(args) != 2 {
		return &Reply{Text: usage}, nil
	}

	value, err := domain.ParseAmount(args[1])
	if err != nil {
		return &Reply{Text: usage}, nil
	}

	obs, err := e.ledger.SetRate(ctx, args[0], value)
	if domain.KindOf(err) == domain.KindValidation {
		return &Reply{Text: "Rejected: " + err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	return &Reply{Text: fmt.Sprintf("Rate saved: 1 %s = %s %s", obs.Currency, obs.ValueInBase.String(), base)}, nil
}

func (e *Engine) balance(ctx context.Context) (*Reply, error) {
	v, err := e.ledger.Balances(ctx)
	if domain.KindOf(err) == domain.KindRateNotFound {
		return &Reply{Text: "Set rates for every wallet currency first.\n" + capitalize(err.Error())}, nil
	}
	if err != nil {
		return nil, err
	}

	return &Reply{Text: formatValuation(v)}, nil
}
