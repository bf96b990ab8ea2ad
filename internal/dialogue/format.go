package dialogue

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// formatAmount renders amount exactly. ISO currencies use their symbol when
// the amount is a whole number of minor units that fits an int64; anything
// else falls back to the plain decimal and code.
func formatAmount(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.Round(domain.ExchangePrecision).String() + " " + code
	}

	minor := amount.Shift(int32(cur.Fraction))
	if !minor.Equal(minor.Truncate(0)) || minor.Abs().GreaterThan(maxMinorUnits) {
		return amount.Round(domain.ExchangePrecision).String() + " " + code
	}

	return money.New(minor.IntPart(), cur.Code).Display()
}

// formatApprox renders amount rounded to the currency's minor unit, or to
// cents for codes go-money does not know.
func formatApprox(amount decimal.Decimal, code string) string {
	places := int32(2)
	if cur := money.GetCurrency(code); cur != nil {
		places = int32(cur.Fraction)
	}

	return formatAmount(amount.Round(places), code)
}

func formatValuation(v *usecase.Valuation) string {
	lines := []string{"Balances:"}
	for _, a := range v.Accounts {
		lines = append(lines, fmt.Sprintf("• %s: %s (~%s)",
			a.Account.ID, formatAmount(a.Native, a.Account.Currency), formatApprox(a.Base, v.BaseCurrency)))
	}
	lines = append(lines, "", fmt.Sprintf("Total in %s: %s", v.BaseCurrency, formatApprox(v.Total, v.BaseCurrency)))

	return strings.Join(lines, "\n")
}

func formatReport(r *usecase.Report) string {
	lines := []string{fmt.Sprintf("Report %s -> %s",
		r.Window.Start.Format(domain.DateLayout), r.Window.End.Format(domain.DateLayout))}

	if len(r.Categories) == 0 {
		lines = append(lines, "No expenses in this period.")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, fmt.Sprintf("Expenses by category (in %s):", r.BaseCurrency))
	for _, c := range r.Categories {
		lines = append(lines, fmt.Sprintf("• %s: %s", c.Category, formatApprox(c.Base, r.BaseCurrency)))
	}
	lines = append(lines, fmt.Sprintf("Total: %s", formatApprox(r.Total, r.BaseCurrency)))

	if len(r.MissingRates) > 0 {
		lines = append(lines, fmt.Sprintf("No rate for %s; counted as 0.", strings.Join(r.MissingRates, ", ")))
	}

	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
