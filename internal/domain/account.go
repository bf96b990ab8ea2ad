package domain

import (
	"fmt"
	"strings"
)

// Account is a wallet bound to exactly one native currency. Accounts have
// no stored balance; it is always derived from the entry log.
type Account struct {
	ID       string
	Currency string
	Name     string
}

// Chart is the immutable set of configured accounts and expense categories
// together with the base currency all valuations are expressed in.
type Chart struct {
	byID          map[string]Account
	categorySet   map[string]struct{}
	baseCurrency  string
	accounts      []Account
	categories    []string
	currencyOrder []string
}

// NewChart validates and freezes a chart. Account and category order is kept
// as given; it is the order used in listings and valuations.
func NewChart(baseCurrency string, accounts []Account, categories []string) (*Chart, error) {
	base, err := NormalizeCurrency(baseCurrency)
	if err != nil {
		return nil, fmt.Errorf("base currency: %w", err)
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: chart has no accounts", ErrValidation)
	}

	c := &Chart{
		baseCurrency: base,
		byID:         make(map[string]Account, len(accounts)),
		categorySet:  make(map[string]struct{}, len(categories)),
	}

	seenCurrency := make(map[string]struct{})
	for _, a := range accounts {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: account id is empty", ErrValidation)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate account %q", ErrValidation, id)
		}

		cur, err := NormalizeCurrency(a.Currency)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", id, err)
		}

		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = id
		}

		acc := Account{ID: id, Currency: cur, Name: name}
		c.accounts = append(c.accounts, acc)
		c.byID[id] = acc

		if _, ok := seenCurrency[cur]; !ok {
			seenCurrency[cur] = struct{}{}
			c.currencyOrder = append(c.currencyOrder, cur)
		}
	}

	for _, cat := range categories {
		cat = strings.ToLower(strings.TrimSpace(cat))
		if cat == "" {
			return nil, fmt.Errorf("%w: category is empty", ErrValidation)
		}
		if _, dup := c.categorySet[cat]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrValidation, cat)
		}
		c.categorySet[cat] = struct{}{}
		c.categories = append(c.categories, cat)
	}

	return c, nil
}

// BaseCurrency returns the currency valuations are expressed in.
func (c *Chart) BaseCurrency() string {
	return c.baseCurrency
}

// Account looks up an account by id.
func (c *Chart) Account(id string) (Account, error) {
	acc, ok := c.byID[id]
	if !ok {
		return Account{}, fmt.Errorf("%w: %q", ErrUnknownAccount, id)
	}

	return acc, nil
}

// Accounts returns a copy of the configured accounts in chart order.
func (c *Chart) Accounts() []Account {
	out := make([]Account, len(c.accounts))
	copy(out, c.accounts)
	return out
}

// Categories returns a copy of the configured expense categories.
func (c *Chart) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// HasCategory reports whether category is configured.
func (c *Chart) HasCategory(category string) bool {
	_, ok := c.categorySet[category]
	return ok
}

// Currencies returns the distinct account currencies in first-seen order.
func (c *Chart) Currencies() []string {
	out := make([]string, len(c.currencyOrder))
	copy(out, c.currencyOrder)
	return out
}

// ValidateEntry checks e against the chart. Timestamp and id are assigned by
// the writer and storage and are not inspected here.
func (c *Chart) ValidateEntry(e *Entry) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}

	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidAmount, e.Amount)
	}

	acc, err := c.Account(e.Account)
	if err != nil {
		return err
	}

	if e.Currency != acc.Currency {
		return fmt.Errorf("%w: account %s holds %s, got %s", ErrCurrencyMismatch, acc.ID, acc.Currency, e.Currency)
	}

	if e.Category != "" {
		if e.Kind != KindExpense {
			return fmt.Errorf("%w: %s entry has category %q", ErrCategoryNotAllowed, e.Kind, e.Category)
		}
		if !c.HasCategory(e.Category) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, e.Category)
		}
	}

	return ValidateNote(e.Note)
}
