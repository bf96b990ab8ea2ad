package dialogue

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

// DefaultSessionTTL bounds how long an unfinished flow is remembered.
const DefaultSessionTTL = 30 * time.Minute

// Ledger is the set of core operations a conversation can end in.
type Ledger interface {
	RecordExpense(ctx context.Context, input usecase.RecordInput) (*domain.Entry, error)
	RecordIncome(ctx context.Context, input usecase.RecordInput) (*domain.Entry, error)
	Exchange(ctx context.Context, input usecase.ExchangeInput) (*usecase.ExchangeResult, error)
	SetRate(ctx context.Context, currency string, valueInBase decimal.Decimal) (*domain.RateObservation, error)
	Balances(ctx context.Context) (*usecase.Valuation, error)
	Reconcile(ctx context.Context, input usecase.ReconcileInput) (*usecase.ReconciliationResult, error)
	Report(ctx context.Context, period domain.Period) (*usecase.Report, error)
}

// Reply is the engine's answer to one message. Options are the values the
// participant is expected to pick from, in display order.
type Reply struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
	State   State    `json:"state,omitempty"`
}

// Engine runs one explicit state machine per session and invokes exactly one
// ledger operation when a flow completes.
type Engine struct {
	ledger          Ledger
	chart           *domain.Chart
	store           SessionStore
	defaultCurrency string
	ttl             time.Duration
	logger          zerolog.Logger
	policy          *bluemonday.Policy
	now             func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithDefaultCurrency lists currency first when asking for an expense
// currency.
func WithDefaultCurrency(currency string) Option {
	return func(e *Engine) { e.defaultCurrency = strings.ToUpper(currency) }
}

// WithSessionTTL sets how long an idle session survives.
func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a new Engine.
func NewEngine(ledger Ledger, chart *domain.Chart, store SessionStore, opts ...Option) *Engine {
	e := &Engine{
		ledger: ledger,
		chart:  chart,
		store:  store,
		ttl:    DefaultSessionTTL,
		logger: zerolog.Nop(),
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Handle feeds one message of sessionKey's conversation to the state
// machine. A command always abandons the flow in progress. Errors are
// returned only for storage and internal failures; input problems become a
// re-prompt.
func (e *Engine) Handle(ctx context.Context, actor domain.Actor, sessionKey, text string) (*Reply, error) {
	text = e.clean(text)
	actor.Name = e.clean(actor.Name)

	s, err := e.store.Load(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		s = &Session{}
	}

	var reply *Reply
	if strings.HasPrefix(text, "/") {
		*s = Session{}
		reply, err = e.command(ctx, actor, s, text)
	} else {
		reply, err = e.step(ctx, actor, s, text)
	}
	if err != nil {
		_ = e.store.Delete(ctx, sessionKey)
		return nil, err
	}

	reply.State = s.State
	if s.State == StateIdle {
		if err := e.store.Delete(ctx, sessionKey); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
		return reply, nil
	}

	s.UpdatedAt = e.now().UTC()
	if err := e.store.Save(ctx, sessionKey, s, e.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return reply, nil
}

func (e *Engine) command(ctx context.Context, actor domain.Actor, s *Session, text string) (*Reply, error) {
	fields := strings.Fields(text)
	name := strings.ToLower(fields[0])
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	args := fields[1:]

	switch name {
	case "/start":
		return &Reply{Text: e.welcome()}, nil
	case "/help":
		return &Reply{Text: "Commands: /expense /income /exchange /setrate /balance /report /reconcile /cancel"}, nil
	case "/cancel":
		return &Reply{Text: "Cancelled."}, nil
	case "/expense":
		s.State = StateExpenseCategory
		return e.promptCategory(), nil
	case "/income":
		s.State = StateIncomeAmount
		return &Reply{Text: "Enter the income amount, e.g. 500"}, nil
	case "/exchange":
		s.State = StateExchangeFrom
		return &Reply{Text: "Pick the account to exchange FROM:", Options: e.accountIDs("")}, nil
	case "/report":
		s.State = StateReportPeriod
		return e.promptPeriod(), nil
	case "/reconcile":
		s.State = StateReconcileAccount
		return &Reply{Text: "Pick the account to reconcile:", Options: e.accountIDs("")}, nil
	case "/setrate":
		return e.setRate(ctx, args)
	case "/balance":
		return e.balance(ctx)
	}

	return &Reply{Text: fmt.Sprintf("Unknown command %s. Try /help", name)}, nil
}

func (e *Engine) step(ctx context.Context, actor domain.Actor, s *Session, text string) (*Reply, error) {
	switch s.State {
	case StateExpenseCategory:
		return e.expenseCategory(s, text), nil
	case StateExpenseAmount:
		return e.expenseAmount(s, text), nil
	case StateExpenseCurrency:
		return e.expenseCurrency(s, text), nil
	case StateExpenseAccount:
		return e.expenseAccount(ctx, actor, s, text)
	case StateIncomeAmount:
		return e.incomeAmount(s, text), nil
	case StateIncomeCurrency:
		return e.incomeCurrency(s, text), nil
	case StateIncomeAccount:
		return e.incomeAccount(ctx, actor, s, text)
	case StateExchangeFrom:
		return e.exchangeFrom(s, text), nil
	case StateExchangeTo:
		return e.exchangeTo(s, text), nil
	case StateExchangeAmount:
		return e.exchangeAmount(ctx, actor, s, text)
	case StateExchangeRate:
		return e.exchangeRate(ctx, actor, s, text)
	case StateReportPeriod:
		return e.reportPeriod(ctx, s, text)
	case StateReportCustom:
		return e.reportCustom(ctx, s, text)
	case StateReconcileAccount:
		return e.reconcileAccount(s, text), nil
	case StateReconcileAmount:
		return e.reconcileAmount(ctx, actor, s, text)
	}

	*s = Session{}
	return &Reply{Text: "Send a command to begin. Try /help"}, nil
}

// finish ends the flow and turns recoverable ledger errors into a reply.
func (e *Engine) finish(s *Session, err error) (*Reply, error) {
	*s = Session{}

	switch domain.KindOf(err) {
	case domain.KindRateNotFound:
		return &Reply{Text: capitalize(err.Error())}, nil
	case domain.KindValidation:
		return &Reply{Text: "Rejected: " + err.Error()}, nil
	}

	e.logger.Error().Err(err).Msg("dialogue operation failed")
	return nil, err
}

func (e *Engine) welcome() string {
	base := e.chart.BaseCurrency()

	lines := []string{
		"Hi! I keep the family budget.",
		"",
		fmt.Sprintf("Base currency: %s. Default input currency: %s.", base, e.defaultInputCurrency()),
		"",
		"/expense - record an expense",
		"/income - record an income",
		"/exchange - exchange between accounts at a fixed rate",
		fmt.Sprintf("/setrate CCY VALUE - set how many %s one unit is worth", base),
		fmt.Sprintf("/balance - balances per account and in %s", base),
		"/report - expenses per category for a period",
		"/reconcile - enter an observed balance for an account",
		"/cancel - abandon the current step",
	}

	return strings.Join(lines, "\n")
}

func (e *Engine) defaultInputCurrency() string {
	if e.defaultCurrency != "" {
		return e.defaultCurrency
	}

	return e.chart.BaseCurrency()
}

// clean strips markup from participant text and decodes the entities the
// policy leaves behind, so ids and categories containing & or quotes still
// match the chart.
func (e *Engine) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(e.policy.Sanitize(s)))
}
