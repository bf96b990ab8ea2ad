package dialogue

import (
	"context"
	"time"
)

// State is a step of a multi-message flow.
type State string

const (
	StateIdle             State = ""
	StateExpenseCategory  State = "expense_category"
	StateExpenseAmount    State = "expense_amount"
	StateExpenseCurrency  State = "expense_currency"
	StateExpenseAccount   State = "expense_account"
	StateIncomeAmount     State = "income_amount"
	StateIncomeCurrency   State = "income_currency"
	StateIncomeAccount    State = "income_account"
	StateExchangeFrom     State = "exchange_from"
	StateExchangeTo       State = "exchange_to"
	StateExchangeAmount   State = "exchange_amount"
	StateExchangeRate     State = "exchange_rate"
	StateReportPeriod     State = "report_period"
	StateReportCustom     State = "report_custom"
	StateReconcileAccount State = "reconcile_account"
	StateReconcileAmount  State = "reconcile_amount"
)

// Session holds the inputs collected so far by one chat participant.
type Session struct {
	State       State     `json:"state"`
	Category    string    `json:"category,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Account     string    `json:"account,omitempty"`
	FromAccount string    `json:"from_account,omitempty"`
	ToAccount   string    `json:"to_account,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SessionStore persists sessions between messages.
type SessionStore interface {
	// Load returns nil when no session is stored under key.
	Load(ctx context.Context, key string) (*Session, error)
	Save(ctx context.Context, key string, session *Session, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
