package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

// BalanceService defines the behavior needed by AccountHandler.
type BalanceService interface {
	NativeBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
	Valuation(ctx context.Context) (*usecase.Valuation, error)
}

// AccountHandler serves the chart of accounts and derived balances.
type AccountHandler struct {
	chart    *domain.Chart
	balances BalanceService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(chart *domain.Chart, balances BalanceService) *AccountHandler {
	return &AccountHandler{chart: chart, balances: balances}
}

// List lists the configured accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.AccountsFromChart(h.chart))
}

// Categories lists the expense categories.
func (h *AccountHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ListCategoriesResponse{Categories: h.chart.Categories()})
}

// Balance returns the native balance of one account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	acc, err := h.chart.Account(id)
	if err != nil {
		writeDomainError(w, "unknown account", err)
		return
	}

	balance, err := h.balances.NativeBalance(r.Context(), acc.ID)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		Account:  acc.ID,
		Currency: acc.Currency,
		Balance:  balance.String(),
	})
}

// Valuation values every account in the base currency. It fails as a whole
// when any held currency has no rate.
func (h *AccountHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	valuation, err := h.balances.Valuation(r.Context())
	if err != nil {
		writeDomainError(w, "failed to value balances", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ValuationFromUseCase(valuation))
}
