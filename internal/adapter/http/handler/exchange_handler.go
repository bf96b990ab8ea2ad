package handler

import (
	"context"
	"net/http"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/middleware"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

// ExchangeService defines the behavior needed by ExchangeHandler.
type ExchangeService interface {
	Exchange(ctx context.Context, input usecase.ExchangeInput) (*usecase.ExchangeResult, error)
}

// ReconciliationService defines the behavior needed by ExchangeHandler.
type ReconciliationService interface {
	Reconcile(ctx context.Context, input usecase.ReconcileInput) (*usecase.ReconciliationResult, error)
}

// ExchangeHandler handles requests that move or correct balances.
type ExchangeHandler struct {
	exchangeUC  ExchangeService
	reconcileUC ReconciliationService
}

// NewExchangeHandler creates a new ExchangeHandler.
func NewExchangeHandler(exchangeUC ExchangeService, reconcileUC ReconciliationService) *ExchangeHandler {
	return &ExchangeHandler{exchangeUC: exchangeUC, reconcileUC: reconcileUC}
}

// Exchange moves value between two accounts.
func (h *ExchangeHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req dto.ExchangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(middleware.ActorFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	result, err := h.exchangeUC.Exchange(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to exchange", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ExchangeFromUseCase(result))
}

// Reconcile brings an account in line with an observed balance.
func (h *ExchangeHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(middleware.ActorFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	result, err := h.reconcileUC.Reconcile(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to reconcile", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReconciliationFromUseCase(result))
}
