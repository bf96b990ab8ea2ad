package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

// RateService defines the behavior needed by RateHandler.
type RateService interface {
	SetRate(ctx context.Context, currency string, valueInBase decimal.Decimal) (*domain.RateObservation, error)
	LatestRate(ctx context.Context, currency string) (*domain.RateObservation, error)
	RateHistory(ctx context.Context, currency string, limit int) ([]*domain.RateObservation, error)
}

// RateHandler handles rate store requests.
type RateHandler struct {
	rateUC RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateUC RateService) *RateHandler {
	return &RateHandler{rateUC: rateUC}
}

// Set records a new rate observation.
func (h *RateHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req dto.SetRateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	currency, value, err := req.Parse()
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	obs, err := h.rateUC.SetRate(r.Context(), currency, value)
	if err != nil {
		writeDomainError(w, "failed to set rate", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RateFromDomain(obs))
}

// Latest returns the newest observation for a currency.
func (h *RateHandler) Latest(w http.ResponseWriter, r *http.Request) {
	obs, err := h.rateUC.LatestRate(r.Context(), chi.URLParam(r, "currency"))
	if err != nil {
		writeDomainError(w, "failed to get rate", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RateFromDomain(obs))
}

// History returns observations newest first.
func (h *RateHandler) History(w http.ResponseWriter, r *http.Request) {
	currency := chi.URLParam(r, "currency")
	limit := parseIntQuery(r, "limit", usecase.DefaultRateHistoryLimit)

	history, err := h.rateUC.RateHistory(r.Context(), currency, limit)
	if err != nil {
		writeDomainError(w, "failed to get rate history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RateHistoryFromDomain(strings.ToUpper(currency), history))
}
