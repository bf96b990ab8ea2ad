package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/middleware"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	RecordExpense(ctx context.Context, input usecase.RecordInput) (*domain.Entry, error)
	RecordIncome(ctx context.Context, input usecase.RecordInput) (*domain.Entry, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Entry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// RecordExpense appends an expense.
func (h *EntryHandler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.entryUC.RecordExpense)
}

// RecordIncome appends an income.
func (h *EntryHandler) RecordIncome(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.entryUC.RecordIncome)
}

func (h *EntryHandler) record(w http.ResponseWriter, r *http.Request, op func(context.Context, usecase.RecordInput) (*domain.Entry, error)) {
	var req dto.RecordEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(middleware.ActorFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, "invalid request", err)
		return
	}

	entry, err := op(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to record entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// List lists entries in insertion order. Filters: account, kind (repeatable
// or comma separated), from, to and limit.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEntryFilter(r)
	if err != nil {
		writeDomainError(w, "invalid filter", err)
		return
	}

	entries, err := h.entryUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		Filter: filter,
		Limit:  parseIntQuery(r, "limit", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   len(entries),
	})
}

func parseEntryFilter(r *http.Request) (domain.EntryFilter, error) {
	query := r.URL.Query()
	filter := domain.EntryFilter{Account: strings.TrimSpace(query.Get("account"))}

	for _, raw := range query["kind"] {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			kinds, err := domain.ParseKindFilter(name)
			if err != nil {
				return domain.EntryFilter{}, err
			}
			filter.Kinds = append(filter.Kinds, kinds...)
		}
	}

	var err error
	if filter.From, err = parseTimeQuery(r, "from", false); err != nil {
		return domain.EntryFilter{}, err
	}
	if filter.To, err = parseTimeQuery(r, "to", true); err != nil {
		return domain.EntryFilter{}, err
	}

	return filter, nil
}
