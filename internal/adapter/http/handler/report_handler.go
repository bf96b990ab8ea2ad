package handler

import (
	"context"
	"net/http"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
	"github.com/AnnaArgentina/family-budget-bot/internal/usecase"
)

// ReportService defines the behavior needed by ReportHandler.
type ReportService interface {
	Report(ctx context.Context, period domain.Period) (*usecase.Report, error)
}

// ReportHandler serves expense summaries.
type ReportHandler struct {
	reportUC ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService) *ReportHandler {
	return &ReportHandler{reportUC: reportUC}
}

// Get summarises expenses for ?period=, with from and to for custom periods.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	kind, err := domain.ParsePeriodKind(query.Get("period"))
	if err != nil {
		writeDomainError(w, "invalid period", err)
		return
	}

	report, err := h.reportUC.Report(r.Context(), domain.Period{
		Kind: kind,
		From: query.Get("from"),
		To:   query.Get("to"),
	})
	if err != nil {
		writeDomainError(w, "failed to build report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}
