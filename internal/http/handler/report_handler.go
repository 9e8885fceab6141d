package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// @Summary Dashboard summary
// @Description Weekly intake count, stage distribution, conversion rate and locality hotspots. Sales users see only their own leads.
// @Tags Reports
// @Produce json
// @Success 200 {object} domain.ReportSummaryDTO
// @Security BearerAuth
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	summary, err := h.reportService.Summary(r.Context(), userCtx)
	if err != nil {
		h.logger.Error("report summary failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
