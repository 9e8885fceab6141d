package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/repository"
	"github.com/acs-energy/crm-api/internal/service"
)

type LeadHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

func NewLeadHandler(leadService *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// @Summary Capture lead
// @Description Public intake endpoint for the lead capture form. Duplicates are flagged, not rejected.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body domain.CreateLeadRequest true "Lead data"
// @Success 201 {object} domain.CreateLeadResponse
// @Failure 400 {object} domain.APIError
// @Router /leads/public [post]
func (h *LeadHandler) PublicCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.leadService.CreateFromIntake(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("lead intake failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create lead")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// @Summary List leads
// @Description List leads with optional filters. Sales users only see their own leads.
// @Tags Leads
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param q query string false "Search in name, phone, email and lead reference"
// @Param stage query string false "Filter by stage (New, Qualified, Meeting Booked, Proposal Sent, Won, Lost)"
// @Param leadType query string false "Filter by lead type (CHS, Hotel, Corporate, Developer, Other)"
// @Param area query string false "Filter by area"
// @Param ownerId query string false "Filter by owner ID (admin only)"
// @Param minScore query int false "Minimum lead score"
// @Param fromDate query string false "Created after date (YYYY-MM-DD)"
// @Param toDate query string false "Created before date (YYYY-MM-DD)"
// @Param sort query string false "Sort by (created_desc, created_asc, score_desc, score_asc)"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Router /leads [get]
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}

	filters := parseLeadFilters(r)
	sortBy := repository.LeadSortOption(r.URL.Query().Get("sort"))

	leads, total, err := h.leadService.List(r.Context(), userCtx, page, pageSize, filters, sortBy)
	if err != nil {
		h.logger.Error("lead list failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list leads")
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Data:       leads,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// @Summary Get lead
// @Description Get a lead with its activity trail and followups
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} domain.LeadDetailDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	detail, err := h.leadService.Get(r.Context(), userCtx, id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to get lead")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// @Summary Update lead
// @Description Patch a lead's business fields. Stage changes are recorded in the activity trail.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param request body domain.UpdateLeadRequest true "Fields to update"
// @Success 200 {object} domain.LeadDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id} [put]
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	var req domain.UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	lead, err := h.leadService.Update(r.Context(), userCtx, id, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to update lead")
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// @Summary Delete lead
// @Description Delete a lead and its activities and followups
// @Tags Leads
// @Param id path string true "Lead ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id} [delete]
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	if err := h.leadService.Delete(r.Context(), userCtx, id); err != nil {
		h.respondServiceError(w, err, "Failed to delete lead")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// @Summary Export leads
// @Description Download the filtered lead set as CSV
// @Tags Leads
// @Produce text/csv
// @Param q query string false "Search in name, phone, email and lead reference"
// @Param stage query string false "Filter by stage"
// @Param leadType query string false "Filter by lead type"
// @Param area query string false "Filter by area"
// @Param fromDate query string false "Created after date (YYYY-MM-DD)"
// @Param toDate query string false "Created before date (YYYY-MM-DD)"
// @Success 200 {string} string "CSV data"
// @Security BearerAuth
// @Router /leads/export/csv [get]
func (h *LeadHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	filters := parseLeadFilters(r)

	filename := fmt.Sprintf("leads-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.leadService.ExportCSV(r.Context(), userCtx, filters, w); err != nil {
		h.logger.Error("lead export failed", zap.Error(err))
	}
}

// respondServiceError maps service errors to HTTP responses
func (h *LeadHandler) respondServiceError(w http.ResponseWriter, err error, genericMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Lead not found")
	case errors.Is(err, service.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, "You do not have access to this lead")
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(genericMsg, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, genericMsg)
	}
}

// parseLeadFilters builds lead filters from query parameters
func parseLeadFilters(r *http.Request) *repository.LeadFilters {
	filters := &repository.LeadFilters{}
	query := r.URL.Query()

	if s := query.Get("stage"); s != "" {
		stage := domain.LeadStage(s)
		filters.Stage = &stage
	}
	if lt := query.Get("leadType"); lt != "" {
		leadType := domain.LeadType(lt)
		filters.LeadType = &leadType
	}
	if a := query.Get("area"); a != "" {
		filters.Area = &a
	}
	if o := query.Get("ownerId"); o != "" {
		if id, err := uuid.Parse(o); err == nil {
			filters.OwnerID = &id
		}
	}
	if ms := query.Get("minScore"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil {
			filters.MinScore = &v
		}
	}
	if fd := query.Get("fromDate"); fd != "" {
		if t, err := time.Parse("2006-01-02", fd); err == nil {
			filters.CreatedAfter = &t
		}
	}
	if td := query.Get("toDate"); td != "" {
		if t, err := time.Parse("2006-01-02", td); err == nil {
			end := t.Add(24*time.Hour - time.Second)
			filters.CreatedBefore = &end
		}
	}
	if q := query.Get("q"); q != "" {
		filters.SearchQuery = &q
	}

	return filters
}
