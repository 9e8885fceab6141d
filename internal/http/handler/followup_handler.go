package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/service"
)

type FollowupHandler struct {
	followupService *service.FollowupService
	logger          *zap.Logger
}

func NewFollowupHandler(followupService *service.FollowupService, logger *zap.Logger) *FollowupHandler {
	return &FollowupHandler{
		followupService: followupService,
		logger:          logger,
	}
}

// @Summary List followups
// @Description List a lead's followups, soonest due first
// @Tags Followups
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {array} domain.FollowupDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/followups [get]
func (h *FollowupHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	followups, err := h.followupService.ListByLead(r.Context(), userCtx, leadID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to list followups")
		return
	}

	respondJSON(w, http.StatusOK, followups)
}

// @Summary Schedule followup
// @Description Schedule a followup for a lead and mirror the due date onto the lead
// @Tags Followups
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param request body domain.CreateFollowupRequest true "Followup data"
// @Success 201 {object} domain.FollowupDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/followups [post]
func (h *FollowupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	var req domain.CreateFollowupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	followup, err := h.followupService.Create(r.Context(), userCtx, leadID, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to schedule followup")
		return
	}

	respondJSON(w, http.StatusCreated, followup)
}

// @Summary Update followup
// @Description Mark a followup completed or skipped, or change its notes
// @Tags Followups
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param fid path string true "Followup ID"
// @Param request body domain.UpdateFollowupRequest true "Fields to update"
// @Success 200 {object} domain.FollowupDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/followups/{fid} [patch]
func (h *FollowupHandler) Update(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}
	followupID, err := uuid.Parse(chi.URLParam(r, "fid"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid followup ID")
		return
	}

	var req domain.UpdateFollowupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	followup, err := h.followupService.Update(r.Context(), userCtx, leadID, followupID, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to update followup")
		return
	}

	respondJSON(w, http.StatusOK, followup)
}

func (h *FollowupHandler) respondServiceError(w http.ResponseWriter, err error, genericMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, "You do not have access to this lead")
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(genericMsg, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, genericMsg)
	}
}
