package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/config"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/service"
	"github.com/acs-energy/crm-api/internal/storage"
)

type ActivityHandler struct {
	activityService *service.ActivityService
	storage         storage.Storage
	storageCfg      *config.StorageConfig
	logger          *zap.Logger
}

func NewActivityHandler(
	activityService *service.ActivityService,
	store storage.Storage,
	storageCfg *config.StorageConfig,
	logger *zap.Logger,
) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		storage:         store,
		storageCfg:      storageCfg,
		logger:          logger,
	}
}

// @Summary List activities
// @Description List a lead's activity trail, newest first
// @Tags Activities
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {array} domain.ActivityDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/activities [get]
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	activities, err := h.activityService.ListByLead(r.Context(), userCtx, leadID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to list activities")
		return
	}

	respondJSON(w, http.StatusOK, activities)
}

// @Summary Log activity
// @Description Append an activity to a lead's trail. Activities are immutable once created.
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param request body domain.CreateActivityRequest true "Activity data"
// @Success 201 {object} domain.ActivityDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/activities [post]
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	var req domain.CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	activity, err := h.activityService.Log(r.Context(), userCtx, leadID, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to log activity")
		return
	}

	respondJSON(w, http.StatusCreated, activity)
}

// @Summary Upload attachment
// @Description Upload an attachment for a lead. Returns a URL to reference from an activity.
// @Tags Activities
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Lead ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} domain.UploadAttachmentResponse
// @Failure 403 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/attachments [post]
func (h *ActivityHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	leadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID")
		return
	}

	// Access check before touching the upload
	if _, err := h.activityService.ListByLead(r.Context(), userCtx, leadID); err != nil {
		h.respondServiceError(w, err, "Failed to upload attachment")
		return
	}

	maxBytes := h.storageCfg.MaxUploadSizeMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %dMB upload limit", h.storageCfg.MaxUploadSizeMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	storagePath, size, err := h.storage.Upload(r.Context(), header.Filename, contentType, file)
	if err != nil {
		h.logger.Error("attachment upload failed",
			zap.String("lead_id", leadID.String()),
			zap.Error(err),
		)
		respondWithError(w, http.StatusInternalServerError, "Failed to store attachment")
		return
	}

	respondJSON(w, http.StatusCreated, domain.UploadAttachmentResponse{
		URL:      "/attachments/" + storagePath,
		Filename: header.Filename,
		Size:     size,
	})
}

// @Summary Download attachment
// @Description Stream a previously uploaded attachment
// @Tags Activities
// @Produce octet-stream
// @Param path path string true "Attachment path"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /attachments/{path} [get]
func (h *ActivityHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	storagePath := chi.URLParam(r, "*")
	if storagePath == "" {
		respondWithError(w, http.StatusBadRequest, "Missing attachment path")
		return
	}

	rc, err := h.storage.Download(r.Context(), storagePath)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Attachment not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("attachment download failed",
			zap.String("path", storagePath),
			zap.Error(err),
		)
	}
}

func (h *ActivityHandler) respondServiceError(w http.ResponseWriter, err error, genericMsg string) {
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
