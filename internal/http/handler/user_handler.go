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

type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// @Summary My profile
// @Description Get the requesting user's profile with live lead counts
// @Tags Users
// @Produce json
// @Success 200 {object} domain.UserProfileDTO
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	profile, err := h.userService.Profile(r.Context(), userCtx.UserID)
	if err != nil {
		h.logger.Error("profile lookup failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// @Summary Sales performance
// @Description Per-agent rollup of assigned, pending and won leads with incentive status
// @Tags Users
// @Produce json
// @Success 200 {array} domain.UserPerformanceDTO
// @Security BearerAuth
// @Router /users/performance [get]
func (h *UserHandler) Performance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.userService.Performance(r.Context())
	if err != nil {
		h.logger.Error("performance rollup failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load performance data")
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// @Summary List users
// @Description List all CRM users (admin only)
// @Tags Users
// @Produce json
// @Success 200 {array} domain.UserDTO
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.logger.Error("user list failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}

// @Summary Create user
// @Description Register a new CRM user (admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User data"
// @Success 201 {object} domain.UserDTO
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			respondWithError(w, http.StatusConflict, "Email already in use")
			return
		}
		h.logger.Error("user create failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// @Summary Update user
// @Description Adjust a user's sales target or active flag (admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.UpdateUserRequest true "Fields to update"
// @Success 200 {object} domain.UserDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.userService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrCannotRemoveLastAdmin):
			respondWithError(w, http.StatusConflict, "Cannot deactivate the last admin account")
		default:
			h.logger.Error("user update failed", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// @Summary Delete user
// @Description Delete a user account. Self-deletion and removing the last admin are rejected.
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.userService.Delete(r.Context(), userCtx, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrCannotDeleteSelf):
			respondWithError(w, http.StatusConflict, "Cannot delete your own account")
		case errors.Is(err, service.ErrCannotRemoveLastAdmin):
			respondWithError(w, http.StatusConflict, "Cannot delete the last admin account")
		default:
			h.logger.Error("user delete failed", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to delete user")
		}
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
