package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// @Summary Login
// @Description Exchange email and password for an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse
// @Failure 401 {object} domain.APIError
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, service.ErrAccountDeactivated):
			respondWithError(w, http.StatusUnauthorized, "Account is deactivated")
		default:
			h.logger.Error("login failed", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to process login")
		}
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// SeedAdminRequest bootstraps the first admin account
type SeedAdminRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// @Summary Seed admin
// @Description Create the initial admin account. Fails once any admin exists.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body handler.SeedAdminRequest true "Admin account"
// @Success 201 {object} domain.UserDTO
// @Failure 409 {object} domain.APIError
// @Router /auth/seed-admin [post]
func (h *AuthHandler) SeedAdmin(w http.ResponseWriter, r *http.Request) {
	var req SeedAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	user, err := h.authService.SeedAdmin(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAdminExists) {
			respondWithError(w, http.StatusConflict, "An admin account already exists")
			return
		}
		h.logger.Error("admin seed failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create admin account")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}
