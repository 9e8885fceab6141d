package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/repository"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	issuer   *TokenIssuer
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(issuer *TokenIssuer, userRepo *repository.UserRepository, logger *zap.Logger) *Middleware {
	return &Middleware{
		issuer:   issuer,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Authenticate validates the Bearer token and loads the user into the request context.
// Deactivated users are rejected even when their token has not yet expired.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := m.issuer.Validate(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		user, err := m.userRepo.GetByID(r.Context(), claims.UserID())
		if err != nil {
			http.Error(w, "Unauthorized: unknown user", http.StatusUnauthorized)
			return
		}
		if !user.IsActive {
			http.Error(w, "Unauthorized: account deactivated", http.StatusUnauthorized)
			return
		}

		userCtx := &UserContext{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
		}

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin ensures the authenticated user has the admin role
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "Forbidden: no user context", http.StatusForbidden)
			return
		}
		if userCtx.Role != domain.RoleAdmin {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
