package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/acs-energy/crm-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   domain.UserRole
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// IsAdmin checks if the user has the admin role
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// CanAccessLead reports whether the user may read or modify the given lead.
// Admins see everything; sales agents see only leads they own.
func (u *UserContext) CanAccessLead(lead *domain.Lead) bool {
	if u.IsAdmin() {
		return true
	}
	return lead.OwnerID != nil && *lead.OwnerID == u.UserID
}
