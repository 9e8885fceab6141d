package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/repository"
	"github.com/acs-energy/crm-api/internal/service"
	"github.com/acs-energy/crm-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createAuthService(db *gorm.DB) *service.AuthService {
	issuer := auth.NewTokenIssuer("test-signing-secret", time.Hour)
	return service.NewAuthService(repository.NewUserRepository(db), issuer, zap.NewNop())
}

func TestAuthService_SeedAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createAuthService(db)
	ctx := context.Background()

	dto, err := svc.SeedAdmin(ctx, "First Admin", "Admin@Example.com", "bootstrap1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, dto.Role)
	assert.Equal(t, "admin@example.com", dto.Email)

	// Refuses to run once an admin exists
	_, err = svc.SeedAdmin(ctx, "Second Admin", "second@example.com", "bootstrap2")
	assert.ErrorIs(t, err, service.ErrAdminExists)
}

func TestAuthService_Login(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createAuthService(db)
	ctx := context.Background()

	_, err := svc.SeedAdmin(ctx, "Login Admin", "login@example.com", "correct-horse")
	require.NoError(t, err)

	t.Run("valid credentials issue a token", func(t *testing.T) {
		resp, err := svc.Login(ctx, &domain.LoginRequest{
			Email:    "  Login@Example.com ",
			Password: "correct-horse",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "login@example.com", resp.User.Email)
		assert.Equal(t, domain.RoleAdmin, resp.User.Role)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{
			Email:    "login@example.com",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email is rejected identically", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{
			Email:    "nobody@example.com",
			Password: "whatever",
		})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("deactivated account cannot log in", func(t *testing.T) {
		require.NoError(t, db.Model(&domain.User{}).
			Where("email = ?", "login@example.com").
			Update("is_active", false).Error)

		_, err := svc.Login(ctx, &domain.LoginRequest{
			Email:    "login@example.com",
			Password: "correct-horse",
		})
		assert.ErrorIs(t, err, service.ErrAccountDeactivated)
	})
}
