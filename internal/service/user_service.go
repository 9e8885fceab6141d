package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/mapper"
	"github.com/acs-energy/crm-api/internal/repository"
)

type UserService struct {
	userRepo  *repository.UserRepository
	leadRepo  *repository.LeadRepository
	incentive *IncentiveService
	logger    *zap.Logger
}

func NewUserService(
	userRepo *repository.UserRepository,
	leadRepo *repository.LeadRepository,
	incentive *IncentiveService,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		leadRepo:  leadRepo,
		incentive: incentive,
		logger:    logger,
	}
}

// Create registers a new CRM user (admin only)
func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = domain.RoleSales
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// List returns all users (admin only)
func (s *UserService) List(ctx context.Context) ([]domain.UserDTO, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return mapper.ToUserDTOs(users), nil
}

// Update adjusts a user's sales target or active flag (admin only)
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	targetChanged := false
	if req.SalesTarget != nil && *req.SalesTarget != user.SalesTarget {
		user.SalesTarget = *req.SalesTarget
		targetChanged = true
	}
	if req.IsActive != nil {
		if user.Role == domain.RoleAdmin && !*req.IsActive {
			admins, err := s.userRepo.CountActiveAdmins(ctx)
			if err != nil {
				return nil, err
			}
			if admins <= 1 {
				return nil, ErrCannotRemoveLastAdmin
			}
		}
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	// A new target can change eligibility immediately
	if targetChanged {
		if err := s.incentive.Recompute(ctx, user.ID); err != nil {
			return nil, err
		}
		user, err = s.userRepo.GetByID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Delete removes a user account. Self-deletion and removing the last active
// admin are rejected. The user's leads are kept but left unassigned.
func (s *UserService) Delete(ctx context.Context, actor *auth.UserContext, id uuid.UUID) error {
	if actor.UserID == id {
		return ErrCannotDeleteSelf
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if user.Role == domain.RoleAdmin {
		admins, err := s.userRepo.CountActiveAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrCannotRemoveLastAdmin
		}
	}

	if err := s.leadRepo.ClearOwner(ctx, user.ID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		zap.String("user_id", id.String()),
		zap.String("deleted_by", actor.UserID.String()),
	)
	return nil
}

// Profile returns the requesting user's profile with live lead counts
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*domain.UserProfileDTO, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	assigned, err := s.leadRepo.CountAssignedByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	won, err := s.leadRepo.CountWonByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.leadRepo.CountActiveByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.UserProfileDTO{
		UserDTO:       mapper.ToUserDTO(user),
		AssignedLeads: assigned,
		WonLeads:      won,
		PendingLeads:  pending,
	}, nil
}

// Performance returns the per-agent rollup. Cached incentive counters are
// recomputed first so stale values heal on read.
func (s *UserService) Performance(ctx context.Context) ([]domain.UserPerformanceDTO, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.UserPerformanceDTO, 0, len(users))
	for i := range users {
		user := &users[i]
		if user.Role != domain.RoleSales {
			continue
		}

		if err := s.incentive.Recompute(ctx, user.ID); err != nil {
			return nil, err
		}
		refreshed, err := s.userRepo.GetByID(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		assigned, err := s.leadRepo.CountAssignedByOwner(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		pending, err := s.leadRepo.CountActiveByOwner(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		rows = append(rows, domain.UserPerformanceDTO{
			ID:                refreshed.ID,
			Name:              refreshed.Name,
			Email:             refreshed.Email,
			Phone:             refreshed.Phone,
			Role:              refreshed.Role,
			IsActive:          refreshed.IsActive,
			SalesTarget:       refreshed.SalesTarget,
			SalesAchieved:     refreshed.SalesAchieved,
			IncentiveEligible: refreshed.IncentiveEligible,
			AssignedLeads:     assigned,
			PendingLeads:      pending,
		})
	}
	return rows, nil
}
