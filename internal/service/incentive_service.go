package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/repository"
)

// IncentiveService keeps the cached sales target counters on users current
type IncentiveService struct {
	leadRepo *repository.LeadRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewIncentiveService(
	leadRepo *repository.LeadRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *IncentiveService {
	return &IncentiveService{
		leadRepo: leadRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Recompute refreshes SalesAchieved and IncentiveEligible for the user from
// their won lead count. A zero target never qualifies. The user record is
// only written when a value actually changed.
func (s *IncentiveService) Recompute(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	wonCount, err := s.leadRepo.CountWonByOwner(ctx, userID)
	if err != nil {
		return err
	}

	achieved := int(wonCount)
	eligible := user.SalesTarget > 0 && achieved >= user.SalesTarget

	if user.SalesAchieved == achieved && user.IncentiveEligible == eligible {
		return nil
	}

	user.SalesAchieved = achieved
	user.IncentiveEligible = eligible
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("sales incentive recomputed",
		zap.String("user_id", userID.String()),
		zap.Int("achieved", achieved),
		zap.Bool("eligible", eligible),
	)
	return nil
}
