package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/repository"
)

// AssignmentService picks an owner for incoming leads
type AssignmentService struct {
	leadRepo *repository.LeadRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewAssignmentService(
	leadRepo *repository.LeadRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		leadRepo: leadRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// PickOwner selects the active sales user with the fewest open leads.
// Ties go to the agent with the lowest average time from creation to close
// over their won/lost leads; agents with no closed leads rank last. Any
// remaining tie falls back to account age (the candidate list is ordered by
// CreatedAt then ID), so the outcome is deterministic.
func (s *AssignmentService) PickOwner(ctx context.Context) (*domain.User, error) {
	candidates, err := s.userRepo.ListActiveSales(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoAssignableUsers
	}

	best := -1
	var bestLoad int64
	var bestSpeed float64

	for i := range candidates {
		load, err := s.leadRepo.CountActiveByOwner(ctx, candidates[i].ID)
		if err != nil {
			return nil, err
		}

		if best >= 0 && load > bestLoad {
			continue
		}

		speed, err := s.averageCloseSeconds(ctx, candidates[i].ID)
		if err != nil {
			return nil, err
		}

		if best < 0 || load < bestLoad || speed < bestSpeed {
			best = i
			bestLoad = load
			bestSpeed = speed
		}
	}

	winner := &candidates[best]
	s.logger.Debug("lead owner selected",
		zap.String("user_id", winner.ID.String()),
		zap.Int64("active_load", bestLoad),
	)
	return winner, nil
}

// averageCloseSeconds returns the mean time from creation to last update
// across the user's closed leads, or +Inf when none have closed yet
func (s *AssignmentService) averageCloseSeconds(ctx context.Context, userID uuid.UUID) (float64, error) {
	closed, err := s.leadRepo.ListClosedByOwner(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(closed) == 0 {
		return math.Inf(1), nil
	}

	var total float64
	for i := range closed {
		total += closed[i].UpdatedAt.Sub(closed[i].CreatedAt).Seconds()
	}
	return total / float64(len(closed)), nil
}
