package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/mapper"
	"github.com/acs-energy/crm-api/internal/repository"
)

type FollowupService struct {
	followupRepo *repository.FollowupRepository
	leadRepo     *repository.LeadRepository
	leadService  *LeadService
	logger       *zap.Logger
}

func NewFollowupService(
	followupRepo *repository.FollowupRepository,
	leadRepo *repository.LeadRepository,
	leadService *LeadService,
	logger *zap.Logger,
) *FollowupService {
	return &FollowupService{
		followupRepo: followupRepo,
		leadRepo:     leadRepo,
		leadService:  leadService,
		logger:       logger,
	}
}

// Create schedules a followup and mirrors its due date onto the lead
func (s *FollowupService) Create(ctx context.Context, user *auth.UserContext, leadID uuid.UUID, req *domain.CreateFollowupRequest) (*domain.FollowupDTO, error) {
	lead, err := s.leadService.loadAccessible(ctx, user, leadID)
	if err != nil {
		return nil, err
	}

	followup := &domain.Followup{
		LeadID:      lead.ID,
		UserID:      user.UserID,
		DueDate:     req.DueDate.UTC(),
		Status:      domain.FollowupStatusPending,
		Notes:       req.Notes,
		CreatedByID: &user.UserID,
	}
	if err := s.followupRepo.Create(ctx, followup); err != nil {
		return nil, err
	}

	due := followup.DueDate
	lead.NextFollowUpDate = &due
	lead.UpdatedByID = &user.UserID
	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.Info("followup scheduled",
		zap.String("lead_id", lead.ID.String()),
		zap.Time("due_date", followup.DueDate),
	)

	dto := mapper.ToFollowupDTO(followup)
	return &dto, nil
}

// Update changes a followup's status or notes
func (s *FollowupService) Update(ctx context.Context, user *auth.UserContext, leadID, followupID uuid.UUID, req *domain.UpdateFollowupRequest) (*domain.FollowupDTO, error) {
	if _, err := s.leadService.loadAccessible(ctx, user, leadID); err != nil {
		return nil, err
	}

	followup, err := s.followupRepo.GetByID(ctx, followupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if followup.LeadID != leadID {
		return nil, ErrNotFound
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown followup status %q", ErrInvalidInput, *req.Status)
		}
		followup.Status = *req.Status
	}
	if req.Notes != nil {
		followup.Notes = *req.Notes
	}

	if err := s.followupRepo.Update(ctx, followup); err != nil {
		return nil, err
	}

	dto := mapper.ToFollowupDTO(followup)
	return &dto, nil
}

// ListByLead returns the lead's followups, soonest due first
func (s *FollowupService) ListByLead(ctx context.Context, user *auth.UserContext, leadID uuid.UUID) ([]domain.FollowupDTO, error) {
	lead, err := s.leadService.loadAccessible(ctx, user, leadID)
	if err != nil {
		return nil, err
	}

	followups, err := s.followupRepo.ListByLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	return mapper.ToFollowupDTOs(followups), nil
}
