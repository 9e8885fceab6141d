package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/mapper"
	"github.com/acs-energy/crm-api/internal/repository"
)

// ActivityService appends entries to a lead's audit trail. Activities are
// never updated or deleted on their own; they only disappear when their
// lead is deleted.
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	leadService  *LeadService
	logger       *zap.Logger
}

func NewActivityService(
	activityRepo *repository.ActivityRepository,
	leadService *LeadService,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		leadService:  leadService,
		logger:       logger,
	}
}

// Log appends an activity to the lead's history
func (s *ActivityService) Log(ctx context.Context, user *auth.UserContext, leadID uuid.UUID, req *domain.CreateActivityRequest) (*domain.ActivityDTO, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, req.Type)
	}

	lead, err := s.leadService.loadAccessible(ctx, user, leadID)
	if err != nil {
		return nil, err
	}

	activity := &domain.Activity{
		LeadID:        lead.ID,
		UserID:        user.UserID,
		Type:          req.Type,
		Subject:       req.Subject,
		Description:   req.Description,
		AttachmentURL: req.AttachmentURL,
		CreatedByID:   &user.UserID,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	s.logger.Info("activity logged",
		zap.String("lead_id", lead.ID.String()),
		zap.String("type", string(req.Type)),
	)

	dto := mapper.ToActivityDTO(activity)
	dto.UserName = user.Name
	return &dto, nil
}

// ListByLead returns the lead's activity trail, newest first
func (s *ActivityService) ListByLead(ctx context.Context, user *auth.UserContext, leadID uuid.UUID) ([]domain.ActivityDTO, error) {
	lead, err := s.leadService.loadAccessible(ctx, user, leadID)
	if err != nil {
		return nil, err
	}

	activities, err := s.activityRepo.ListByLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	return mapper.ToActivityDTOs(activities), nil
}
