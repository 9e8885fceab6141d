package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/repository"
)

// ReminderService runs the follow-up reminder sweep
type ReminderService struct {
	followupRepo *repository.FollowupRepository
	leadRepo     *repository.LeadRepository
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
}

func NewReminderService(
	followupRepo *repository.FollowupRepository,
	leadRepo *repository.LeadRepository,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		followupRepo: followupRepo,
		leadRepo:     leadRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// Sweep finds pending followups due by the end of the current day and
// appends a reminder note to each lead's activity trail. The followup itself
// stays pending; only an agent completes or skips it. Leads without a
// NextFollowUpDate get it backfilled from the followup.
func (s *ReminderService) Sweep(ctx context.Context, now time.Time) (int, error) {
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	due, err := s.followupRepo.ListDuePending(ctx, endOfDay)
	if err != nil {
		return 0, err
	}

	reminded := 0
	for i := range due {
		followup := &due[i]

		activity := &domain.Activity{
			LeadID:      followup.LeadID,
			UserID:      followup.UserID,
			Type:        domain.ActivityTypeNote,
			Subject:     "Follow-up reminder",
			Description: fmt.Sprintf("Auto reminder: follow-up due on %s", followup.DueDate.Format("2006-01-02")),
		}
		if err := s.activityRepo.Create(ctx, activity); err != nil {
			s.logger.Error("reminder note failed",
				zap.String("followup_id", followup.ID.String()),
				zap.Error(err),
			)
			continue
		}

		lead, err := s.leadRepo.GetByID(ctx, followup.LeadID)
		if err != nil {
			s.logger.Error("reminder lead lookup failed",
				zap.String("lead_id", followup.LeadID.String()),
				zap.Error(err),
			)
			continue
		}
		if lead.NextFollowUpDate == nil {
			dueDate := followup.DueDate
			lead.NextFollowUpDate = &dueDate
			if err := s.leadRepo.Update(ctx, lead); err != nil {
				s.logger.Error("reminder backfill failed",
					zap.String("lead_id", lead.ID.String()),
					zap.Error(err),
				)
				continue
			}
		}

		reminded++
	}

	if reminded > 0 {
		s.logger.Info("reminder sweep finished",
			zap.Int("due", len(due)),
			zap.Int("reminded", reminded),
		)
	}
	return reminded, nil
}
