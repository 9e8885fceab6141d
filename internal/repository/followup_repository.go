package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/acs-energy/crm-api/internal/domain"
)

type FollowupRepository struct {
	db *gorm.DB
}

func NewFollowupRepository(db *gorm.DB) *FollowupRepository {
	return &FollowupRepository{db: db}
}

func (r *FollowupRepository) Create(ctx context.Context, followup *domain.Followup) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(followup).Error
}

func (r *FollowupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Followup, error) {
	var followup domain.Followup
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&followup).Error
	if err != nil {
		return nil, err
	}
	return &followup, nil
}

func (r *FollowupRepository) Update(ctx context.Context, followup *domain.Followup) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(followup).Error
}

// ListByLead returns a lead's followups, soonest due first
func (r *FollowupRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Followup, error) {
	var followups []domain.Followup
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("due_date ASC").
		Find(&followups).Error
	return followups, err
}

// ListDuePending returns pending followups whose due date has passed,
// for the reminder sweep
func (r *FollowupRepository) ListDuePending(ctx context.Context, now time.Time) ([]domain.Followup, error) {
	var followups []domain.Followup
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date <= ?", domain.FollowupStatusPending, now).
		Order("due_date ASC").
		Find(&followups).Error
	return followups, err
}
