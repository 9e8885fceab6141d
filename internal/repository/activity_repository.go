package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/acs-energy/crm-api/internal/domain"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

// ListByLead returns a lead's activities newest first
func (r *ActivityRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Activity, error) {
	var activities []domain.Activity
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&activities).Error
	return activities, err
}

// CountByLead returns the number of activities recorded against a lead
func (r *ActivityRepository) CountByLead(ctx context.Context, leadID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Activity{}).
		Where("lead_id = ?", leadID).
		Count(&count).Error
	return count, err
}
