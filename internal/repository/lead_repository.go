package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/acs-energy/crm-api/internal/domain"
)

// LeadFilters contains all filter options for listing leads
type LeadFilters struct {
	Stage         *domain.LeadStage
	OwnerID       *uuid.UUID
	LeadType      *domain.LeadType
	Area          *string
	MinScore      *int
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SearchQuery   *string
}

// LeadSortOption represents available sort options
type LeadSortOption string

const (
	LeadSortByCreatedDesc LeadSortOption = "created_desc"
	LeadSortByCreatedAsc  LeadSortOption = "created_asc"
	LeadSortByScoreDesc   LeadSortOption = "score_desc"
	LeadSortByScoreAsc    LeadSortOption = "score_asc"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	// Omit associations to avoid GORM trying to validate related records
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(lead).Error
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("id = ?", id).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetByLeadID looks up a lead by its human-readable reference (e.g. ACS-123456-abcd)
func (r *LeadRepository) GetByLeadID(ctx context.Context, leadID string) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("lead_id = ?", leadID).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(lead).Error
}

// Delete removes a lead together with its activities and followups in one transaction
func (r *LeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&domain.Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lead_id = ?", id).Delete(&domain.Followup{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Lead{}, "id = ?", id).Error
	})
}

func (r *LeadRepository) List(ctx context.Context, page, pageSize int, filters *LeadFilters, sortBy LeadSortOption) ([]domain.Lead, int64, error) {
	var leads []domain.Lead
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Lead{}).Preload("Owner")
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.applySorting(query, sortBy)

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&leads).Error

	return leads, total, err
}

// ListAll returns every lead matching the filters without pagination, for exports
func (r *LeadRepository) ListAll(ctx context.Context, filters *LeadFilters) ([]domain.Lead, error) {
	var leads []domain.Lead
	query := r.db.WithContext(ctx).Model(&domain.Lead{}).Preload("Owner")
	query = r.applyFilters(query, filters)
	err := query.Order("created_at ASC").Find(&leads).Error
	return leads, err
}

func (r *LeadRepository) applyFilters(query *gorm.DB, filters *LeadFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}
	if filters.LeadType != nil {
		query = query.Where("lead_type = ?", *filters.LeadType)
	}
	if filters.Area != nil {
		query = query.Where("LOWER(area) = ?", strings.ToLower(*filters.Area))
	}
	if filters.MinScore != nil {
		query = query.Where("lead_score >= ?", *filters.MinScore)
	}
	if filters.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filters.CreatedAfter)
	}
	if filters.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filters.CreatedBefore)
	}
	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		search := "%" + strings.ToLower(*filters.SearchQuery) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ? OR LOWER(lead_id) LIKE ?",
			search, search, search, search,
		)
	}
	return query
}

func (r *LeadRepository) applySorting(query *gorm.DB, sortBy LeadSortOption) *gorm.DB {
	switch sortBy {
	case LeadSortByCreatedAsc:
		return query.Order("created_at ASC")
	case LeadSortByScoreDesc:
		return query.Order("lead_score DESC, created_at DESC")
	case LeadSortByScoreAsc:
		return query.Order("lead_score ASC, created_at DESC")
	default:
		return query.Order("created_at DESC")
	}
}

// FindMatch returns the oldest non-duplicate lead with the same normalized
// phone or (when provided) the same email, for intake deduplication.
func (r *LeadRepository) FindMatch(ctx context.Context, normalizedPhone, email string) (*domain.Lead, error) {
	var lead domain.Lead
	query := r.db.WithContext(ctx).
		Where("duplicate_of_id IS NULL")

	if email != "" {
		query = query.Where("phone = ? OR LOWER(email) = ?", normalizedPhone, strings.ToLower(email))
	} else {
		query = query.Where("phone = ?", normalizedPhone)
	}

	err := query.Order("created_at ASC").First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// CountActiveByOwner counts leads assigned to the owner that are not yet closed
func (r *LeadRepository) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("owner_id = ? AND stage NOT IN ?", ownerID, domain.ClosedStages()).
		Count(&count).Error
	return count, err
}

// ListClosedByOwner returns the owner's closed (won or lost) leads,
// used for close-speed averaging
func (r *LeadRepository) ListClosedByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND stage IN ?", ownerID, domain.ClosedStages()).
		Find(&leads).Error
	return leads, err
}

// CountWonByOwner counts the owner's won leads
func (r *LeadRepository) CountWonByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("owner_id = ? AND stage = ?", ownerID, domain.LeadStageWon).
		Count(&count).Error
	return count, err
}

// CountAssignedByOwner counts all leads assigned to the owner
func (r *LeadRepository) CountAssignedByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

// StageCount is one row of the per-stage rollup
type StageCount struct {
	Stage domain.LeadStage
	Count int64
}

// CountByStage returns lead counts grouped by pipeline stage,
// optionally scoped to one owner
func (r *LeadRepository) CountByStage(ctx context.Context, ownerID *uuid.UUID) ([]StageCount, error) {
	var rows []StageCount
	query := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("stage, COUNT(*) as count").
		Group("stage")
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}
	err := query.Scan(&rows).Error
	return rows, err
}

// CountCreatedSince counts leads created at or after the given time,
// optionally scoped to one owner
func (r *LeadRepository) CountCreatedSince(ctx context.Context, since time.Time, ownerID *uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("created_at >= ?", since)
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}
	err := query.Count(&count).Error
	return count, err
}

// CountReachedMeeting counts leads currently at or beyond the meeting stage,
// optionally scoped to one owner
func (r *LeadRepository) CountReachedMeeting(ctx context.Context, ownerID *uuid.UUID) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("stage IN ?", []domain.LeadStage{
			domain.LeadStageMeetingBooked,
			domain.LeadStageProposalSent,
			domain.LeadStageWon,
		})
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}
	err := query.Count(&count).Error
	return count, err
}

// LocalityCount is one row of the locality hotspot rollup
type LocalityCount struct {
	Area     string
	Locality string
	Count    int64
}

// TopLocalities returns the areas/localities with the most leads,
// optionally scoped to one owner
func (r *LeadRepository) TopLocalities(ctx context.Context, limit int, ownerID *uuid.UUID) ([]LocalityCount, error) {
	var rows []LocalityCount
	query := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Select("area, locality, COUNT(*) as count").
		Group("area, locality").
		Order("count DESC").
		Limit(limit)
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}
	err := query.Scan(&rows).Error
	return rows, err
}

// ClearOwner detaches all leads from the given owner, used before user deletion
func (r *LeadRepository) ClearOwner(ctx context.Context, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("owner_id = ?", ownerID).
		Update("owner_id", nil).Error
}
