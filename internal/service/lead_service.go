package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/mapper"
	"github.com/acs-energy/crm-api/internal/phone"
	"github.com/acs-energy/crm-api/internal/repository"
)

const leadRefPrefix = "ACS"

type LeadService struct {
	leadRepo     *repository.LeadRepository
	activityRepo *repository.ActivityRepository
	followupRepo *repository.FollowupRepository
	assignment   *AssignmentService
	incentive    *IncentiveService
	phoneRegion  string
	logger       *zap.Logger
}

func NewLeadService(
	leadRepo *repository.LeadRepository,
	activityRepo *repository.ActivityRepository,
	followupRepo *repository.FollowupRepository,
	assignment *AssignmentService,
	incentive *IncentiveService,
	phoneRegion string,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:     leadRepo,
		activityRepo: activityRepo,
		followupRepo: followupRepo,
		assignment:   assignment,
		incentive:    incentive,
		phoneRegion:  phoneRegion,
		logger:       logger,
	}
}

// CreateFromIntake handles the public lead capture form. Duplicates are
// flagged, never blocked: the lead is always created, with DuplicateOfID
// pointing at the oldest lead sharing the same phone or email.
func (s *LeadService) CreateFromIntake(ctx context.Context, req *domain.CreateLeadRequest) (*domain.CreateLeadResponse, error) {
	if !req.LeadType.IsValid() {
		return nil, fmt.Errorf("%w: unknown lead type %q", ErrInvalidInput, req.LeadType)
	}

	normalizedPhone := phone.NormalizeE164(req.Phone, s.phoneRegion)

	lead := &domain.Lead{
		LeadType:           req.LeadType,
		Name:               req.Name,
		Phone:              normalizedPhone,
		Email:              req.Email,
		Area:               req.Area,
		Locality:           req.Locality,
		PropertySizeFlats:  req.PropertySizeFlats,
		ParkingType:        domain.ParkingTypeOpen,
		CurrentEvCount:     req.CurrentEvCount,
		ChargerInterest:    req.ChargerInterest,
		Notes:              req.Notes,
		Consent:            req.Consent,
		DecisionMakerKnown: req.DecisionMakerKnown,
		Stage:              domain.LeadStageNew,
	}
	if req.ParkingType != "" {
		lead.ParkingType = domain.ParkingType(req.ParkingType)
		if !lead.ParkingType.IsValid() {
			return nil, fmt.Errorf("%w: unknown parking type %q", ErrInvalidInput, req.ParkingType)
		}
	}

	// Advisory dedup against the oldest original lead
	original, err := s.leadRepo.FindMatch(ctx, normalizedPhone, req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if original != nil {
		lead.DuplicateOfID = &original.ID
	}

	var ownerName *string
	owner, err := s.assignment.PickOwner(ctx)
	switch {
	case err == nil:
		lead.OwnerID = &owner.ID
		ownerName = &owner.Name
	case errors.Is(err, ErrNoAssignableUsers):
		// Lead stays unassigned until an agent is available
		s.logger.Warn("lead intake without assignable owner")
	default:
		return nil, err
	}

	lead.LeadScore = ComputeLeadScore(lead)

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, err
	}

	// The human-readable reference needs the persisted timestamps,
	// so it is derived and saved in a second write
	lead.LeadID = buildLeadRef(lead.CreatedAt, lead.ID)
	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.Info("lead captured",
		zap.String("lead_ref", lead.LeadID),
		zap.Bool("duplicate", lead.DuplicateOfID != nil),
		zap.Int("score", lead.LeadScore),
	)

	return &domain.CreateLeadResponse{
		LeadID:     lead.LeadID,
		ID:         lead.ID,
		Duplicate:  lead.DuplicateOfID != nil,
		AssignedTo: ownerName,
	}, nil
}

// buildLeadRef derives the human-readable lead reference from the creation
// time (last six digits of the epoch milliseconds) and the record's UUID
// (last four characters)
func buildLeadRef(createdAt time.Time, id uuid.UUID) string {
	ms := strconv.FormatInt(createdAt.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	suffix := id.String()
	suffix = suffix[len(suffix)-4:]
	return fmt.Sprintf("%s-%s-%s", leadRefPrefix, ms, suffix)
}

// Get returns a lead with its activity and followup history
func (s *LeadService) Get(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.LeadDetailDTO, error) {
	lead, err := s.loadAccessible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	activities, err := s.activityRepo.ListByLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	followups, err := s.followupRepo.ListByLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}

	return &domain.LeadDetailDTO{
		Lead:       mapper.ToLeadDTO(lead),
		Activities: mapper.ToActivityDTOs(activities),
		Followups:  mapper.ToFollowupDTOs(followups),
	}, nil
}

// List returns leads matching the filters. Sales users only ever see leads
// they own, regardless of the requested owner filter.
func (s *LeadService) List(ctx context.Context, user *auth.UserContext, page, pageSize int, filters *repository.LeadFilters, sortBy repository.LeadSortOption) ([]domain.LeadDTO, int64, error) {
	filters = scopeFilters(user, filters)

	leads, total, err := s.leadRepo.List(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, 0, err
	}
	return mapper.ToLeadDTOs(leads), total, nil
}

// Update applies a partial patch to a lead's business fields. Stage changes
// leave a note in the activity trail, and stage or owner changes trigger an
// incentive recompute for the affected owners.
func (s *LeadService) Update(ctx context.Context, user *auth.UserContext, id uuid.UUID, req *domain.UpdateLeadRequest) (*domain.LeadDTO, error) {
	lead, err := s.loadAccessible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	oldStage := lead.Stage
	oldOwnerID := lead.OwnerID

	if err := applyLeadPatch(lead, req, s.phoneRegion); err != nil {
		return nil, err
	}

	lead.LeadScore = ComputeLeadScore(lead)
	lead.UpdatedByID = &user.UserID

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}

	stageChanged := lead.Stage != oldStage
	ownerChanged := !uuidPtrEqual(lead.OwnerID, oldOwnerID)

	if stageChanged {
		description := req.StageNote
		if description == "" {
			description = fmt.Sprintf("Lead moved from %s to %s", oldStage, lead.Stage)
		}
		activity := &domain.Activity{
			LeadID:      lead.ID,
			UserID:      user.UserID,
			Type:        domain.ActivityTypeNote,
			Subject:     fmt.Sprintf("Stage: %s → %s", oldStage, lead.Stage),
			Description: description,
			CreatedByID: &user.UserID,
		}
		if err := s.activityRepo.Create(ctx, activity); err != nil {
			return nil, err
		}
	}

	if stageChanged || ownerChanged {
		if lead.OwnerID != nil {
			if err := s.incentive.Recompute(ctx, *lead.OwnerID); err != nil {
				return nil, err
			}
		}
		if ownerChanged && oldOwnerID != nil {
			if err := s.incentive.Recompute(ctx, *oldOwnerID); err != nil {
				return nil, err
			}
		}
	}

	updated, err := s.leadRepo.GetByID(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToLeadDTO(updated)
	return &dto, nil
}

// Delete removes a lead and its entire activity and followup history
func (s *LeadService) Delete(ctx context.Context, user *auth.UserContext, id uuid.UUID) error {
	lead, err := s.loadAccessible(ctx, user, id)
	if err != nil {
		return err
	}

	if err := s.leadRepo.Delete(ctx, lead.ID); err != nil {
		return err
	}

	if lead.OwnerID != nil {
		if err := s.incentive.Recompute(ctx, *lead.OwnerID); err != nil {
			return err
		}
	}

	s.logger.Info("lead deleted",
		zap.String("lead_id", lead.ID.String()),
		zap.String("lead_ref", lead.LeadID),
		zap.String("deleted_by", user.UserID.String()),
	)
	return nil
}

// csvHeader is the canonical externally visible lead shape
var csvHeader = []string{
	"leadId", "leadType", "name", "phone", "email", "area", "locality",
	"currentEvCount", "chargerInterest", "stage", "leadScore", "owner",
	"createdAt", "updatedAt",
}

// ExportCSV streams the filtered lead set as CSV
func (s *LeadService) ExportCSV(ctx context.Context, user *auth.UserContext, filters *repository.LeadFilters, w io.Writer) error {
	filters = scopeFilters(user, filters)

	leads, err := s.leadRepo.ListAll(ctx, filters)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range leads {
		lead := &leads[i]
		ownerName := ""
		if lead.Owner != nil {
			ownerName = lead.Owner.Name
		}
		record := []string{
			lead.LeadID,
			string(lead.LeadType),
			lead.Name,
			lead.Phone,
			lead.Email,
			lead.Area,
			lead.Locality,
			strconv.Itoa(lead.CurrentEvCount),
			joinInterest(lead.ChargerInterest),
			string(lead.Stage),
			strconv.Itoa(lead.LeadScore),
			ownerName,
			lead.CreatedAt.UTC().Format(time.RFC3339),
			lead.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func joinInterest(interest []string) string {
	out := ""
	for i, v := range interest {
		if i > 0 {
			out += "; "
		}
		out += v
	}
	return out
}

// loadAccessible fetches a lead and enforces the admin-or-owner predicate
func (s *LeadService) loadAccessible(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.CanAccessLead(lead) {
		return nil, ErrPermissionDenied
	}
	return lead, nil
}

// scopeFilters pins the owner filter to the requesting user for sales roles
func scopeFilters(user *auth.UserContext, filters *repository.LeadFilters) *repository.LeadFilters {
	if user.IsAdmin() {
		return filters
	}
	if filters == nil {
		filters = &repository.LeadFilters{}
	}
	ownerID := user.UserID
	filters.OwnerID = &ownerID
	return filters
}

// applyLeadPatch copies the provided fields onto the lead. Only business
// fields are patchable; identity and audit fields are not.
func applyLeadPatch(lead *domain.Lead, req *domain.UpdateLeadRequest, phoneRegion string) error {
	if req.LeadType != nil {
		if !req.LeadType.IsValid() {
			return fmt.Errorf("%w: unknown lead type %q", ErrInvalidInput, *req.LeadType)
		}
		lead.LeadType = *req.LeadType
	}
	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Phone != nil {
		lead.Phone = phone.NormalizeE164(*req.Phone, phoneRegion)
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Area != nil {
		lead.Area = *req.Area
	}
	if req.Locality != nil {
		lead.Locality = *req.Locality
	}
	if req.PropertySizeFlats != nil {
		lead.PropertySizeFlats = *req.PropertySizeFlats
	}
	if req.ParkingType != nil {
		if !req.ParkingType.IsValid() {
			return fmt.Errorf("%w: unknown parking type %q", ErrInvalidInput, *req.ParkingType)
		}
		lead.ParkingType = *req.ParkingType
	}
	if req.CurrentEvCount != nil {
		lead.CurrentEvCount = *req.CurrentEvCount
	}
	if req.ChargerInterest != nil {
		lead.ChargerInterest = *req.ChargerInterest
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}
	if req.Consent != nil {
		lead.Consent = *req.Consent
	}
	if req.DecisionMakerKnown != nil {
		lead.DecisionMakerKnown = *req.DecisionMakerKnown
	}
	if req.Stage != nil {
		if !req.Stage.IsValid() {
			return fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, *req.Stage)
		}
		lead.Stage = *req.Stage
	}
	if req.OwnerID != nil {
		lead.OwnerID = req.OwnerID
	}
	if req.NextFollowUpDate != nil {
		lead.NextFollowUpDate = req.NextFollowUpDate
	}
	return nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
