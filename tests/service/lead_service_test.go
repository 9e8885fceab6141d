package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"regexp"
	"testing"

	"github.com/google/uuid"

	"github.com/acs-energy/crm-api/internal/auth"
	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/repository"
	"github.com/acs-energy/crm-api/internal/service"
	"github.com/acs-energy/crm-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createLeadService(db *gorm.DB) *service.LeadService {
	logger := zap.NewNop()
	leadRepo := repository.NewLeadRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	followupRepo := repository.NewFollowupRepository(db)
	userRepo := repository.NewUserRepository(db)
	assignment := service.NewAssignmentService(leadRepo, userRepo, logger)
	incentive := service.NewIncentiveService(leadRepo, userRepo, logger)
	return service.NewLeadService(leadRepo, activityRepo, followupRepo, assignment, incentive, "IN", logger)
}

func adminContext(user *domain.User) *auth.UserContext {
	return &auth.UserContext{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}
}

func TestLeadService_CreateFromIntake(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := context.Background()

	agent := testutil.CreateTestUser(t, db, "Agent", domain.RoleSales)

	t.Run("creates lead with reference and score", func(t *testing.T) {
		resp, err := svc.CreateFromIntake(ctx, &domain.CreateLeadRequest{
			LeadType:           domain.LeadTypeCHS,
			Name:               "Sunshine Towers",
			Phone:              "9876543210",
			Area:               "Andheri West",
			ParkingType:        "basement",
			PropertySizeFlats:  150,
			DecisionMakerKnown: true,
		})
		require.NoError(t, err)
		assert.False(t, resp.Duplicate)
		require.NotNil(t, resp.AssignedTo)
		assert.Equal(t, agent.Name, *resp.AssignedTo)
		assert.Regexp(t, regexp.MustCompile(`^ACS-\d{1,6}-[0-9a-f]{4}$`), resp.LeadID)

		leadRepo := repository.NewLeadRepository(db)
		lead, err := leadRepo.GetByID(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "+919876543210", lead.Phone)
		assert.Equal(t, 6, lead.LeadScore)
		assert.Equal(t, domain.LeadStageNew, lead.Stage)
		require.NotNil(t, lead.OwnerID)
		assert.Equal(t, agent.ID, *lead.OwnerID)
	})

	t.Run("flags duplicate by phone but still creates", func(t *testing.T) {
		first, err := svc.CreateFromIntake(ctx, &domain.CreateLeadRequest{
			LeadType: domain.LeadTypeHotel,
			Name:     "Grand Hotel",
			Phone:    "9822001122",
			Area:     "Bandra",
		})
		require.NoError(t, err)

		// Same number written differently still matches after normalization
		second, err := svc.CreateFromIntake(ctx, &domain.CreateLeadRequest{
			LeadType: domain.LeadTypeHotel,
			Name:     "Grand Hotel Again",
			Phone:    "+91 98220 01122",
			Area:     "Bandra",
		})
		require.NoError(t, err)
		assert.True(t, second.Duplicate)
		assert.NotEqual(t, first.ID, second.ID)

		leadRepo := repository.NewLeadRepository(db)
		dup, err := leadRepo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		require.NotNil(t, dup.DuplicateOfID)
		assert.Equal(t, first.ID, *dup.DuplicateOfID)
	})

	t.Run("flags duplicate by email case-insensitively", func(t *testing.T) {
		first, err := svc.CreateFromIntake(ctx, &domain.CreateLeadRequest{
			LeadType: domain.LeadTypeCorporate,
			Name:     "Tech Park",
			Phone:    "9833112233",
			Email:    "facility@techpark.example",
			Area:     "Powai",
		})
		require.NoError(t, err)

		second, err := svc.CreateFromIntake(ctx, &domain.CreateLeadRequest{
			LeadType: domain.LeadTypeCorporate,
			Name:     "Tech Park Duplicate",
			Phone:    "9844223344",
			Email:    "Facility@TechPark.example",
			Area:     "Powai",
		})
		require.NoError(t, err)
		assert.True(t, second.Duplicate)

		leadRepo := repository.NewLeadRepository(db)
		dup, err := leadRepo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		require.NotNil(t, dup.DuplicateOfID)
		assert.Equal(t, first.ID, *dup.DuplicateOfID)
	})

	t.Run("rejects unknown lead type", func(t *testing.T) {
		_, err := svc.CreateFromIntake(ctx, &domain.CreateLeadRequest{
			LeadType: "Mall",
			Name:     "Some Mall",
			Phone:    "9855334455",
			Area:     "Thane",
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects unknown parking type", func(t *testing.T) {
		_, err := svc.CreateFromIntake(ctx, &domain.CreateLeadRequest{
			LeadType:    domain.LeadTypeCHS,
			Name:        "Bad Parking",
			Phone:       "9866445566",
			Area:        "Thane",
			ParkingType: "rooftop",
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestLeadService_CreateFromIntake_NoAssignableUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)

	// No sales users exist; the lead is captured unassigned
	resp, err := svc.CreateFromIntake(context.Background(), &domain.CreateLeadRequest{
		LeadType: domain.LeadTypeCHS,
		Name:     "Orphan Lead",
		Phone:    "9877665544",
		Area:     "Dadar",
	})
	require.NoError(t, err)
	assert.Nil(t, resp.AssignedTo)

	lead, err := repository.NewLeadRepository(db).GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Nil(t, lead.OwnerID)
}

func TestLeadService_Update_StageChange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, db, "Admin", domain.RoleAdmin)
	userCtx := adminContext(admin)
	lead := testutil.CreateTestLead(t, db, "Stage Lead", nil)

	t.Run("stage change writes audit note with default description", func(t *testing.T) {
		stage := domain.LeadStageQualified
		_, err := svc.Update(ctx, userCtx, lead.ID, &domain.UpdateLeadRequest{Stage: &stage})
		require.NoError(t, err)

		activities, err := repository.NewActivityRepository(db).ListByLead(ctx, lead.ID)
		require.NoError(t, err)
		require.Len(t, activities, 1)
		assert.Equal(t, domain.ActivityTypeNote, activities[0].Type)
		assert.Equal(t, "Stage: New → Qualified", activities[0].Subject)
		assert.Equal(t, "Lead moved from New to Qualified", activities[0].Description)
		assert.Equal(t, admin.ID, activities[0].UserID)
	})

	t.Run("stage change uses provided note", func(t *testing.T) {
		stage := domain.LeadStageMeetingBooked
		_, err := svc.Update(ctx, userCtx, lead.ID, &domain.UpdateLeadRequest{
			Stage:     &stage,
			StageNote: "Committee agreed to meet on site",
		})
		require.NoError(t, err)

		activities, err := repository.NewActivityRepository(db).ListByLead(ctx, lead.ID)
		require.NoError(t, err)
		require.Len(t, activities, 2)
		// Newest first
		assert.Equal(t, "Stage: Qualified → Meeting Booked", activities[0].Subject)
		assert.Equal(t, "Committee agreed to meet on site", activities[0].Description)
	})

	t.Run("update without stage change leaves no note", func(t *testing.T) {
		notes := "Updated notes only"
		_, err := svc.Update(ctx, userCtx, lead.ID, &domain.UpdateLeadRequest{Notes: &notes})
		require.NoError(t, err)

		activities, err := repository.NewActivityRepository(db).ListByLead(ctx, lead.ID)
		require.NoError(t, err)
		assert.Len(t, activities, 2)
	})

	t.Run("rejects invalid stage", func(t *testing.T) {
		stage := domain.LeadStage("Negotiating")
		_, err := svc.Update(ctx, userCtx, lead.ID, &domain.UpdateLeadRequest{Stage: &stage})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestLeadService_Update_RecomputesScore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, db, "Admin", domain.RoleAdmin)
	lead := testutil.CreateTestLead(t, db, "Score Lead", nil)

	flats := 200
	parking := domain.ParkingTypeBasement
	updated, err := svc.Update(ctx, adminContext(admin), lead.ID, &domain.UpdateLeadRequest{
		PropertySizeFlats: &flats,
		ParkingType:       &parking,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.LeadScore)
}

func TestLeadService_WonMarksIncentive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, db, "Admin", domain.RoleAdmin)
	agent := testutil.CreateTestUser(t, db, "Agent", domain.RoleSales)
	agent.SalesTarget = 1
	require.NoError(t, db.Save(agent).Error)

	lead := testutil.CreateTestLead(t, db, "Won Lead", agent)

	stage := domain.LeadStageWon
	_, err := svc.Update(ctx, adminContext(admin), lead.ID, &domain.UpdateLeadRequest{Stage: &stage})
	require.NoError(t, err)

	refreshed, err := repository.NewUserRepository(db).GetByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.SalesAchieved)
	assert.True(t, refreshed.IncentiveEligible)
}

func TestLeadService_AccessControl(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := context.Background()

	owner := testutil.CreateTestUser(t, db, "Owner", domain.RoleSales)
	other := testutil.CreateTestUser(t, db, "Other", domain.RoleSales)
	lead := testutil.CreateTestLead(t, db, "Protected Lead", owner)

	t.Run("owner can read", func(t *testing.T) {
		detail, err := svc.Get(ctx, adminContext(owner), lead.ID)
		require.NoError(t, err)
		assert.Equal(t, lead.ID, detail.Lead.ID)
	})

	t.Run("other sales agent cannot read", func(t *testing.T) {
		_, err := svc.Get(ctx, adminContext(other), lead.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("sales list is scoped to own leads", func(t *testing.T) {
		testutil.CreateTestLead(t, db, "Other Lead", other)

		leads, total, err := svc.List(ctx, adminContext(owner), 1, 20, nil, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, leads, 1)
		assert.Equal(t, lead.ID, leads[0].ID)
	})
}

func TestLeadService_Delete_Cascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, db, "Admin", domain.RoleAdmin)
	agent := testutil.CreateTestUser(t, db, "Agent", domain.RoleSales)
	lead := testutil.CreateTestLead(t, db, "Doomed Lead", agent)

	require.NoError(t, db.Create(&domain.Activity{
		LeadID:      lead.ID,
		UserID:      agent.ID,
		Type:        domain.ActivityTypeCall,
		Description: "Intro call",
	}).Error)
	require.NoError(t, db.Create(&domain.Followup{
		LeadID:  lead.ID,
		UserID:  agent.ID,
		DueDate: lead.CreatedAt,
		Status:  domain.FollowupStatusPending,
	}).Error)

	require.NoError(t, svc.Delete(ctx, adminContext(admin), lead.ID))

	var leadCount, activityCount, followupCount int64
	db.Model(&domain.Lead{}).Where("id = ?", lead.ID).Count(&leadCount)
	db.Model(&domain.Activity{}).Where("lead_id = ?", lead.ID).Count(&activityCount)
	db.Model(&domain.Followup{}).Where("lead_id = ?", lead.ID).Count(&followupCount)
	assert.Zero(t, leadCount)
	assert.Zero(t, activityCount)
	assert.Zero(t, followupCount)
}

func TestLeadService_ExportCSV(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, db, "Admin", domain.RoleAdmin)
	agent := testutil.CreateTestUser(t, db, "Agent", domain.RoleSales)
	testutil.CreateTestLead(t, db, "CSV Lead A", agent)
	testutil.CreateTestLead(t, db, "CSV Lead B", nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, adminContext(admin), nil, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		"leadId", "leadType", "name", "phone", "email", "area", "locality",
		"currentEvCount", "chargerInterest", "stage", "leadScore", "owner",
		"createdAt", "updatedAt",
	}, records[0])

	// Sales agents only export their own leads
	buf.Reset()
	require.NoError(t, svc.ExportCSV(ctx, adminContext(agent), nil, &buf))
	records, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "CSV Lead A", records[1][2])
}

func TestLeadService_Get_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)

	admin := testutil.CreateTestUser(t, db, "Admin", domain.RoleAdmin)
	_, err := svc.Get(context.Background(), adminContext(admin), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
