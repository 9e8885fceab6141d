package service_test

import (
	"context"
	"testing"

	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/repository"
	"github.com/acs-energy/crm-api/internal/service"
	"github.com/acs-energy/crm-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createReportService(db *gorm.DB) *service.ReportService {
	return service.NewReportService(repository.NewLeadRepository(db), zap.NewNop())
}

func setLeadStage(t *testing.T, db *gorm.DB, lead *domain.Lead, stage domain.LeadStage) {
	require.NoError(t, db.Model(&domain.Lead{}).
		Where("id = ?", lead.ID).
		Update("stage", stage).Error)
}

func setLeadLocality(t *testing.T, db *gorm.DB, lead *domain.Lead, area, locality string) {
	require.NoError(t, db.Model(&domain.Lead{}).
		Where("id = ?", lead.ID).
		Updates(map[string]interface{}{"area": area, "locality": locality}).Error)
}

func TestReportService_Summary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReportService(db)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, db, "Admin", domain.RoleAdmin)
	agent := testutil.CreateTestUser(t, db, "Agent", domain.RoleSales)

	// Four leads: one New, one Qualified, one Meeting Booked, one Won
	l1 := testutil.CreateTestLead(t, db, "L1", agent)
	l2 := testutil.CreateTestLead(t, db, "L2", agent)
	l3 := testutil.CreateTestLead(t, db, "L3", nil)
	l4 := testutil.CreateTestLead(t, db, "L4", nil)
	setLeadStage(t, db, l2, domain.LeadStageQualified)
	setLeadStage(t, db, l3, domain.LeadStageMeetingBooked)
	setLeadStage(t, db, l4, domain.LeadStageWon)
	setLeadLocality(t, db, l1, "Andheri", "Lokhandwala")
	setLeadLocality(t, db, l2, "Andheri", "Lokhandwala")
	setLeadLocality(t, db, l3, "Bandra", "Pali Hill")

	summary, err := svc.Summary(ctx, adminContext(admin))
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.NewLeadsThisWeek)
	assert.Equal(t, int64(1), summary.StageCounts[domain.LeadStageNew])
	assert.Equal(t, int64(1), summary.StageCounts[domain.LeadStageQualified])
	assert.Equal(t, int64(1), summary.StageCounts[domain.LeadStageMeetingBooked])
	assert.Equal(t, int64(1), summary.StageCounts[domain.LeadStageWon])

	// Meeting Booked + Won reached a meeting: 2 of 4 leads
	assert.Equal(t, 50, summary.ConversionNewToMeeting)

	require.NotEmpty(t, summary.TopLocalities)
	assert.Equal(t, "Andheri", summary.TopLocalities[0].Area)
	assert.Equal(t, int64(2), summary.TopLocalities[0].Count)
}

func TestReportService_Summary_SalesScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReportService(db)
	ctx := context.Background()

	agent := testutil.CreateTestUser(t, db, "Agent", domain.RoleSales)
	other := testutil.CreateTestUser(t, db, "Other", domain.RoleSales)

	testutil.CreateTestLead(t, db, "Mine", agent)
	won := testutil.CreateTestLead(t, db, "Mine Won", agent)
	setLeadStage(t, db, won, domain.LeadStageWon)
	testutil.CreateTestLead(t, db, "Theirs A", other)
	testutil.CreateTestLead(t, db, "Theirs B", other)
	testutil.CreateTestLead(t, db, "Unowned", nil)

	summary, err := svc.Summary(ctx, adminContext(agent))
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.NewLeadsThisWeek)
	assert.Equal(t, int64(1), summary.StageCounts[domain.LeadStageNew])
	assert.Equal(t, int64(1), summary.StageCounts[domain.LeadStageWon])
	assert.Equal(t, 50, summary.ConversionNewToMeeting)
}

func TestReportService_Summary_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReportService(db)

	admin := testutil.CreateTestUser(t, db, "Admin", domain.RoleAdmin)
	summary, err := svc.Summary(context.Background(), adminContext(admin))
	require.NoError(t, err)

	assert.Zero(t, summary.NewLeadsThisWeek)
	assert.Empty(t, summary.StageCounts)
	assert.Zero(t, summary.ConversionNewToMeeting)
	assert.Empty(t, summary.TopLocalities)
}
