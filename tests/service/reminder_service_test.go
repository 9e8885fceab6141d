package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/acs-energy/crm-api/internal/repository"
	"github.com/acs-energy/crm-api/internal/service"
	"github.com/acs-energy/crm-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createReminderService(db *gorm.DB) *service.ReminderService {
	return service.NewReminderService(
		repository.NewFollowupRepository(db),
		repository.NewLeadRepository(db),
		repository.NewActivityRepository(db),
		zap.NewNop(),
	)
}

func createFollowup(t *testing.T, db *gorm.DB, lead *domain.Lead, user *domain.User, due time.Time, status domain.FollowupStatus) *domain.Followup {
	f := &domain.Followup{
		LeadID:  lead.ID,
		UserID:  user.ID,
		DueDate: due,
		Status:  status,
	}
	require.NoError(t, db.Create(f).Error)
	return f
}

func TestReminderService_Sweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReminderService(db)
	ctx := context.Background()
	now := time.Now()

	agent := testutil.CreateTestUser(t, db, "Agent", domain.RoleSales)

	t.Run("posts note for due followup and leaves it pending", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Due Lead", agent)
		due := now.Add(-24 * time.Hour)
		followup := createFollowup(t, db, lead, agent, due, domain.FollowupStatusPending)

		reminded, err := svc.Sweep(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, reminded)

		activities, err := repository.NewActivityRepository(db).ListByLead(ctx, lead.ID)
		require.NoError(t, err)
		require.Len(t, activities, 1)
		assert.Equal(t, domain.ActivityTypeNote, activities[0].Type)
		assert.Equal(t, "Follow-up reminder", activities[0].Subject)
		assert.Equal(t, "Auto reminder: follow-up due on "+due.Format("2006-01-02"), activities[0].Description)

		// The sweep never consumes the followup
		refreshed, err := repository.NewFollowupRepository(db).GetByID(ctx, followup.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FollowupStatusPending, refreshed.Status)
	})

	t.Run("backfills next followup date only when unset", func(t *testing.T) {
		bare := testutil.CreateTestLead(t, db, "Bare Lead", agent)
		createFollowup(t, db, bare, agent, now.Add(-time.Hour), domain.FollowupStatusPending)

		preset := testutil.CreateTestLead(t, db, "Preset Lead", agent)
		existing := now.Add(72 * time.Hour)
		require.NoError(t, db.Model(&domain.Lead{}).
			Where("id = ?", preset.ID).
			Update("next_follow_up_date", existing).Error)
		createFollowup(t, db, preset, agent, now.Add(-time.Hour), domain.FollowupStatusPending)

		_, err := svc.Sweep(ctx, now)
		require.NoError(t, err)

		leadRepo := repository.NewLeadRepository(db)
		bareAfter, err := leadRepo.GetByID(ctx, bare.ID)
		require.NoError(t, err)
		require.NotNil(t, bareAfter.NextFollowUpDate)

		presetAfter, err := leadRepo.GetByID(ctx, preset.ID)
		require.NoError(t, err)
		require.NotNil(t, presetAfter.NextFollowUpDate)
		assert.WithinDuration(t, existing, *presetAfter.NextFollowUpDate, time.Second)
	})
}

func TestReminderService_Sweep_Selection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReminderService(db)
	ctx := context.Background()
	now := time.Now()

	agent := testutil.CreateTestUser(t, db, "Agent", domain.RoleSales)
	lead := testutil.CreateTestLead(t, db, "Selective Lead", agent)

	// Due later today: included. Due next week: not. Completed: never.
	createFollowup(t, db, lead, agent, now.Add(time.Minute), domain.FollowupStatusPending)
	createFollowup(t, db, lead, agent, now.Add(7*24*time.Hour), domain.FollowupStatusPending)
	createFollowup(t, db, lead, agent, now.Add(-time.Hour), domain.FollowupStatusCompleted)

	reminded, err := svc.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, reminded)

	activities, err := repository.NewActivityRepository(db).ListByLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, activities, 1)
}

func TestReminderService_Sweep_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createReminderService(db)

	reminded, err := svc.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, reminded)
}
