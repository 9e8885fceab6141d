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

func createAssignmentService(db *gorm.DB) *service.AssignmentService {
	return service.NewAssignmentService(
		repository.NewLeadRepository(db),
		repository.NewUserRepository(db),
		zap.NewNop(),
	)
}

// backdateUser shifts a user's creation time so the candidate ordering in
// residual tie-breaks is deterministic.
func backdateUser(t *testing.T, db *gorm.DB, user *domain.User, by time.Duration) {
	err := db.Model(&domain.User{}).
		Where("id = ?", user.ID).
		Update("created_at", time.Now().Add(-by)).Error
	require.NoError(t, err)
}

func TestAssignmentService_PickOwner_LeastLoaded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createAssignmentService(db)
	ctx := context.Background()

	busy := testutil.CreateTestUser(t, db, "Busy", domain.RoleSales)
	idle := testutil.CreateTestUser(t, db, "Idle", domain.RoleSales)
	backdateUser(t, db, busy, 2*time.Hour)
	backdateUser(t, db, idle, time.Hour)

	testutil.CreateTestLead(t, db, "Open A", busy)
	testutil.CreateTestLead(t, db, "Open B", busy)
	testutil.CreateTestLead(t, db, "Open C", idle)

	owner, err := svc.PickOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, idle.ID, owner.ID)
}

func TestAssignmentService_PickOwner_ClosedLeadsDoNotCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createAssignmentService(db)
	ctx := context.Background()

	winner := testutil.CreateTestUser(t, db, "Winner", domain.RoleSales)
	loser := testutil.CreateTestUser(t, db, "Loser", domain.RoleSales)
	backdateUser(t, db, loser, 2*time.Hour)
	backdateUser(t, db, winner, time.Hour)

	// Winner has many closed leads but nothing open
	for i := 0; i < 3; i++ {
		closed := testutil.CreateTestLead(t, db, "Closed", winner)
		testutil.CloseLead(t, db, closed, domain.LeadStageWon, 24*time.Hour)
	}
	testutil.CreateTestLead(t, db, "Open", loser)

	owner, err := svc.PickOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, owner.ID)
}

func TestAssignmentService_PickOwner_CloseSpeedBreaksTies(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createAssignmentService(db)
	ctx := context.Background()

	slow := testutil.CreateTestUser(t, db, "Slow Closer", domain.RoleSales)
	fast := testutil.CreateTestUser(t, db, "Fast Closer", domain.RoleSales)
	backdateUser(t, db, slow, 48*time.Hour)
	backdateUser(t, db, fast, 24*time.Hour)

	slowLead := testutil.CreateTestLead(t, db, "Slow Won", slow)
	testutil.CloseLead(t, db, slowLead, domain.LeadStageWon, 240*time.Hour)

	fastLead := testutil.CreateTestLead(t, db, "Fast Won", fast)
	testutil.CloseLead(t, db, fastLead, domain.LeadStageLost, 24*time.Hour)

	// Equal load, so the faster closer wins despite being created later
	owner, err := svc.PickOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, fast.ID, owner.ID)
}

func TestAssignmentService_PickOwner_NoClosedLeadsRanksLast(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createAssignmentService(db)
	ctx := context.Background()

	rookie := testutil.CreateTestUser(t, db, "Rookie", domain.RoleSales)
	veteran := testutil.CreateTestUser(t, db, "Veteran", domain.RoleSales)
	backdateUser(t, db, rookie, 48*time.Hour)
	backdateUser(t, db, veteran, 24*time.Hour)

	won := testutil.CreateTestLead(t, db, "Veteran Won", veteran)
	testutil.CloseLead(t, db, won, domain.LeadStageWon, 72*time.Hour)

	owner, err := svc.PickOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, veteran.ID, owner.ID)
}

func TestAssignmentService_PickOwner_ResidualTieGoesToOldestAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createAssignmentService(db)
	ctx := context.Background()

	second := testutil.CreateTestUser(t, db, "Second", domain.RoleSales)
	first := testutil.CreateTestUser(t, db, "First", domain.RoleSales)
	backdateUser(t, db, second, time.Hour)
	backdateUser(t, db, first, 2*time.Hour)

	owner, err := svc.PickOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, owner.ID)
}

func TestAssignmentService_PickOwner_SkipsInactiveAndAdmins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createAssignmentService(db)
	ctx := context.Background()

	testutil.CreateTestUser(t, db, "Admin", domain.RoleAdmin)
	inactive := testutil.CreateTestUser(t, db, "Inactive", domain.RoleSales)
	require.NoError(t, db.Model(&domain.User{}).
		Where("id = ?", inactive.ID).
		Update("is_active", false).Error)
	active := testutil.CreateTestUser(t, db, "Active", domain.RoleSales)

	owner, err := svc.PickOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, active.ID, owner.ID)
}

func TestAssignmentService_PickOwner_EmptyPool(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createAssignmentService(db)

	_, err := svc.PickOwner(context.Background())
	assert.ErrorIs(t, err, service.ErrNoAssignableUsers)
}
