package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/acs-energy/crm-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// SetupTestDB opens an isolated in-memory SQLite database and migrates
// the full schema. Each call gets its own database, so tests can run in
// parallel without sharing state.
func SetupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open in-memory test database")

	// SQLite in-memory databases vanish when the last connection
	// closes, so keep the pool at a single connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&domain.User{},
		&domain.Lead{},
		&domain.Activity{},
		&domain.Followup{},
	)
	require.NoError(t, err, "Failed to migrate test schema")

	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// CreateTestUser creates an active user with the given role.
func CreateTestUser(t *testing.T, db *gorm.DB, name string, role domain.UserRole) *domain.User {
	user := &domain.User{
		Name:         name,
		Email:        fmt.Sprintf("%d@example.com", dbCounter.Add(1)),
		PasswordHash: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		Role:         role,
		IsActive:     true,
	}
	err := db.Omit(clause.Associations).Create(user).Error
	require.NoError(t, err)
	return user
}

// CreateTestLead creates a lead owned by the given user (nil for unassigned).
func CreateTestLead(t *testing.T, db *gorm.DB, name string, owner *domain.User) *domain.Lead {
	lead := &domain.Lead{
		LeadID:   fmt.Sprintf("ACS-%06d-test", dbCounter.Add(1)),
		LeadType: domain.LeadTypeCHS,
		Name:     name,
		Phone:    fmt.Sprintf("+9198765%05d", dbCounter.Add(1)%100000),
		Area:     "Andheri",
		Stage:    domain.LeadStageNew,
	}
	if owner != nil {
		lead.OwnerID = &owner.ID
	}
	err := db.Omit(clause.Associations).Create(lead).Error
	require.NoError(t, err)
	return lead
}

// CloseLead moves a lead to a terminal stage with a given open duration,
// so close-speed ordering is deterministic in tests.
func CloseLead(t *testing.T, db *gorm.DB, lead *domain.Lead, stage domain.LeadStage, openFor time.Duration) {
	created := time.Now().Add(-openFor)
	err := db.Model(&domain.Lead{}).
		Where("id = ?", lead.ID).
		Updates(map[string]interface{}{
			"stage":      stage,
			"created_at": created,
			"updated_at": created.Add(openFor),
		}).Error
	require.NoError(t, err)
}
