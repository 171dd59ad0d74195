package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/safewaters/backend/internal/config"
	"github.com/safewaters/backend/internal/models"
)

// setupTestDB creates an isolated in-memory database per test.
func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ManagedProfile{},
		&models.BlockingRule{},
		&models.NavigationRecord{},
	))
	return db
}

func testConfig() config.Config {
	return config.Config{
		Environment: "test",
		JWTSecret:   "test-secret",
	}
}

func createTestManager(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := models.User{Email: email, Name: "Test Manager", Enabled: true}
	require.NoError(t, user.SetPassword("initial-password"))
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestProfile(t *testing.T, db *gorm.DB, managerID uint, name string) *models.ManagedProfile {
	t.Helper()

	profile := models.ManagedProfile{
		ManagerUserID:      managerID,
		ProfileName:        name,
		Token:              uuid.NewString(),
		URLCheckingEnabled: true,
	}
	require.NoError(t, db.Create(&profile).Error)
	return &profile
}
