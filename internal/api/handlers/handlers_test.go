package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/safewaters/backend/internal/api/middleware"
	"github.com/safewaters/backend/internal/config"
	"github.com/safewaters/backend/internal/models"
	"github.com/safewaters/backend/internal/services"
	"github.com/safewaters/backend/internal/threatintel"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name)
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

// stubClassifier returns a fixed verdict so handler tests never touch the
// network.
type stubClassifier struct {
	verdict threatintel.Verdict
}

func (s stubClassifier) Classify(_ context.Context, domain string) threatintel.Verdict {
	v := s.verdict
	v.Domain = domain
	return v
}

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	auth     *services.AuthService
	profiles *services.ProfileService
}

func newTestEnv(t *testing.T, name string, verdict threatintel.Verdict) *testEnv {
	t.Helper()

	db := setupTestDB(t, name)
	cfg := config.Config{Environment: "test", JWTSecret: "test-secret"}

	auth := services.NewAuthService(db, cfg, nil)
	profiles := services.NewProfileService(db)
	rules := services.NewRuleService(db, profiles)
	history := services.NewHistoryService(db)
	checks := services.NewCheckService(db, stubClassifier{verdict: verdict}, profiles, rules, history, services.NewAlertService(""))

	checkHandler := NewCheckHandler(checks)
	historyHandler := NewHistoryHandler(profiles, history)

	router := gin.New()
	router.POST("/api/v1/check", checkHandler.Check)

	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(auth))
	protected.GET("/profiles/:id/history", historyHandler.ListForProfile)

	return &testEnv{db: db, router: router, auth: auth, profiles: profiles}
}

func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	_, err := e.auth.Register(email, "test-password", "Tester")
	require.NoError(t, err)
	token, err := e.auth.Login(email, "test-password")
	require.NoError(t, err)
	return token
}
