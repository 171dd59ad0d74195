package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/safewaters/backend/internal/api/handlers"
	"github.com/safewaters/backend/internal/api/middleware"
	"github.com/safewaters/backend/internal/config"
	"github.com/safewaters/backend/internal/logger"
	"github.com/safewaters/backend/internal/metrics"
	"github.com/safewaters/backend/internal/models"
	"github.com/safewaters/backend/internal/services"
	"github.com/safewaters/backend/internal/threatintel"
)

// Deps exposes the pieces of the service graph that outlive route
// registration: the maintenance scheduler is started and stopped by main.
type Deps struct {
	Maintenance *services.Maintenance
}

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) (*Deps, error) {
	if err := db.AutoMigrate(
		&models.User{},
		&models.ManagedProfile{},
		&models.BlockingRule{},
		&models.NavigationRecord{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	// Verdict cache: Redis when configured, in-process store otherwise.
	var cache threatintel.VerdictCache
	var memCache *threatintel.MemoryCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		cache = threatintel.NewRedisCache(client)
		logger.WithFields(map[string]interface{}{"addr": cfg.RedisAddr}).Info("verdict cache backed by redis")
	} else {
		memCache = threatintel.NewMemoryCache()
		cache = memCache
		logger.Log().Info("verdict cache backed by in-process store")
	}

	waterfall := threatintel.NewWaterfall(
		cache,
		threatintel.NewURLScanClient(cfg.URLScanAPIKey, cfg.URLScanAPIURL, cfg.SourceTimeout),
		threatintel.NewThreatFoxClient(cfg.ThreatFoxAPIKey, cfg.ThreatFoxAPIURL, cfg.SourceTimeout),
		threatintel.NewAbuseIPDBClient(cfg.AbuseIPDBAPIKey, cfg.AbuseIPDBAPIURL, cfg.SourceTimeout),
		threatintel.NewResolver(cfg.SourceTimeout),
		cfg.CacheTTL,
	)

	mailService := services.NewMailService(cfg)
	authService := services.NewAuthService(db, cfg, mailService)
	profileService := services.NewProfileService(db)
	ruleService := services.NewRuleService(db, profileService)
	historyService := services.NewHistoryService(db)
	alertService := services.NewAlertService(cfg.AlertURL)
	checkService := services.NewCheckService(db, waterfall, profileService, ruleService, historyService, alertService)

	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	ruleHandler := handlers.NewRuleHandler(ruleService)
	historyHandler := handlers.NewHistoryHandler(profileService, historyService)
	checkHandler := handlers.NewCheckHandler(checkService)
	authMiddleware := middleware.AuthMiddleware(authService)

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.GET("/api/v1/health", handlers.HealthHandler)

	api := router.Group("/api/v1")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/password-reset/request", authHandler.RequestPasswordReset)
	api.POST("/auth/password-reset/confirm", authHandler.ConfirmPasswordReset)

	// Extension endpoint, authenticated by opaque profile token in the body.
	api.POST("/check", checkHandler.Check)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		protected.POST("/profiles", profileHandler.Create)
		protected.GET("/profiles", profileHandler.List)
		protected.GET("/profiles/:id", profileHandler.Get)
		protected.PUT("/profiles/:id", profileHandler.Update)
		protected.DELETE("/profiles/:id", profileHandler.Delete)
		protected.POST("/profiles/:id/rotate-token", profileHandler.RotateToken)

		protected.POST("/profiles/:id/rules", ruleHandler.Create)
		protected.GET("/profiles/:id/rules", ruleHandler.ListForProfile)
		protected.GET("/rules/:id", ruleHandler.Get)
		protected.PUT("/rules/:id", ruleHandler.Update)
		protected.DELETE("/rules/:id", ruleHandler.Delete)

		protected.GET("/profiles/:id/history", historyHandler.ListForProfile)
	}

	return &Deps{Maintenance: services.NewMaintenance(authService, memCache)}, nil
}
