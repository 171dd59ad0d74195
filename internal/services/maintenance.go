package services

import (
	"github.com/robfig/cron/v3"

	"github.com/safewaters/backend/internal/logger"
	"github.com/safewaters/backend/internal/threatintel"
)

// Maintenance runs periodic housekeeping: purging expired password reset
// tokens and sweeping the in-process verdict cache when one is in use.
type Maintenance struct {
	cron  *cron.Cron
	auth  *AuthService
	cache *threatintel.MemoryCache
}

// NewMaintenance creates the scheduler. cache may be nil when Redis backs the
// verdict cache (Redis expires keys itself).
func NewMaintenance(auth *AuthService, cache *threatintel.MemoryCache) *Maintenance {
	return &Maintenance{cron: cron.New(), auth: auth, cache: cache}
}

// Start registers the jobs and launches the scheduler.
func (m *Maintenance) Start() error {
	if _, err := m.cron.AddFunc("@hourly", m.purgeResetTokens); err != nil {
		return err
	}
	if m.cache != nil {
		if _, err := m.cron.AddFunc("@every 10m", m.sweepCache); err != nil {
			return err
		}
	}
	m.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for running jobs.
func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

func (m *Maintenance) purgeResetTokens() {
	purged, err := m.auth.PurgeExpiredResetTokens()
	if err != nil {
		logger.Log().WithError(err).Warn("reset token purge failed")
		return
	}
	if purged > 0 {
		logger.WithFields(map[string]interface{}{"purged": purged}).Info("purged expired reset tokens")
	}
}

func (m *Maintenance) sweepCache() {
	if removed := m.cache.Sweep(); removed > 0 {
		logger.WithFields(map[string]interface{}{"removed": removed}).Debug("swept expired verdict cache entries")
	}
}
