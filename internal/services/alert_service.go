package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"

	"github.com/safewaters/backend/internal/logger"
)

// AlertService pushes best-effort notifications to the manager's configured
// shoutrrr URL (discord, telegram, smtp, ...). A missing URL disables alerts.
type AlertService struct {
	url string
}

// NewAlertService returns an AlertService for the given shoutrrr URL.
func NewAlertService(url string) *AlertService {
	return &AlertService{url: url}
}

// MaliciousURLDetected notifies that a profile visited a flagged domain.
// Sent asynchronously; delivery failure is logged, never propagated.
func (s *AlertService) MaliciousURLDetected(profileName, domain, info string) {
	if s.url == "" {
		return
	}
	message := fmt.Sprintf("SafeWaters: profile %q visited flagged domain %s. %s", profileName, domain, info)
	go func() {
		if err := shoutrrr.Send(s.url, message); err != nil {
			logger.WithFields(map[string]interface{}{"domain": domain}).WithError(err).Error("alert delivery failed")
		}
	}()
}
