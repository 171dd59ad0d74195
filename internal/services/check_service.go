package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/safewaters/backend/internal/logger"
	"github.com/safewaters/backend/internal/metrics"
	"github.com/safewaters/backend/internal/models"
	"github.com/safewaters/backend/internal/threatintel"
)

// Decision-level sources, reported when no reputation check ran.
const (
	SourceUserRules = "User Rules"
	SourceDisabled  = "Disabled"
)

// Decision is the final outcome for one visited URL. Exactly one of a rule
// block or a reputation classification produced it.
type Decision struct {
	Domain      string `json:"domain"`
	Blocked     bool   `json:"is_blocked_by_user_rule"`
	Malicious   bool   `json:"malicious"`
	Info        string `json:"info"`
	Source      string `json:"source"`
	RuleDetails string `json:"blocking_rule_details,omitempty"`

	rule *models.BlockingRule
}

// Classifier is the reputation waterfall seen by the decision engine.
type Classifier interface {
	Classify(ctx context.Context, domain string) threatintel.Verdict
}

// CheckService is the decision engine: policy rules first, reputation
// waterfall only when no rule matched, and every decision appended to
// history before it is returned.
type CheckService struct {
	db         *gorm.DB
	classifier Classifier
	profiles   *ProfileService
	rules      *RuleService
	history    *HistoryService
	alerts     *AlertService
}

// NewCheckService wires the decision engine.
func NewCheckService(db *gorm.DB, classifier Classifier, profiles *ProfileService, rules *RuleService, history *HistoryService, alerts *AlertService) *CheckService {
	return &CheckService{
		db:         db,
		classifier: classifier,
		profiles:   profiles,
		rules:      rules,
		history:    history,
		alerts:     alerts,
	}
}

// CheckByToken authenticates the extension's profile token and evaluates the
// URL. Token and URL validation errors are the only ones surfaced; source
// outages never are.
func (s *CheckService) CheckByToken(ctx context.Context, token, rawURL string) (*Decision, error) {
	profile, err := s.profiles.GetByToken(token)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(ctx, profile, rawURL)
}

// Evaluate runs the decision pipeline for one navigation event:
//  1. profile opt-out short-circuits everything,
//  2. first matching active rule blocks without any reputation lookup,
//  3. otherwise the waterfall classifies the domain.
//
// The decision is recorded in all three cases; a failed history write is
// logged and swallowed so a safety check never fails on audit plumbing.
func (s *CheckService) Evaluate(ctx context.Context, profile *models.ManagedProfile, rawURL string) (*Decision, error) {
	metrics.IncCheck()

	domain, err := threatintel.ExtractDomain(rawURL)
	if err != nil {
		return nil, err
	}

	if !profile.URLCheckingEnabled {
		decision := &Decision{
			Domain: domain,
			Source: SourceDisabled,
			Info:   "URL checking is disabled for this profile",
		}
		s.record(profile, rawURL, decision)
		return decision, nil
	}

	activeRules, err := s.rules.ActiveRules(profile.ID)
	if err != nil {
		return nil, fmt.Errorf("load active rules: %w", err)
	}

	if rule := MatchRule(activeRules, rawURL, domain); rule != nil {
		metrics.IncBlocked()
		decision := &Decision{
			Domain:      domain,
			Blocked:     true,
			Source:      SourceUserRules,
			Info:        "URL blocked by profile filtering rules",
			RuleDetails: fmt.Sprintf("Blocked by rule %s: %s", rule.RuleType, rule.RuleValue),
			rule:        rule,
		}
		s.record(profile, rawURL, decision)
		return decision, nil
	}

	verdict := s.classifier.Classify(ctx, domain)
	decision := &Decision{
		Domain:    verdict.Domain,
		Malicious: verdict.Malicious,
		Info:      verdict.Info,
		Source:    verdict.Source,
	}
	if verdict.Malicious {
		metrics.IncMalicious()
		if s.alerts != nil {
			s.alerts.MaliciousURLDetected(profile.ProfileName, domain, verdict.Info)
		}
	}
	s.record(profile, rawURL, decision)
	return decision, nil
}

func (s *CheckService) record(profile *models.ManagedProfile, rawURL string, decision *Decision) {
	owner := &profile.Manager
	if owner.ID == 0 {
		var manager models.User
		if err := s.db.First(&manager, profile.ManagerUserID).Error; err != nil {
			logger.WithFields(map[string]interface{}{"profile_id": profile.ID}).WithError(err).Warn("owner snapshot lookup failed")
			owner = nil
		} else {
			owner = &manager
		}
	}

	if _, err := s.history.Record(profile, owner, rawURL, decision); err != nil {
		logger.WithFields(map[string]interface{}{
			"profile_id": profile.ID,
			"url":        rawURL,
		}).WithError(err).Error("history write failed; returning decision anyway")
	}
}
