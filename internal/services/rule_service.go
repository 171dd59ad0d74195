package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/safewaters/backend/internal/models"
)

var (
	ErrRuleNotFound    = errors.New("blocking rule not found")
	ErrInvalidRuleType = errors.New("invalid rule type")
)

// RuleService handles blocking rule CRUD under profile ownership, and the
// matching used by the decision engine.
type RuleService struct {
	db       *gorm.DB
	profiles *ProfileService
}

// NewRuleService returns a RuleService using the provided DB.
func NewRuleService(db *gorm.DB, profiles *ProfileService) *RuleService {
	return &RuleService{db: db, profiles: profiles}
}

// RuleInput carries rule fields from the API layer.
type RuleInput struct {
	RuleType    models.RuleType `json:"rule_type" binding:"required"`
	RuleValue   string          `json:"rule_value" binding:"required"`
	Description string          `json:"description"`
	IsActive    *bool           `json:"is_active"`
}

// CreateForProfile adds a rule to a profile owned by the manager.
func (s *RuleService) CreateForProfile(managerID, profileID uint, input RuleInput) (*models.BlockingRule, error) {
	if !models.ValidRuleType(input.RuleType) {
		return nil, ErrInvalidRuleType
	}
	if _, err := s.profiles.Get(managerID, profileID); err != nil {
		return nil, err
	}

	rule := models.BlockingRule{
		ManagedProfileID: profileID,
		RuleType:         input.RuleType,
		RuleValue:        input.RuleValue,
		Description:      input.Description,
		IsActive:         true,
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
	if err := s.db.Create(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListForProfile returns all rules of a profile, active or not, in creation order.
func (s *RuleService) ListForProfile(managerID, profileID uint) ([]models.BlockingRule, error) {
	if _, err := s.profiles.Get(managerID, profileID); err != nil {
		return nil, err
	}
	var rules []models.BlockingRule
	err := s.db.Where("managed_profile_id = ?", profileID).
		Order("created_at asc, id asc").Find(&rules).Error
	return rules, err
}

// Get fetches a single rule, enforcing ownership through its profile.
func (s *RuleService) Get(managerID, ruleID uint) (*models.BlockingRule, error) {
	var rule models.BlockingRule
	if err := s.db.First(&rule, ruleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	if _, err := s.profiles.Get(managerID, rule.ManagedProfileID); err != nil {
		return nil, ErrNotAuthorized
	}
	return &rule, nil
}

// Update modifies rule fields. Setting is_active false is the soft toggle
// that keeps the rule for audit without applying it.
func (s *RuleService) Update(managerID, ruleID uint, input RuleInput) (*models.BlockingRule, error) {
	rule, err := s.Get(managerID, ruleID)
	if err != nil {
		return nil, err
	}
	if input.RuleType != "" {
		if !models.ValidRuleType(input.RuleType) {
			return nil, ErrInvalidRuleType
		}
		rule.RuleType = input.RuleType
	}
	if input.RuleValue != "" {
		rule.RuleValue = input.RuleValue
	}
	if input.Description != "" {
		rule.Description = input.Description
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
	if err := s.db.Save(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// Delete removes a rule permanently.
func (s *RuleService) Delete(managerID, ruleID uint) error {
	rule, err := s.Get(managerID, ruleID)
	if err != nil {
		return err
	}
	return s.db.Delete(rule).Error
}

// ActiveRules returns a profile's active rules in evaluation order
// (creation order, id as tiebreaker).
func (s *RuleService) ActiveRules(profileID uint) ([]models.BlockingRule, error) {
	var rules []models.BlockingRule
	err := s.db.Where("managed_profile_id = ? AND is_active = ?", profileID, true).
		Order("created_at asc, id asc").Find(&rules).Error
	return rules, err
}

// MatchRule returns the first rule matching the URL, or nil. Evaluation order
// is the slice order, so earlier-created rules win over later ones.
func MatchRule(rules []models.BlockingRule, rawURL, host string) *models.BlockingRule {
	for i := range rules {
		if rules[i].Matches(rawURL, host) {
			return &rules[i]
		}
	}
	return nil
}
