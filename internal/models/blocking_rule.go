package models

import (
	"strings"
	"time"
)

// RuleType determines how a blocking rule value is compared against a URL.
type RuleType string

const (
	// RuleTypeExactDomain matches when the URL's host equals the rule value.
	RuleTypeExactDomain RuleType = "exact_domain"
	// RuleTypeExactURL matches when the full URL equals the rule value.
	RuleTypeExactURL RuleType = "exact_url"
	// RuleTypeKeyword matches when the rule value occurs anywhere in the URL.
	RuleTypeKeyword RuleType = "keyword"
)

// ValidRuleType reports whether t is one of the supported rule types.
func ValidRuleType(t RuleType) bool {
	switch t {
	case RuleTypeExactDomain, RuleTypeExactURL, RuleTypeKeyword:
		return true
	}
	return false
}

// BlockingRule is a per-profile URL blocking rule. Rules are evaluated in
// creation order and the first active match wins, so ordering is part of the
// observable behavior. Deactivated rules are kept for history display.
type BlockingRule struct {
	ID               uint     `json:"id" gorm:"primaryKey"`
	ManagedProfileID uint     `json:"managed_profile_id" gorm:"index;not null"`
	RuleType         RuleType `json:"rule_type" gorm:"size:50;not null"`
	RuleValue        string   `json:"rule_value" gorm:"size:255;not null"`
	Description      string   `json:"description" gorm:"size:255"`
	IsActive         bool     `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Matches reports whether the rule applies to the given URL. The url argument
// is the raw visited URL and host its extracted lower-cased hostname.
// Comparison is case-insensitive for every rule type.
func (r *BlockingRule) Matches(url, host string) bool {
	if !r.IsActive {
		return false
	}
	value := strings.ToLower(r.RuleValue)
	switch r.RuleType {
	case RuleTypeExactDomain:
		return host == value
	case RuleTypeExactURL:
		return strings.ToLower(url) == value
	case RuleTypeKeyword:
		return value != "" && strings.Contains(strings.ToLower(url), value)
	}
	return false
}
