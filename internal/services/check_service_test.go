package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/safewaters/backend/internal/models"
	"github.com/safewaters/backend/internal/threatintel"
)

type fakeClassifier struct {
	calls   int
	verdict threatintel.Verdict
}

func (f *fakeClassifier) Classify(_ context.Context, domain string) threatintel.Verdict {
	f.calls++
	v := f.verdict
	v.Domain = domain
	return v
}

func newCheckFixture(t *testing.T, db *gorm.DB, classifier Classifier) *CheckService {
	t.Helper()

	profiles := NewProfileService(db)
	rules := NewRuleService(db, profiles)
	history := NewHistoryService(db)
	return NewCheckService(db, classifier, profiles, rules, history, NewAlertService(""))
}

func historyCount(t *testing.T, db *gorm.DB, profileID uint) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.NavigationRecord{}).
		Where("managed_profile_id = ?", profileID).Count(&count).Error)
	return count
}

func TestCheckService_DisabledProfileSkipsEverything(t *testing.T) {
	db := setupTestDB(t, "check_disabled")
	classifier := &fakeClassifier{verdict: threatintel.Verdict{Malicious: true, Source: threatintel.SourceURLScan}}
	svc := newCheckFixture(t, db, classifier)
	owner := createTestManager(t, db, "owner@example.com")
	profile := createTestProfile(t, db, owner.ID, "Kid's Laptop")
	require.NoError(t, db.Model(profile).Update("url_checking_enabled", false).Error)
	profile.URLCheckingEnabled = false

	// Even a rule that would match is not consulted
	rule := models.BlockingRule{ManagedProfileID: profile.ID, RuleType: models.RuleTypeExactDomain, RuleValue: "bad.example", IsActive: true}
	require.NoError(t, db.Create(&rule).Error)

	decision, err := svc.Evaluate(context.Background(), profile, "https://bad.example/page")
	require.NoError(t, err)

	assert.False(t, decision.Blocked)
	assert.False(t, decision.Malicious)
	assert.Equal(t, SourceDisabled, decision.Source)
	assert.Zero(t, classifier.calls)
	assert.Equal(t, int64(1), historyCount(t, db, profile.ID), "disabled checks are still recorded")
}

func TestCheckService_RuleBlockShortCircuitsReputation(t *testing.T) {
	db := setupTestDB(t, "check_ruleblock")
	classifier := &fakeClassifier{verdict: threatintel.Verdict{Malicious: false, Source: threatintel.SourceNoSignal}}
	svc := newCheckFixture(t, db, classifier)
	owner := createTestManager(t, db, "owner@example.com")
	profile := createTestProfile(t, db, owner.ID, "Kid's Laptop")

	rule := models.BlockingRule{ManagedProfileID: profile.ID, RuleType: models.RuleTypeExactDomain, RuleValue: "bad.example", IsActive: true}
	require.NoError(t, db.Create(&rule).Error)

	decision, err := svc.Evaluate(context.Background(), profile, "https://bad.example/page")
	require.NoError(t, err)

	assert.True(t, decision.Blocked)
	assert.False(t, decision.Malicious)
	assert.Equal(t, SourceUserRules, decision.Source)
	assert.Contains(t, decision.RuleDetails, "exact_domain")
	assert.Contains(t, decision.RuleDetails, "bad.example")
	assert.Zero(t, classifier.calls, "reputation must not be consulted after a rule block")

	var record models.NavigationRecord
	require.NoError(t, db.Where("managed_profile_id = ?", profile.ID).First(&record).Error)
	assert.True(t, record.Blocked)
	assert.Equal(t, SourceUserRules, record.Source)
	require.NotNil(t, record.RuleID)
	assert.Equal(t, rule.ID, *record.RuleID)
	assert.Equal(t, "owner@example.com", record.OwnerEmailSnap)
}

func TestCheckService_FirstMatchingRuleWins(t *testing.T) {
	db := setupTestDB(t, "check_firstrule")
	classifier := &fakeClassifier{}
	svc := newCheckFixture(t, db, classifier)
	owner := createTestManager(t, db, "owner@example.com")
	profile := createTestProfile(t, db, owner.ID, "Kid's Laptop")

	first := models.BlockingRule{ManagedProfileID: profile.ID, RuleType: models.RuleTypeKeyword, RuleValue: "example", IsActive: true}
	require.NoError(t, db.Create(&first).Error)
	second := models.BlockingRule{ManagedProfileID: profile.ID, RuleType: models.RuleTypeExactDomain, RuleValue: "bad.example", IsActive: true}
	require.NoError(t, db.Create(&second).Error)

	decision, err := svc.Evaluate(context.Background(), profile, "https://bad.example/page")
	require.NoError(t, err)

	require.True(t, decision.Blocked)
	assert.Contains(t, decision.RuleDetails, "keyword")
}

func TestCheckService_InactiveRuleDoesNotBlock(t *testing.T) {
	db := setupTestDB(t, "check_inactiverule")
	classifier := &fakeClassifier{verdict: threatintel.Verdict{Malicious: false, Source: threatintel.SourceNoSignal, Info: "clean"}}
	svc := newCheckFixture(t, db, classifier)
	owner := createTestManager(t, db, "owner@example.com")
	profile := createTestProfile(t, db, owner.ID, "Kid's Laptop")

	rule := models.BlockingRule{ManagedProfileID: profile.ID, RuleType: models.RuleTypeExactDomain, RuleValue: "bad.example", IsActive: false}
	require.NoError(t, db.Create(&rule).Error)

	decision, err := svc.Evaluate(context.Background(), profile, "https://bad.example/page")
	require.NoError(t, err)

	assert.False(t, decision.Blocked)
	assert.Equal(t, threatintel.SourceNoSignal, decision.Source)
	assert.Equal(t, 1, classifier.calls)
}

func TestCheckService_MaliciousVerdictPassedThrough(t *testing.T) {
	db := setupTestDB(t, "check_malicious")
	classifier := &fakeClassifier{verdict: threatintel.Verdict{
		Malicious: true, Source: threatintel.SourceThreatFox, Info: "IOC reported",
	}}
	svc := newCheckFixture(t, db, classifier)
	owner := createTestManager(t, db, "owner@example.com")
	profile := createTestProfile(t, db, owner.ID, "Kid's Laptop")

	decision, err := svc.Evaluate(context.Background(), profile, "https://evil.example/login")
	require.NoError(t, err)

	assert.False(t, decision.Blocked, "reputation verdicts do not set the rule-block flag")
	assert.True(t, decision.Malicious)
	assert.Equal(t, threatintel.SourceThreatFox, decision.Source)
	assert.Equal(t, "evil.example", decision.Domain)

	var record models.NavigationRecord
	require.NoError(t, db.Where("managed_profile_id = ?", profile.ID).First(&record).Error)
	assert.True(t, record.Malicious)
	assert.Nil(t, record.RuleID)
}

func TestCheckService_CleanURLRecordedOnce(t *testing.T) {
	db := setupTestDB(t, "check_clean")
	classifier := &fakeClassifier{verdict: threatintel.Verdict{
		Malicious: false, Source: threatintel.SourceNoSignal, Info: "No danger signals found in consulted sources",
	}}
	svc := newCheckFixture(t, db, classifier)
	owner := createTestManager(t, db, "owner@example.com")
	profile := createTestProfile(t, db, owner.ID, "Kid's Laptop")

	decision, err := svc.Evaluate(context.Background(), profile, "https://good.example/home")
	require.NoError(t, err)

	assert.False(t, decision.Blocked)
	assert.False(t, decision.Malicious)
	assert.Equal(t, threatintel.SourceNoSignal, decision.Source)
	assert.Equal(t, int64(1), historyCount(t, db, profile.ID))
}

func TestCheckService_InvalidURLRejected(t *testing.T) {
	db := setupTestDB(t, "check_invalidurl")
	classifier := &fakeClassifier{}
	svc := newCheckFixture(t, db, classifier)
	owner := createTestManager(t, db, "owner@example.com")
	profile := createTestProfile(t, db, owner.ID, "Kid's Laptop")

	_, err := svc.Evaluate(context.Background(), profile, "not a url")
	assert.ErrorIs(t, err, threatintel.ErrInvalidURL)
	assert.Zero(t, classifier.calls)
	assert.Zero(t, historyCount(t, db, profile.ID), "nothing is recorded for unparseable input")
}

func TestCheckService_CheckByToken(t *testing.T) {
	db := setupTestDB(t, "check_bytoken")
	classifier := &fakeClassifier{verdict: threatintel.Verdict{Malicious: false, Source: threatintel.SourceNoSignal}}
	svc := newCheckFixture(t, db, classifier)
	owner := createTestManager(t, db, "owner@example.com")
	profile := createTestProfile(t, db, owner.ID, "Kid's Laptop")

	decision, err := svc.CheckByToken(context.Background(), profile.Token, "https://good.example/")
	require.NoError(t, err)
	assert.Equal(t, "good.example", decision.Domain)

	_, err = svc.CheckByToken(context.Background(), "bogus-token", "https://good.example/")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.CheckByToken(context.Background(), "", "https://good.example/")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
