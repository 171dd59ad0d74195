package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/safewaters/backend/internal/models"
)

// PageOutOfRangeError is returned when a requested history page lies beyond
// the last available page. It carries the real page count so the API can
// report it.
type PageOutOfRangeError struct {
	Page       int
	TotalPages int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d out of range: only %d page(s) available", e.Page, e.TotalPages)
}

// HistoryPage is one page of navigation records, newest first.
type HistoryPage struct {
	TotalItems  int64                     `json:"total_items"`
	TotalPages  int                       `json:"total_pages"`
	CurrentPage int                       `json:"current_page"`
	PageSize    int                       `json:"page_size"`
	Items       []models.NavigationRecord `json:"items"`
}

// HistoryService persists and serves the append-only navigation audit trail.
type HistoryService struct {
	db *gorm.DB
}

// NewHistoryService returns a HistoryService using the provided DB.
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Record appends one navigation record. Snapshots of the profile, its owner
// and the applied rule (if any) are copied in at write time so the row stays
// historically stable whatever happens to the source entities later.
func (s *HistoryService) Record(profile *models.ManagedProfile, owner *models.User, rawURL string, decision *Decision) (*models.NavigationRecord, error) {
	record := models.NavigationRecord{
		ManagedProfileID: profile.ID,
		VisitedURL:       rawURL,
		VisitedAt:        time.Now().UTC(),
		Blocked:          decision.Blocked,
		Malicious:        decision.Malicious,
		Source:           decision.Source,
		Info:             decision.Info,
		ProfileNameSnap:  profile.ProfileName,
	}
	if owner != nil {
		record.OwnerEmailSnap = owner.Email
		record.OwnerNameSnap = owner.Name
	}
	if decision.rule != nil {
		ruleType := string(decision.rule.RuleType)
		ruleValue := decision.rule.RuleValue
		ruleDesc := decision.rule.Description
		record.RuleID = &decision.rule.ID
		record.RuleTypeSnap = &ruleType
		record.RuleValueSnap = &ruleValue
		record.RuleDescription = &ruleDesc
	}

	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("append navigation record: %w", err)
	}
	return &record, nil
}

// ListForProfile returns a page of a profile's history, newest first,
// optionally restricted to blocked visits. Requesting a page beyond the last
// one is a *PageOutOfRangeError, not a silently empty page.
func (s *HistoryService) ListForProfile(profileID uint, page, pageSize int, blockedOnly bool) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	query := s.db.Model(&models.NavigationRecord{}).Where("managed_profile_id = ?", profileID)
	if blockedOnly {
		query = query.Where("blocked = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages > 0 && page > totalPages {
		return nil, &PageOutOfRangeError{Page: page, TotalPages: totalPages}
	}

	var items []models.NavigationRecord
	err := query.Order("visited_at desc, id desc").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
		Items:       items,
	}, nil
}
