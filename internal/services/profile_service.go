package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safewaters/backend/internal/logger"
	"github.com/safewaters/backend/internal/models"
)

var (
	ErrProfileNotFound = errors.New("managed profile not found")
	ErrNotAuthorized   = errors.New("not authorized for this managed profile")
	ErrInvalidToken    = errors.New("invalid profile token")
)

// ProfileService handles managed profile CRUD and the token the extension
// authenticates with.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService returns a ProfileService using the provided DB.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// Create adds a profile owned by the manager and issues its opaque token.
func (s *ProfileService) Create(managerID uint, name string) (*models.ManagedProfile, error) {
	profile := models.ManagedProfile{
		ManagerUserID:      managerID,
		ProfileName:        name,
		Token:              uuid.NewString(),
		URLCheckingEnabled: true,
	}
	if err := s.db.Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns the manager's profiles.
func (s *ProfileService) List(managerID uint) ([]models.ManagedProfile, error) {
	var profiles []models.ManagedProfile
	err := s.db.Where("manager_user_id = ?", managerID).Order("created_at asc").Find(&profiles).Error
	return profiles, err
}

// Get fetches a profile, enforcing ownership.
func (s *ProfileService) Get(managerID, profileID uint) (*models.ManagedProfile, error) {
	var profile models.ManagedProfile
	if err := s.db.First(&profile, profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if profile.ManagerUserID != managerID {
		return nil, ErrNotAuthorized
	}
	return &profile, nil
}

// Update renames a profile or toggles URL checking.
func (s *ProfileService) Update(managerID, profileID uint, name *string, urlChecking *bool) (*models.ManagedProfile, error) {
	profile, err := s.Get(managerID, profileID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		profile.ProfileName = *name
	}
	if urlChecking != nil {
		profile.URLCheckingEnabled = *urlChecking
	}
	if err := s.db.Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// Delete removes a profile. Rules cascade; navigation records stay because
// they carry their own snapshots.
func (s *ProfileService) Delete(managerID, profileID uint) error {
	profile, err := s.Get(managerID, profileID)
	if err != nil {
		return err
	}
	return s.db.Select("Rules").Delete(profile).Error
}

// RotateToken replaces the extension token, invalidating the old one.
func (s *ProfileService) RotateToken(managerID, profileID uint) (*models.ManagedProfile, error) {
	profile, err := s.Get(managerID, profileID)
	if err != nil {
		return nil, err
	}
	profile.Token = uuid.NewString()
	if err := s.db.Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// GetByToken authenticates the extension: it resolves the opaque token to a
// profile with its manager preloaded, and stamps the last-seen time.
func (s *ProfileService) GetByToken(token string) (*models.ManagedProfile, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	var profile models.ManagedProfile
	if err := s.db.Preload("Manager").Where("token = ?", token).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.db.Model(&profile).Update("last_extension_seen", now).Error; err != nil {
		logger.WithFields(map[string]interface{}{"profile_id": profile.ID}).WithError(err).Warn("failed to stamp extension last-seen")
	}
	return &profile, nil
}
