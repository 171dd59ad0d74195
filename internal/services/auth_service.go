package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safewaters/backend/internal/config"
	"github.com/safewaters/backend/internal/logger"
	"github.com/safewaters/backend/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

const (
	maxFailedLogins  = 5
	lockoutDuration  = 15 * time.Minute
	tokenLifetime    = 24 * time.Hour
	resetTokenExpiry = 30 * time.Minute
)

// AuthService handles manager registration, login and password reset.
type AuthService struct {
	db   *gorm.DB
	cfg  config.Config
	mail *MailService
}

// NewAuthService returns an AuthService using the provided DB and config.
func NewAuthService(db *gorm.DB, cfg config.Config, mail *MailService) *AuthService {
	return &AuthService{db: db, cfg: cfg, mail: mail}
}

// Register creates a manager account with a hashed password.
func (s *AuthService) Register(email, password, name string) (*models.User, error) {
	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := models.User{Email: email, Name: name, Enabled: true}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and returns a signed JWT. Repeated failures lock
// the account for a fixed window.
func (s *AuthService) Login(email, password string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		return "", ErrAccountLocked
	}

	if !user.Enabled {
		return "", ErrInvalidCredentials
	}

	if !user.CheckPassword(password) {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			until := time.Now().Add(lockoutDuration)
			user.LockedUntil = &until
		}
		if err := s.db.Save(&user).Error; err != nil {
			logger.Log().WithError(err).Warn("failed to persist login attempt counter")
		}
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLogin = &now
	if err := s.db.Save(&user).Error; err != nil {
		logger.Log().WithError(err).Warn("failed to persist last login")
	}

	return s.signToken(&user)
}

func (s *AuthService) signToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(tokenLifetime).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a JWT and returns the user ID it carries.
func (s *AuthService) ValidateToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidCredentials
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, ErrInvalidCredentials
	}
	return uint(sub), nil
}

// GetUserByID fetches a manager by primary key.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ChangePassword verifies the current password before replacing it.
func (s *AuthService) ChangePassword(userID uint, current, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(current) {
		return ErrInvalidCredentials
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.Save(user).Error
}

// RequestPasswordReset issues a reset token and mails it to the manager.
// An unknown email is not an error, so the endpoint does not leak which
// addresses are registered.
func (s *AuthService) RequestPasswordReset(email string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token := uuid.NewString()
	expires := time.Now().Add(resetTokenExpiry)
	user.ResetToken = token
	user.ResetExpires = &expires
	if err := s.db.Save(&user).Error; err != nil {
		return err
	}

	if s.mail != nil {
		if err := s.mail.SendPasswordReset(user.Email, user.Name, token); err != nil {
			logger.WithFields(map[string]interface{}{"email": user.Email}).WithError(err).Error("failed to send reset mail")
		}
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	var user models.User
	if err := s.db.Where("reset_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !user.HasValidResetToken() {
		return ErrInvalidResetToken
	}

	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.ResetToken = ""
	user.ResetExpires = nil
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return s.db.Save(&user).Error
}

// PurgeExpiredResetTokens clears tokens past their expiry. Invoked by the
// maintenance cron.
func (s *AuthService) PurgeExpiredResetTokens() (int64, error) {
	result := s.db.Model(&models.User{}).
		Where("reset_token <> '' AND reset_expires < ?", time.Now()).
		Updates(map[string]interface{}{"reset_token": "", "reset_expires": nil})
	return result.RowsAffected, result.Error
}
