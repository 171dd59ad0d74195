package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a manager account. Managers own managed profiles and the
// blocking rules attached to them.
type User struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	Email               string     `json:"email" gorm:"uniqueIndex"`
	Name                string     `json:"name"`
	PasswordHash        string     `json:"-"` // Never serialize password hash
	Enabled             bool       `json:"enabled" gorm:"default:true"`
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`

	// Password reset flow
	ResetToken   string     `json:"-" gorm:"index"`
	ResetExpires *time.Time `json:"-"`

	Profiles []ManagedProfile `json:"profiles,omitempty" gorm:"foreignKey:ManagerUserID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetPassword hashes and sets the user's password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the provided password with the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// HasValidResetToken returns true if the user holds an unexpired reset token.
func (u *User) HasValidResetToken() bool {
	if u.ResetToken == "" || u.ResetExpires == nil {
		return false
	}
	return u.ResetExpires.After(time.Now())
}
