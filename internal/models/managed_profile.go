package models

import "time"

// ManagedProfile represents a child's browser managed by a user. The browser
// extension authenticates with the opaque Token, never with the manager's
// credentials.
type ManagedProfile struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	ManagerUserID uint   `json:"manager_user_id" gorm:"index;not null"`
	ProfileName   string `json:"profile_name" gorm:"size:100;not null"`
	Token         string `json:"token" gorm:"uniqueIndex;size:36"`

	// URLCheckingEnabled is the per-profile opt-out: when false the decision
	// engine skips both rules and reputation lookups.
	URLCheckingEnabled bool `json:"url_checking_enabled" gorm:"default:true"`

	LastExtensionSeen *time.Time `json:"last_extension_seen,omitempty"`

	Manager User           `json:"-" gorm:"foreignKey:ManagerUserID"`
	Rules   []BlockingRule `json:"rules,omitempty" gorm:"foreignKey:ManagedProfileID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
