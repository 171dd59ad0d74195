package models

import "time"

// NavigationRecord is an append-only audit row for one evaluated navigation
// event. Profile, owner and rule data are copied into the row at write time
// so later edits or deletions never change what history displays. Records are
// never updated after creation.
type NavigationRecord struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	ManagedProfileID uint      `json:"managed_profile_id" gorm:"index;not null"`
	VisitedURL       string    `json:"visited_url" gorm:"type:text;not null"`
	VisitedAt        time.Time `json:"visited_at" gorm:"index;not null"`

	// Final decision. Exactly one of the two paths produced it: a rule block
	// (Blocked true, Source "User Rules", reputation never consulted) or a
	// reputation classification (Blocked false, Source names the check).
	Blocked   bool   `json:"blocked" gorm:"index;not null"`
	Malicious bool   `json:"malicious" gorm:"not null"`
	Source    string `json:"source" gorm:"size:50"`
	Info      string `json:"info" gorm:"type:text"`

	// Rule snapshot, set only when a rule blocked the visit.
	RuleID          *uint   `json:"rule_id,omitempty"`
	RuleTypeSnap    *string `json:"rule_type_snapshot,omitempty" gorm:"size:50"`
	RuleValueSnap   *string `json:"rule_value_snapshot,omitempty" gorm:"size:255"`
	RuleDescription *string `json:"rule_description_snapshot,omitempty" gorm:"size:255"`

	// Profile and owner snapshots.
	ProfileNameSnap string `json:"profile_name_snapshot" gorm:"size:100"`
	OwnerEmailSnap  string `json:"owner_email_snapshot" gorm:"size:255"`
	OwnerNameSnap   string `json:"owner_name_snapshot" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
}
