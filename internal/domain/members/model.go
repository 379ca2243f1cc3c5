package members

import (
	"time"
)

type Member struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Lastname     string
	Tel          string
	Email        string  `gorm:"not null;uniqueIndex:idx_members_email"`
	Password     *string `gorm:""`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_members_google_sub"`
	Role         string
	IsVerified   bool

	// Trial state set on signup; billing takes over once a checkout completes.
	TrialStartAt *time.Time `gorm:"column:trial_start_at"`
	TrialEndAt   *time.Time `gorm:"column:trial_end_at"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type VerificationToken struct {
	ID        uint   `gorm:"primaryKey"`
	MemberID  uint   `gorm:"uniqueIndex"`
	Member    Member `gorm:"constraint:OnDelete:CASCADE"`
	Token     string `gorm:"uniqueIndex"`
	Type      string `gorm:"index"`
	ExpiresAt time.Time
	CreatedAt time.Time
}
