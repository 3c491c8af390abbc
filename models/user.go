package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Email         string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash  string         `gorm:"size:255;not null" json:"-"`
	EmailVerified bool           `gorm:"default:false" json:"email_verified"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt   *time.Time     `json:"last_login_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Profile       *UserProfile   `json:"profile,omitempty"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// UserProfile stores quit settings and preferences for a user.
// QuitDate, CigarettesPerDay and CigarettePrice are nullable on purpose:
// "not set yet" is different from zero, and derived stats must be omitted
// instead of reported as zeros when inputs are missing.
type UserProfile struct {
	ID               uint       `gorm:"primaryKey" json:"-"`
	UserID           uint       `gorm:"uniqueIndex;not null" json:"-"`
	Name             string     `gorm:"size:100" json:"name"`
	Timezone         string     `gorm:"size:50;default:'UTC'" json:"timezone"`
	Locale           string     `gorm:"size:10;default:'en'" json:"locale"`
	Currency         string     `gorm:"size:3;default:'USD'" json:"currency"`
	QuitDate         *time.Time `gorm:"index" json:"quit_date"`
	QuitReason       string     `gorm:"type:text" json:"quit_reason"`
	CigarettesPerDay *int       `json:"cigarettes_per_day"`
	CigarettePrice   *float64   `gorm:"type:decimal(10,2)" json:"cigarette_price"`
	CreatedAt        time.Time  `json:"-"`
	UpdatedAt        time.Time  `json:"-"`
}
