package models

import (
	"encoding/json"
	"time"
)

// Achievement is a static definition of something a user can earn.
// Names and descriptions are localized maps stored as JSON text.
type Achievement struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Key             string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	NameI18n        string    `gorm:"type:text;not null" json:"-"`
	DescriptionI18n string    `gorm:"type:text" json:"-"`
	IconName        string    `gorm:"size:100" json:"icon_name,omitempty"`
	Category        string    `gorm:"size:50;index" json:"category"`
	Points          int       `gorm:"default:0" json:"points"`
	IsActive        bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Name returns the localized name for the locale, falling back to "en" and
// then to the key so the client always has something to render.
func (a *Achievement) Name(locale string) string {
	names := decodeI18n(a.NameI18n)
	if v, ok := names[locale]; ok && v != "" {
		return v
	}
	if v, ok := names["en"]; ok && v != "" {
		return v
	}
	return a.Key
}

// Description returns the localized description with the same fallbacks.
func (a *Achievement) Description(locale string) string {
	descs := decodeI18n(a.DescriptionI18n)
	if v, ok := descs[locale]; ok && v != "" {
		return v
	}
	return descs["en"]
}

func decodeI18n(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]string{}
	}
	return m
}

// EncodeI18n builds the JSON text for a localized string map.
func EncodeI18n(m map[string]string) string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// AchievementProgress captures the fact that satisfied an unlock rule at the
// moment it fired. Typed instead of an open map so readers know what to expect.
type AchievementProgress struct {
	Fact      string  `json:"fact"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// UserAchievement joins a user to an achievement they unlocked.
// Unique per (user_id, achievement_id): an achievement unlocks at most once,
// and rows are never mutated after creation.
type UserAchievement struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;uniqueIndex:uk_user_achievements" json:"user_id"`
	AchievementID uint        `gorm:"not null;uniqueIndex:uk_user_achievements" json:"achievement_id"`
	UnlockedAt    time.Time   `gorm:"not null;index" json:"unlocked_at"`
	Progress      string      `gorm:"type:text" json:"-"`
	CreatedAt     time.Time   `json:"-"`
	Achievement   Achievement `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"achievement"`
}

// ProgressData decodes the stored unlock progress, nil when absent.
func (ua *UserAchievement) ProgressData() *AchievementProgress {
	if ua.Progress == "" {
		return nil
	}
	var p AchievementProgress
	if err := json.Unmarshal([]byte(ua.Progress), &p); err != nil {
		return nil
	}
	return &p
}

// SetProgress encodes the unlock progress into the JSON column.
func (ua *UserAchievement) SetProgress(p AchievementProgress) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	ua.Progress = string(b)
}
