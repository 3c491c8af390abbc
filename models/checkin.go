package models

import "time"

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// DailyCheckIn records whether a user stayed smoke-free on a calendar day.
// The (user_id, checkin_date) pair is unique: the database constraint is what
// guarantees two concurrent check-ins for the same day produce a single row.
type DailyCheckIn struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:uk_checkins_user_date" json:"user_id"`
	CheckinDate string     `gorm:"size:10;not null;uniqueIndex:uk_checkins_user_date;index" json:"date"`
	IsCheckedIn bool       `gorm:"not null;default:true" json:"is_checked_in"`
	CheckinTime *time.Time `json:"checkin_time"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Day parses the stored calendar date. Stored values are always produced by
// FormatDay, so the error path only trips on hand-edited rows.
func (c *DailyCheckIn) Day() (time.Time, error) {
	return time.Parse(DateLayout, c.CheckinDate)
}

// FormatDay normalizes a timestamp to its calendar-day representation.
func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}
