package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/models"
)

// StreakService computes consecutive-day check-in streaks. Pure reads, no
// side effects; dates are compared as calendar days, never as instants.
type StreakService struct {
	db *gorm.DB
}

// NewStreakService creates a new service instance.
func NewStreakService(db *gorm.DB) *StreakService {
	return &StreakService{db: db}
}

// WithTx returns a copy of the service bound to the given transaction.
func (s *StreakService) WithTx(tx *gorm.DB) *StreakService {
	return &StreakService{db: tx}
}

// CurrentStreak counts consecutive checked-in days ending today. A day with
// no record, or a record toggled back to not-checked-in, is a gap. No
// check-in today yields 0.
func (s *StreakService) CurrentStreak(userID uint) (int, error) {
	var dates []string
	if err := s.db.Model(&models.DailyCheckIn{}).
		Where("user_id = ? AND is_checked_in = ?", userID, true).
		Order("checkin_date DESC").
		Pluck("checkin_date", &dates).Error; err != nil {
		return 0, err
	}

	streak := 0
	expected := time.Now()
	for _, d := range dates {
		if d != models.FormatDay(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak, nil
}

// LongestStreak scans all checked-in days in ascending order once, resetting
// the running count on any gap and tracking the maximum.
func (s *StreakService) LongestStreak(userID uint) (int, error) {
	var dates []string
	if err := s.db.Model(&models.DailyCheckIn{}).
		Where("user_id = ? AND is_checked_in = ?", userID, true).
		Order("checkin_date ASC").
		Pluck("checkin_date", &dates).Error; err != nil {
		return 0, err
	}

	longest, run := 0, 0
	var prev time.Time
	havePrev := false
	for _, d := range dates {
		day, err := time.Parse(models.DateLayout, d)
		if err != nil {
			continue
		}
		if havePrev && models.FormatDay(prev.AddDate(0, 0, 1)) == d {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = day
		havePrev = true
	}
	return longest, nil
}

// TotalCheckIns counts all positive check-ins for a user.
func (s *StreakService) TotalCheckIns(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.DailyCheckIn{}).
		Where("user_id = ? AND is_checked_in = ?", userID, true).
		Count(&count).Error
	return count, err
}

// CheckedInBetween counts positive check-ins within [start, end] inclusive.
func (s *StreakService) CheckedInBetween(userID uint, start, end time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.DailyCheckIn{}).
		Where("user_id = ? AND is_checked_in = ? AND checkin_date >= ? AND checkin_date <= ?",
			userID, true, models.FormatDay(start), models.FormatDay(end)).
		Count(&count).Error
	return count, err
}
