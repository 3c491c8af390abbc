package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/models"
	"github.com/quitjourney/quitjourney/utils"
)

// UserStats is the aggregated progress report for a user. The quit-derived
// fields are pointers: nil means "not applicable yet" (no quit date or no
// consumption settings), which the JSON layer omits instead of rendering zero.
type UserStats struct {
	DaysSinceQuit     *int     `json:"days_since_quit,omitempty"`
	MoneySaved        *float64 `json:"money_saved,omitempty"`
	CigarettesAvoided *int     `json:"cigarettes_avoided,omitempty"`
	LongestStreak     int      `json:"longest_streak"`
	CurrentStreak     int      `json:"current_streak"`
}

// StatsService combines quit settings and check-in history into user statistics.
type StatsService struct {
	db      *gorm.DB
	streaks *StreakService
}

// NewStatsService creates a new service instance.
func NewStatsService(db *gorm.DB, streaks *StreakService) *StatsService {
	return &StatsService{db: db, streaks: streaks}
}

// UserStats computes the aggregate report. Streak failures degrade to 0 so a
// storage hiccup on one table does not abort the whole response.
func (s *StatsService) UserStats(userID uint) (*UserStats, error) {
	var profile models.UserProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hasProfile := err == nil

	stats := &UserStats{}
	if hasProfile && profile.QuitDate != nil {
		days := wholeDaysSince(*profile.QuitDate)
		stats.DaysSinceQuit = &days

		if profile.CigarettesPerDay != nil {
			avoided := days * *profile.CigarettesPerDay
			stats.CigarettesAvoided = &avoided

			if profile.CigarettePrice != nil {
				saved := float64(days) * float64(*profile.CigarettesPerDay) * *profile.CigarettePrice
				stats.MoneySaved = &saved
			}
		}
	}

	if longest, err := s.streaks.LongestStreak(userID); err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("longest streak unavailable for user=%d: %v", userID, err)
		}
	} else {
		stats.LongestStreak = longest
	}
	if current, err := s.streaks.CurrentStreak(userID); err == nil {
		stats.CurrentStreak = current
	}

	return stats, nil
}

// Facts converts a stats report into the payload the time and health based
// achievement rules read.
func (s *StatsService) Facts(stats *UserStats) Facts {
	facts := Facts{}
	if stats.DaysSinceQuit != nil {
		facts.DaysSinceQuit = *stats.DaysSinceQuit
	}
	if stats.MoneySaved != nil {
		facts.MoneySaved = *stats.MoneySaved
	}
	if stats.CigarettesAvoided != nil {
		facts.CigarettesAvoided = *stats.CigarettesAvoided
	}
	return facts
}

// wholeDaysSince floors the elapsed time to whole days; never negative.
func wholeDaysSince(t time.Time) int {
	d := int(time.Since(t).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
