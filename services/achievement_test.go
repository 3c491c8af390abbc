package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quitjourney/quitjourney/models"
)

func TestEvaluateCheckInStreak(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedAchievements(db))
	s := NewAchievementService(db)

	unlocked, err := s.Evaluate(1, TriggerCheckIn, Facts{Streak: 7, TotalCheckIns: 7})
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	require.Equal(t, "check_in_streak_7", unlocked[0].Achievement.Key)

	progress := unlocked[0].ProgressData()
	require.NotNil(t, progress)
	require.Equal(t, FactStreak, progress.Fact)
	require.Equal(t, float64(7), progress.Value)
	require.Equal(t, float64(7), progress.Threshold)
}

func TestEvaluateBelowThresholdUnlocksNothing(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedAchievements(db))
	s := NewAchievementService(db)

	unlocked, err := s.Evaluate(1, TriggerCheckIn, Facts{Streak: 6, TotalCheckIns: 6})
	require.NoError(t, err)
	require.Empty(t, unlocked)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedAchievements(db))
	s := NewAchievementService(db)

	first, err := s.Evaluate(1, TriggerCheckIn, Facts{Streak: 7})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := s.Evaluate(1, TriggerCheckIn, Facts{Streak: 8})
	require.NoError(t, err)
	require.Empty(t, second)

	var count int64
	require.NoError(t, db.Model(&models.UserAchievement{}).Where("user_id = ?", 1).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestEvaluateUnlocksMultipleInRuleOrder(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedAchievements(db))
	s := NewAchievementService(db)

	unlocked, err := s.Evaluate(1, TriggerTimeBased, Facts{DaysSinceQuit: 20})
	require.NoError(t, err)
	require.Len(t, unlocked, 3)
	require.Equal(t, "first_day", unlocked[0].Achievement.Key)
	require.Equal(t, "one_week", unlocked[1].Achievement.Key)
	require.Equal(t, "half_month", unlocked[2].Achievement.Key)
}

func TestEvaluateIgnoresOtherTriggers(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedAchievements(db))
	s := NewAchievementService(db)

	// Streak fact qualifies but only health rules run for this trigger.
	unlocked, err := s.Evaluate(1, TriggerHealthBased, Facts{Streak: 100})
	require.NoError(t, err)
	require.Empty(t, unlocked)
}

func TestEvaluateMissingDefinition(t *testing.T) {
	db := newTestDB(t)
	// No seeding: every rule points at an absent definition.
	s := NewAchievementService(db)

	_, err := s.Evaluate(1, TriggerCheckIn, Facts{Streak: 7})
	require.ErrorIs(t, err, ErrMissingDefinition)
}

func TestEvaluateSkipsInactiveDefinitions(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedAchievements(db))
	require.NoError(t, db.Model(&models.Achievement{}).
		Where("`key` = ?", "check_in_streak_7").
		Update("is_active", false).Error)
	s := NewAchievementService(db)

	_, err := s.Evaluate(1, TriggerCheckIn, Facts{Streak: 7})
	require.ErrorIs(t, err, ErrMissingDefinition)
}

func TestUnlockedAndStats(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedAchievements(db))
	s := NewAchievementService(db)

	_, err := s.Evaluate(1, TriggerCheckIn, Facts{Streak: 7})
	require.NoError(t, err)
	_, err = s.Evaluate(1, TriggerHealthBased, Facts{MoneySaved: 150})
	require.NoError(t, err)

	list, err := s.Unlocked(1)
	require.NoError(t, err)
	require.Len(t, list, 2)

	total, points, byCategory, err := s.Stats(1)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, int64(80), points) // 30 streak + 50 saver
	require.Equal(t, int64(1), byCategory["checkin"])
	require.Equal(t, int64(1), byCategory["health_based"])
}
