package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quitjourney/quitjourney/models"
)

func intPtr(v int) *int              { return &v }
func floatPtr(v float64) *float64    { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func TestUserStatsDerivedFields(t *testing.T) {
	db := newTestDB(t)
	s := NewStatsService(db, NewStreakService(db))

	quit := time.Now().AddDate(0, 0, -10).Add(-time.Hour)
	require.NoError(t, db.Create(&models.UserProfile{
		UserID:           1,
		QuitDate:         timePtr(quit),
		CigarettesPerDay: intPtr(10),
		CigarettePrice:   floatPtr(1.0),
	}).Error)

	stats, err := s.UserStats(1)
	require.NoError(t, err)

	require.NotNil(t, stats.DaysSinceQuit)
	require.Equal(t, 10, *stats.DaysSinceQuit)
	require.NotNil(t, stats.CigarettesAvoided)
	require.Equal(t, 100, *stats.CigarettesAvoided)
	require.NotNil(t, stats.MoneySaved)
	require.InDelta(t, 100.0, *stats.MoneySaved, 0.001)
}

func TestUserStatsWithoutQuitDate(t *testing.T) {
	db := newTestDB(t)
	s := NewStatsService(db, NewStreakService(db))

	require.NoError(t, db.Create(&models.UserProfile{
		UserID:           1,
		CigarettesPerDay: intPtr(20),
	}).Error)

	stats, err := s.UserStats(1)
	require.NoError(t, err)
	require.Nil(t, stats.DaysSinceQuit)
	require.Nil(t, stats.CigarettesAvoided)
	require.Nil(t, stats.MoneySaved)
}

func TestUserStatsWithoutConsumptionSettings(t *testing.T) {
	db := newTestDB(t)
	s := NewStatsService(db, NewStreakService(db))

	require.NoError(t, db.Create(&models.UserProfile{
		UserID:   1,
		QuitDate: timePtr(time.Now().AddDate(0, 0, -5).Add(-time.Hour)),
	}).Error)

	stats, err := s.UserStats(1)
	require.NoError(t, err)
	require.NotNil(t, stats.DaysSinceQuit)
	require.Equal(t, 5, *stats.DaysSinceQuit)
	// Avoided and saved need the consumption settings.
	require.Nil(t, stats.CigarettesAvoided)
	require.Nil(t, stats.MoneySaved)
}

func TestUserStatsMissingProfile(t *testing.T) {
	db := newTestDB(t)
	s := NewStatsService(db, NewStreakService(db))

	seedCheckIns(t, db, 1, 0, 1)

	stats, err := s.UserStats(1)
	require.NoError(t, err)
	require.Nil(t, stats.DaysSinceQuit)
	require.Equal(t, 2, stats.CurrentStreak)
	require.Equal(t, 2, stats.LongestStreak)
}

func TestUserStatsFutureQuitDateClampsToZero(t *testing.T) {
	db := newTestDB(t)
	s := NewStatsService(db, NewStreakService(db))

	require.NoError(t, db.Create(&models.UserProfile{
		UserID:           1,
		QuitDate:         timePtr(time.Now().Add(48 * time.Hour)),
		CigarettesPerDay: intPtr(10),
		CigarettePrice:   floatPtr(2.0),
	}).Error)

	stats, err := s.UserStats(1)
	require.NoError(t, err)
	require.NotNil(t, stats.DaysSinceQuit)
	require.Equal(t, 0, *stats.DaysSinceQuit)
	require.Equal(t, 0, *stats.CigarettesAvoided)
	require.Equal(t, 0.0, *stats.MoneySaved)
}

func TestFactsConversion(t *testing.T) {
	s := NewStatsService(nil, nil)

	facts := s.Facts(&UserStats{
		DaysSinceQuit:     intPtr(30),
		MoneySaved:        floatPtr(120.5),
		CigarettesAvoided: intPtr(300),
	})
	require.Equal(t, 30, facts.DaysSinceQuit)
	require.Equal(t, 120.5, facts.MoneySaved)
	require.Equal(t, 300, facts.CigarettesAvoided)

	empty := s.Facts(&UserStats{})
	require.Zero(t, empty.DaysSinceQuit)
	require.Zero(t, empty.MoneySaved)
	require.Zero(t, empty.CigarettesAvoided)
}
