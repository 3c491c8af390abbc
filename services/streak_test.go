package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quitjourney/quitjourney/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.DailyCheckIn{},
		&models.SmokingRecord{},
		&models.Achievement{},
		&models.UserAchievement{},
	))
	return db
}

func seedCheckIns(t *testing.T, db *gorm.DB, userID uint, daysAgo ...int) {
	t.Helper()
	for _, ago := range daysAgo {
		day := models.FormatDay(time.Now().AddDate(0, 0, -ago))
		require.NoError(t, db.Create(&models.DailyCheckIn{
			UserID:      userID,
			CheckinDate: day,
			IsCheckedIn: true,
		}).Error)
	}
}

func TestCurrentStreakEmpty(t *testing.T) {
	db := newTestDB(t)
	s := NewStreakService(db)

	streak, err := s.CurrentStreak(1)
	require.NoError(t, err)
	require.Equal(t, 0, streak)
}

func TestCurrentStreakRequiresToday(t *testing.T) {
	db := newTestDB(t)
	s := NewStreakService(db)

	// Yesterday and the day before, but nothing today.
	seedCheckIns(t, db, 1, 1, 2)

	current, err := s.CurrentStreak(1)
	require.NoError(t, err)
	require.Equal(t, 0, current)

	longest, err := s.LongestStreak(1)
	require.NoError(t, err)
	require.Equal(t, 2, longest)
}

func TestCurrentStreakConsecutive(t *testing.T) {
	db := newTestDB(t)
	s := NewStreakService(db)

	seedCheckIns(t, db, 1, 0, 1, 2, 3, 4, 5, 6)

	streak, err := s.CurrentStreak(1)
	require.NoError(t, err)
	require.Equal(t, 7, streak)
}

func TestCurrentStreakBreaksOnGap(t *testing.T) {
	db := newTestDB(t)
	s := NewStreakService(db)

	// Gap at two days ago splits the history.
	seedCheckIns(t, db, 1, 0, 1, 3, 4, 5)

	current, err := s.CurrentStreak(1)
	require.NoError(t, err)
	require.Equal(t, 2, current)

	longest, err := s.LongestStreak(1)
	require.NoError(t, err)
	require.Equal(t, 3, longest)
	require.GreaterOrEqual(t, longest, current)
}

func TestStreakIgnoresUncheckedDays(t *testing.T) {
	db := newTestDB(t)
	s := NewStreakService(db)

	seedCheckIns(t, db, 1, 0, 2)
	// A day toggled back to not-checked-in counts as a gap.
	require.NoError(t, db.Create(&models.DailyCheckIn{
		UserID:      1,
		CheckinDate: models.FormatDay(time.Now().AddDate(0, 0, -1)),
		IsCheckedIn: false,
	}).Error)

	current, err := s.CurrentStreak(1)
	require.NoError(t, err)
	require.Equal(t, 1, current)

	total, err := s.TotalCheckIns(1)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}

func TestStreaksAreScopedPerUser(t *testing.T) {
	db := newTestDB(t)
	s := NewStreakService(db)

	seedCheckIns(t, db, 1, 0, 1, 2)
	seedCheckIns(t, db, 2, 0)

	one, err := s.CurrentStreak(1)
	require.NoError(t, err)
	require.Equal(t, 3, one)

	two, err := s.CurrentStreak(2)
	require.NoError(t, err)
	require.Equal(t, 1, two)
}

func TestCheckedInBetween(t *testing.T) {
	db := newTestDB(t)
	s := NewStreakService(db)

	seedCheckIns(t, db, 1, 0, 1, 2, 10)

	count, err := s.CheckedInBetween(1, time.Now().AddDate(0, 0, -5), time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

func TestDuplicateCheckInRejectedByIndex(t *testing.T) {
	db := newTestDB(t)

	day := models.FormatDay(time.Now())
	require.NoError(t, db.Create(&models.DailyCheckIn{UserID: 1, CheckinDate: day, IsCheckedIn: true}).Error)

	err := db.Create(&models.DailyCheckIn{UserID: 1, CheckinDate: day, IsCheckedIn: true}).Error
	require.Error(t, err)
	require.True(t, isDuplicateKey(err), fmt.Sprintf("expected unique violation, got %v", err))
}
