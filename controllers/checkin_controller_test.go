package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quitjourney/quitjourney/middleware"
	"github.com/quitjourney/quitjourney/models"
	"github.com/quitjourney/quitjourney/services"
	"github.com/quitjourney/quitjourney/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

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

// asUser bypasses token auth and injects the user ID the way the middleware does.
func asUser(userID uint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, userID)
		ctx.Next()
	}
}

func newCheckInRouter(t *testing.T, db *gorm.DB, userID uint) *gin.Engine {
	t.Helper()
	require.NoError(t, services.SeedAchievements(db))

	streaks := services.NewStreakService(db)
	achievements := services.NewAchievementService(db)
	c := NewCheckInController(db, streaks, achievements)

	r := gin.New()
	g := r.Group("/api/v1", asUser(userID))
	g.POST("/checkins", c.Create)
	g.GET("/checkins", c.List)
	g.GET("/checkins/stats", c.Stats)
	g.GET("/checkins/date/:date", c.GetForDate)
	g.PUT("/checkins/:id", c.Update)
	g.DELETE("/checkins/:id", c.Delete)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, utils.JSONResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestCreateCheckIn(t *testing.T) {
	db := newTestDB(t)
	r := newCheckInRouter(t, db, 1)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/checkins", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 0, resp.Code)

	data := resp.Data.(map[string]any)
	require.Equal(t, float64(1), data["streak"])
	checkin := data["checkin"].(map[string]any)
	require.Equal(t, models.FormatDay(time.Now()), checkin["date"])

	var count int64
	require.NoError(t, db.Model(&models.DailyCheckIn{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCreateCheckInDuplicateConflict(t *testing.T) {
	db := newTestDB(t)
	r := newCheckInRouter(t, db, 1)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/checkins", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/checkins", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, 40920, resp.Code)

	// The conflict left the original row untouched.
	var count int64
	require.NoError(t, db.Model(&models.DailyCheckIn{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCreateCheckInRejectsBadDate(t *testing.T) {
	db := newTestDB(t)
	r := newCheckInRouter(t, db, 1)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/checkins", gin.H{"date": "30-08-2026"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 40021, resp.Code)
}

func TestCreateCheckInUnlocksStreakAchievement(t *testing.T) {
	db := newTestDB(t)
	r := newCheckInRouter(t, db, 1)

	// Six prior days already on record, today's check-in completes the week.
	for ago := 1; ago <= 6; ago++ {
		require.NoError(t, db.Create(&models.DailyCheckIn{
			UserID:      1,
			CheckinDate: models.FormatDay(time.Now().AddDate(0, 0, -ago)),
			IsCheckedIn: true,
		}).Error)
	}

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/checkins", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	data := resp.Data.(map[string]any)
	require.Equal(t, float64(7), data["streak"])
	unlocked := data["achievements"].([]any)
	require.Len(t, unlocked, 1)
	require.Equal(t, "check_in_streak_7", unlocked[0].(map[string]any)["key"])
}

func TestGetCheckInForDate(t *testing.T) {
	db := newTestDB(t)
	r := newCheckInRouter(t, db, 1)

	day := models.FormatDay(time.Now())
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/checkins", gin.H{"date": day})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/checkins/date/"+day, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, day, resp.Data.(map[string]any)["date"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/checkins/date/1999-01-01", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, 40420, resp.Code)
}

func TestUpdateCheckInOwnerOnly(t *testing.T) {
	db := newTestDB(t)

	record := models.DailyCheckIn{UserID: 2, CheckinDate: models.FormatDay(time.Now()), IsCheckedIn: true}
	require.NoError(t, db.Create(&record).Error)

	// User 1 cannot touch user 2's record.
	r := newCheckInRouter(t, db, 1)
	w, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/checkins/%d", record.ID), gin.H{"is_checked_in": false})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, 40320, resp.Code)

	var stored models.DailyCheckIn
	require.NoError(t, db.First(&stored, record.ID).Error)
	require.True(t, stored.IsCheckedIn)
}

func TestCheckInList(t *testing.T) {
	db := newTestDB(t)
	r := newCheckInRouter(t, db, 1)

	for ago := 0; ago < 5; ago++ {
		require.NoError(t, db.Create(&models.DailyCheckIn{
			UserID:      1,
			CheckinDate: models.FormatDay(time.Now().AddDate(0, 0, -ago)),
			IsCheckedIn: true,
		}).Error)
	}

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/checkins?limit=2&page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := resp.Data.(map[string]any)
	require.Len(t, data["items"].([]any), 2)
	pagination := data["pagination"].(map[string]any)
	require.Equal(t, float64(5), pagination["total"])
	require.Equal(t, float64(3), pagination["total_pages"])

	// Newest first.
	first := data["items"].([]any)[0].(map[string]any)
	require.Equal(t, models.FormatDay(time.Now()), first["date"])
}

func TestCheckInStatsWeek(t *testing.T) {
	db := newTestDB(t)
	r := newCheckInRouter(t, db, 1)

	require.NoError(t, db.Create(&models.DailyCheckIn{
		UserID:      1,
		CheckinDate: models.FormatDay(time.Now()),
		IsCheckedIn: true,
	}).Error)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/checkins/stats?period=week", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := resp.Data.(map[string]any)
	require.Equal(t, "week", data["period"])
	require.Equal(t, float64(7), data["total_days"])
	require.Equal(t, float64(1), data["checked_in_days"])
	require.Equal(t, float64(1), data["current_streak"])

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/checkins/stats?period=year", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 40026, resp.Code)
}
