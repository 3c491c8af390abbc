package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/models"
	"github.com/quitjourney/quitjourney/services"
	"github.com/quitjourney/quitjourney/utils"
)

// CheckInController handles daily check-in endpoints.
type CheckInController struct {
	db           *gorm.DB
	streaks      *services.StreakService
	achievements *services.AchievementService
}

// NewCheckInController creates a new controller instance.
func NewCheckInController(db *gorm.DB, streaks *services.StreakService, achievements *services.AchievementService) *CheckInController {
	return &CheckInController{db: db, streaks: streaks, achievements: achievements}
}

type createCheckInRequest struct {
	Date        string     `json:"date"`
	CheckinTime *time.Time `json:"checkin_time"`
}

var errDuplicateCheckIn = errors.New("already checked in for this date")

// Create records a check-in for a calendar day. The write, the streak
// computation and the achievement evaluation share one transaction so a
// failure anywhere rolls everything back.
func (c *CheckInController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	var req createCheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request body")
		return
	}

	day := models.FormatDay(time.Now())
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse(models.DateLayout, strings.TrimSpace(req.Date))
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40021, "date must be YYYY-MM-DD")
			return
		}
		day = models.FormatDay(parsed)
	}

	checkinTime := time.Now()
	if req.CheckinTime != nil {
		checkinTime = *req.CheckinTime
	}

	record := models.DailyCheckIn{
		UserID:      userID,
		CheckinDate: day,
		IsCheckedIn: true,
		CheckinTime: &checkinTime,
	}

	var streak int
	var unlocked []models.UserAchievement

	err := c.db.Transaction(func(tx *gorm.DB) error {
		var existing models.DailyCheckIn
		err := tx.Where("user_id = ? AND checkin_date = ?", userID, day).First(&existing).Error
		if err == nil {
			return errDuplicateCheckIn
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&record).Error; err != nil {
			// A concurrent request may have won the race; the unique index on
			// (user_id, checkin_date) makes this the same conflict.
			if isDuplicateKey(err) {
				return errDuplicateCheckIn
			}
			return err
		}

		streaks := c.streaks.WithTx(tx)
		streak, err = streaks.CurrentStreak(userID)
		if err != nil {
			return err
		}
		total, err := streaks.TotalCheckIns(userID)
		if err != nil {
			return err
		}

		unlocked, err = c.achievements.WithTx(tx).Evaluate(userID, services.TriggerCheckIn, services.Facts{
			Streak:        streak,
			TotalCheckIns: total,
		})
		if err != nil {
			if errors.Is(err, services.ErrMissingDefinition) {
				// Configuration bug: log and keep the check-in.
				services.LogEvaluationError(services.TriggerCheckIn, userID, err)
				return nil
			}
			return err
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, errDuplicateCheckIn) {
			utils.Error(ctx, http.StatusConflict, 40920, err.Error())
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to record check-in")
		return
	}

	utils.InvalidateByPrefix("cache:stats:user:" + fmt.Sprint(userID))
	if len(unlocked) > 0 {
		utils.InvalidateByPrefix("cache:achievements:user:" + fmt.Sprint(userID))
	}

	utils.Created(ctx, gin.H{
		"checkin":      checkInPayload(&record),
		"streak":       streak,
		"achievements": achievementPayloads(unlocked, ctx.DefaultQuery("locale", "en")),
	})
}

// List returns the user's check-ins, newest first, optionally bounded by a date range.
func (c *CheckInController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	page := parsePositiveInt(ctx.Query("page"), 1, 10000)
	limit := parsePositiveInt(ctx.Query("limit"), 31, 100)

	q := c.db.Model(&models.DailyCheckIn{}).Where("user_id = ?", userID)
	if start := strings.TrimSpace(ctx.Query("start_date")); start != "" {
		if _, err := time.Parse(models.DateLayout, start); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40022, "start_date must be YYYY-MM-DD")
			return
		}
		q = q.Where("checkin_date >= ?", start)
	}
	if end := strings.TrimSpace(ctx.Query("end_date")); end != "" {
		if _, err := time.Parse(models.DateLayout, end); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40023, "end_date must be YYYY-MM-DD")
			return
		}
		q = q.Where("checkin_date <= ?", end)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count check-ins")
		return
	}

	var records []models.DailyCheckIn
	if err := q.Order("checkin_date DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&records).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list check-ins")
		return
	}

	items := make([]gin.H, 0, len(records))
	for i := range records {
		items = append(items, checkInPayload(&records[i]))
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

// GetForDate returns the check-in for one calendar day, 404 when absent.
func (c *CheckInController) GetForDate(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	day := strings.TrimSpace(ctx.Param("date"))
	if _, err := time.Parse(models.DateLayout, day); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "date must be YYYY-MM-DD")
		return
	}

	var record models.DailyCheckIn
	if err := c.db.Where("user_id = ? AND checkin_date = ?", userID, day).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "no check-in for this date")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load check-in")
		return
	}

	utils.Success(ctx, checkInPayload(&record))
}

type updateCheckInRequest struct {
	IsCheckedIn *bool `json:"is_checked_in" binding:"required"`
}

// Update toggles the checked-in flag on an existing record. Owner only.
func (c *CheckInController) Update(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	var req updateCheckInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.IsCheckedIn == nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "is_checked_in is required")
		return
	}

	var record models.DailyCheckIn
	if err := c.db.First(&record, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40421, "check-in not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load check-in")
		return
	}
	if record.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40320, "not your check-in")
		return
	}

	record.IsCheckedIn = *req.IsCheckedIn
	if err := c.db.Save(&record).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to update check-in")
		return
	}

	utils.InvalidateByPrefix("cache:stats:user:" + fmt.Sprint(userID))
	utils.Success(ctx, checkInPayload(&record))
}

// Delete removes a check-in record. Owner only.
func (c *CheckInController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	var record models.DailyCheckIn
	if err := c.db.First(&record, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40421, "check-in not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load check-in")
		return
	}
	if record.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40320, "not your check-in")
		return
	}

	if err := c.db.Delete(&record).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to delete check-in")
		return
	}

	utils.InvalidateByPrefix("cache:stats:user:" + fmt.Sprint(userID))
	utils.Success(ctx, gin.H{"deleted": record.ID})
}

// Stats reports check-in counts and streaks for a week or month period.
func (c *CheckInController) Stats(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	period := ctx.DefaultQuery("period", "month")
	start, end, totalDays, err := periodRange(period, ctx.Query("date"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40026, err.Error())
		return
	}

	checkedIn, err := c.streaks.CheckedInBetween(userID, start, end)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to compute stats")
		return
	}

	current, err := c.streaks.CurrentStreak(userID)
	if err != nil {
		current = 0
	}
	longest, err := c.streaks.LongestStreak(userID)
	if err != nil {
		longest = 0
	}

	rate := 0.0
	if totalDays > 0 {
		rate = float64(checkedIn) / float64(totalDays)
	}

	utils.Success(ctx, gin.H{
		"period":          period,
		"start_date":      models.FormatDay(start),
		"end_date":        models.FormatDay(end),
		"total_days":      totalDays,
		"checked_in_days": checkedIn,
		"checkin_rate":    rate,
		"current_streak":  current,
		"longest_streak":  longest,
	})
}

// periodRange resolves a period selector to [start, end] and its day count.
// date is "YYYY-MM" for month, "YYYY-MM-DD" for week; empty means now.
func periodRange(period, date string) (time.Time, time.Time, int, error) {
	switch period {
	case "month":
		target := time.Now()
		if date != "" {
			parsed, err := time.Parse("2006-01", date)
			if err != nil {
				return time.Time{}, time.Time{}, 0, errors.New("date must be YYYY-MM for period=month")
			}
			target = parsed
		}
		start := time.Date(target.Year(), target.Month(), 1, 0, 0, 0, 0, time.Local)
		end := start.AddDate(0, 1, -1)
		return start, end, end.Day(), nil
	case "week":
		target := time.Now()
		if date != "" {
			parsed, err := time.Parse(models.DateLayout, date)
			if err != nil {
				return time.Time{}, time.Time{}, 0, errors.New("date must be YYYY-MM-DD for period=week")
			}
			target = parsed
		}
		// Weeks start on Monday.
		weekday := int(target.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := target.AddDate(0, 0, -(weekday - 1))
		end := start.AddDate(0, 0, 6)
		return start, end, 7, nil
	default:
		return time.Time{}, time.Time{}, 0, errors.New("period must be week or month")
	}
}

func checkInPayload(record *models.DailyCheckIn) gin.H {
	return gin.H{
		"id":            record.ID,
		"date":          record.CheckinDate,
		"is_checked_in": record.IsCheckedIn,
		"checkin_time":  record.CheckinTime,
		"created_at":    record.CreatedAt,
	}
}

// achievementPayloads shapes unlocked achievements with localized texts.
func achievementPayloads(list []models.UserAchievement, locale string) []gin.H {
	out := make([]gin.H, 0, len(list))
	for i := range list {
		ua := &list[i]
		out = append(out, gin.H{
			"key":         ua.Achievement.Key,
			"name":        ua.Achievement.Name(locale),
			"description": ua.Achievement.Description(locale),
			"icon_name":   ua.Achievement.IconName,
			"category":    ua.Achievement.Category,
			"points":      ua.Achievement.Points,
			"unlocked_at": ua.UnlockedAt,
			"progress":    ua.ProgressData(),
		})
	}
	return out
}
