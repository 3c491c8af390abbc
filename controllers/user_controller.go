package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/middleware"
	"github.com/quitjourney/quitjourney/models"
	"github.com/quitjourney/quitjourney/services"
	"github.com/quitjourney/quitjourney/utils"
)

// UserController handles profile, aggregate stats and account deletion.
type UserController struct {
	db           *gorm.DB
	stats        *services.StatsService
	achievements *services.AchievementService
}

// NewUserController creates a new controller instance.
func NewUserController(db *gorm.DB, stats *services.StatsService, achievements *services.AchievementService) *UserController {
	return &UserController{db: db, stats: stats, achievements: achievements}
}

// GetProfile returns the user's profile.
func (u *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}

	var profile models.UserProfile
	if err := u.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "profile not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load profile")
		return
	}

	utils.Success(ctx, profile)
}

type updateProfileRequest struct {
	Name             *string    `json:"name"`
	Timezone         *string    `json:"timezone"`
	Locale           *string    `json:"locale"`
	Currency         *string    `json:"currency"`
	QuitDate         *time.Time `json:"quit_date"`
	QuitReason       *string    `json:"quit_reason"`
	CigarettesPerDay *int       `json:"cigarettes_per_day"`
	CigarettePrice   *float64   `json:"cigarette_price"`
}

// UpdateProfile applies a partial update. Only fields present in the body
// change; absent fields keep their stored values.
func (u *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request body")
		return
	}
	if req.CigarettesPerDay != nil && *req.CigarettesPerDay < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40051, "cigarettes_per_day must be at least 1")
		return
	}
	if req.CigarettePrice != nil && *req.CigarettePrice <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40052, "cigarette_price must be positive")
		return
	}
	if req.QuitDate != nil && req.QuitDate.After(time.Now()) {
		utils.Error(ctx, http.StatusBadRequest, 40053, "quit_date cannot be in the future")
		return
	}

	var profile models.UserProfile
	if err := u.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "profile not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load profile")
		return
	}

	if req.Name != nil {
		profile.Name = utils.Sanitize(strings.TrimSpace(*req.Name))
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40054, "unknown timezone")
			return
		}
		profile.Timezone = *req.Timezone
	}
	if req.Locale != nil {
		profile.Locale = strings.TrimSpace(*req.Locale)
	}
	if req.Currency != nil {
		profile.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.QuitDate != nil {
		profile.QuitDate = req.QuitDate
	}
	if req.QuitReason != nil {
		profile.QuitReason = utils.Sanitize(strings.TrimSpace(*req.QuitReason))
	}
	if req.CigarettesPerDay != nil {
		profile.CigarettesPerDay = req.CigarettesPerDay
	}
	if req.CigarettePrice != nil {
		profile.CigarettePrice = req.CigarettePrice
	}

	if err := u.db.Save(&profile).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to save profile")
		return
	}

	// Quit settings feed the derived stats, drop the stale copies.
	utils.InvalidateByPrefix("cache:stats:user:" + fmt.Sprint(userID))
	utils.Success(ctx, profile)
}

// GetStats returns the aggregate progress report and, as a side effect,
// evaluates the time and health based achievement rules against it. Newly
// unlocked achievements ride along in the response.
func (u *UserController) GetStats(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}

	locale := ctx.DefaultQuery("locale", "en")
	cacheKey := fmt.Sprintf("cache:stats:user:%d", userID)

	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		var cached services.UserStats
		if json.Unmarshal(b, &cached) == nil {
			utils.Success(ctx, gin.H{"stats": cached, "new_achievements": []gin.H{}})
			return
		}
	}

	stats, err := u.stats.UserStats(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to compute stats")
		return
	}

	facts := u.stats.Facts(stats)
	var unlocked []models.UserAchievement
	for _, trigger := range []string{services.TriggerTimeBased, services.TriggerHealthBased} {
		list, err := u.achievements.Evaluate(userID, trigger, facts)
		if err != nil {
			// The report is still valid without the unlocks.
			services.LogEvaluationError(trigger, userID, err)
			continue
		}
		unlocked = append(unlocked, list...)
	}

	utils.CacheSetJSON(cacheKey, stats, utils.TTLUserStats)
	if len(unlocked) > 0 {
		utils.InvalidateByPrefix("cache:achievements:user:" + fmt.Sprint(userID))
	}

	utils.Success(ctx, gin.H{
		"stats":            stats,
		"new_achievements": achievementPayloads(unlocked, locale),
	})
}

// DeleteAccount removes the account and everything attached to it in one
// transaction, then revokes the current access token.
func (u *UserController) DeleteAccount(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40150, "unauthorized")
		return
	}

	err := u.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserAchievement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.SmokingRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.DailyCheckIn{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserProfile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to delete account")
		return
	}

	utils.InvalidateByPrefix("cache:stats:user:" + fmt.Sprint(userID))
	utils.InvalidateByPrefix("cache:achievements:user:" + fmt.Sprint(userID))

	if v, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok && claims.ExpiresAt != nil {
			utils.BlacklistToken(claims.ID, claims.ExpiresAt.Time)
		}
	}

	utils.Success(ctx, gin.H{"deleted": userID})
}
