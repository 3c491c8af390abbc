package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/services"
	"github.com/quitjourney/quitjourney/utils"
)

// AchievementController serves the achievement catalog and per-user unlocks.
type AchievementController struct {
	db           *gorm.DB
	achievements *services.AchievementService
}

// NewAchievementController creates a new controller instance.
func NewAchievementController(db *gorm.DB, achievements *services.AchievementService) *AchievementController {
	return &AchievementController{db: db, achievements: achievements}
}

// Catalog returns every active achievement definition. The list is near-static
// so it is served from cache when possible.
func (a *AchievementController) Catalog(ctx *gin.Context) {
	locale := ctx.DefaultQuery("locale", "en")
	cacheKey := "cache:achievements:catalog:" + locale

	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		var cached []gin.H
		if json.Unmarshal(b, &cached) == nil {
			utils.Success(ctx, gin.H{"items": cached})
			return
		}
	}

	defs, err := a.achievements.Catalog()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load achievements")
		return
	}

	items := make([]gin.H, 0, len(defs))
	for i := range defs {
		def := &defs[i]
		items = append(items, gin.H{
			"key":         def.Key,
			"name":        def.Name(locale),
			"description": def.Description(locale),
			"icon_name":   def.IconName,
			"category":    def.Category,
			"points":      def.Points,
		})
	}

	utils.CacheSetJSON(cacheKey, items, utils.TTLAchievementCatalog)
	utils.Success(ctx, gin.H{"items": items})
}

// Mine returns the achievements the user has unlocked, newest first.
func (a *AchievementController) Mine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}

	locale := ctx.DefaultQuery("locale", "en")
	cacheKey := fmt.Sprintf("cache:achievements:user:%d:%s", userID, locale)

	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		var cached []gin.H
		if json.Unmarshal(b, &cached) == nil {
			utils.Success(ctx, gin.H{"items": cached})
			return
		}
	}

	list, err := a.achievements.Unlocked(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load achievements")
		return
	}

	items := achievementPayloads(list, locale)
	utils.CacheSetJSON(cacheKey, items, utils.TTLUserAchievements)
	utils.Success(ctx, gin.H{"items": items})
}

// MyStats summarizes the user's unlocks against the full catalog.
func (a *AchievementController) MyStats(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}

	total, points, byCategory, err := a.achievements.Stats(userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to compute stats")
		return
	}

	defs, err := a.achievements.Catalog()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to compute stats")
		return
	}

	utils.Success(ctx, gin.H{
		"unlocked":    total,
		"available":   len(defs),
		"points":      points,
		"by_category": byCategory,
	})
}
