package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/config"
	"github.com/quitjourney/quitjourney/controllers"
	"github.com/quitjourney/quitjourney/middleware"
	"github.com/quitjourney/quitjourney/services"
	"github.com/quitjourney/quitjourney/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	streaks := services.NewStreakService(db)
	achievements := services.NewAchievementService(db)
	stats := services.NewStatsService(db, streaks)

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db, stats, achievements)
	checkInController := controllers.NewCheckInController(db, streaks, achievements)
	smokingController := controllers.NewSmokingRecordController(db)
	achievementController := controllers.NewAchievementController(db, achievements)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/refresh", authController.Refresh)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public catalog, no auth required
	api.GET("/achievements", achievementController.Catalog)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/users/me/profile", userController.GetProfile)
	protected.PATCH("/users/me/profile", userController.UpdateProfile)
	protected.GET("/users/me/stats", userController.GetStats)
	protected.DELETE("/users/me", userController.DeleteAccount)

	protected.POST("/checkins", checkInController.Create)
	protected.GET("/checkins", checkInController.List)
	protected.GET("/checkins/stats", checkInController.Stats)
	protected.GET("/checkins/date/:date", checkInController.GetForDate)
	protected.PUT("/checkins/:id", checkInController.Update)
	protected.DELETE("/checkins/:id", checkInController.Delete)

	protected.POST("/smoking-records", smokingController.Create)
	protected.GET("/smoking-records", smokingController.List)
	protected.GET("/smoking-records/stats", smokingController.Stats)
	protected.GET("/smoking-records/:id", smokingController.Get)
	protected.PUT("/smoking-records/:id", smokingController.Update)
	protected.DELETE("/smoking-records/:id", smokingController.Delete)

	protected.GET("/achievements/me", achievementController.Mine)
	protected.GET("/achievements/me/stats", achievementController.MyStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
