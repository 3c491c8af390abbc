package main

import (
	"github.com/quitjourney/quitjourney/config"
	"github.com/quitjourney/quitjourney/models"
	"github.com/quitjourney/quitjourney/routes"
	"github.com/quitjourney/quitjourney/services"
	"github.com/quitjourney/quitjourney/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.UserProfile{},
		&models.DailyCheckIn{},
		&models.SmokingRecord{},
		&models.Achievement{},
		&models.UserAchievement{},
	)

	if err := services.SeedAchievements(db); err != nil {
		utils.Sugar.Fatalf("failed to seed achievements: %v", err)
	}

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
