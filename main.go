package main

import (
	"github.com/joho/godotenv"

	"github.com/mohamedzeina/node-social/config"
	"github.com/mohamedzeina/node-social/models"
	"github.com/mohamedzeina/node-social/realtime"
	"github.com/mohamedzeina/node-social/routes"
	"github.com/mohamedzeina/node-social/utils"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{})

	hub := realtime.NewHub()
	go hub.Run()

	r := routes.SetupRouter(db, hub)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
