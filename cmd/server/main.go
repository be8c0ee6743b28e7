package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/cache"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/config"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/coordinator"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/database"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/handlers"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/services"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/session"
	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/ws"
)

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gameCache, err := cache.Connect(ctx, cfg.RedisURL)
	cancel()
	if err != nil {
		log.Printf("redis unavailable, running without the game-state cache: %v", err)
		gameCache = nil
	}

	hub := ws.NewHub()
	registry := session.NewRegistry()
	invites := session.NewInviteStore(session.DefaultInviteTTL)
	statsService := services.NewStatsService(db)

	coord := coordinator.New(registry, invites, hub, statsService, gameCache, coordinator.Config{})
	coord.Start()
	defer coord.Stop()

	wsHandler := handlers.NewWSHandler(hub, coord)
	statsHandler := handlers.NewStatsHandler(statsService)
	tokenHandler := handlers.NewTokenHandler(cfg)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.MessageResponse{Message: "ok"})
	})
	r.GET("/ws/channel/:channelId", wsHandler.HandleWebSocket)

	api := r.Group("/api")
	{
		api.POST("/token", tokenHandler.Exchange)
		api.GET("/stats/:userId", statsHandler.GetStats)
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
