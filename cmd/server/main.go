package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jdelrosario/kiosk-server/internal/api"
	"github.com/jdelrosario/kiosk-server/internal/config"
	"github.com/jdelrosario/kiosk-server/internal/notify"
	"github.com/jdelrosario/kiosk-server/internal/repository"
	"github.com/jdelrosario/kiosk-server/internal/service"
	"github.com/jdelrosario/kiosk-server/internal/tasks"
	"github.com/jdelrosario/kiosk-server/internal/utils"
	"github.com/jdelrosario/kiosk-server/internal/ws"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	logger, err := utils.NewLogger()
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg := config.LoadConfig()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to set up database", zap.Error(err))
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create notifier and service
	notifier := notify.NewLogNotifier(logger)
	svc := service.NewDefaultService(repo, notifier, logger, cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLHour)*time.Hour)

	// Start the WebSocket hub
	hub := ws.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	// Create API handler
	handler := api.NewHandler(svc, hub, logger, cfg.Auth.JWTSecret)

	// Set up Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Set up routes
	handler.SetupRoutes(router)

	// Start background jobs
	scheduler := tasks.InitScheduler(svc, logger, cfg.Audit.RetentionDays)
	defer scheduler.Stop()

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server", zap.String("addr", serverAddr))
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
