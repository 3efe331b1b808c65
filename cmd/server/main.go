package main

import (
	"context"
	"errors"
	"hifz/tracker/internal/api"
	"hifz/tracker/internal/config"
	"hifz/tracker/internal/events"
	"hifz/tracker/internal/logger"
	"hifz/tracker/internal/repository/mongo"
	"hifz/tracker/internal/scheduler"
	"hifz/tracker/internal/service"
	"hifz/tracker/internal/storage"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Hifz Tracker API
// @version 1.0
// @description Quran memorization plans, daily tasks, progress and adherence.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	appLogger := logger.New(cfg.Log)
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("starting hifz tracker", zap.String("address", cfg.Server.Address))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI, cfg.Database.ConnectTimeout)
	if err != nil {
		appLogger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			appLogger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongo.EnsureIndexes(ctx, appDB, appLogger)
	}()

	// --- Initialize Storage ---
	var audioStorage storage.AudioStorage
	if cfg.S3.Enabled() {
		s3Store, err := storage.NewS3Storage(cfg.S3, appLogger)
		if err != nil {
			appLogger.Fatal("failed to initialize S3 storage", zap.Error(err))
		}
		audioStorage = s3Store
	} else {
		appLogger.Warn("S3 credentials not configured, recitation uploads disabled")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	notificationRepo := mongo.NewMongoNotificationRepository(appDB)
	recitationRepo := mongo.NewMongoRecitationRepository(appDB)

	// --- Initialize Services ---
	policy, err := service.NewPolicy(cfg.Plan)
	if err != nil {
		appLogger.Fatal("invalid plan policy", zap.Error(err))
	}
	bus := events.NewBus(events.DefaultBuffer, appLogger)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, appLogger)
	memorizationService := service.NewMemorizationService(userRepo, planRepo, bus, policy, appLogger)
	adherenceService := service.NewAdherenceService(userRepo, planRepo, policy, appLogger)
	planService := service.NewPlanService(planRepo, appLogger)
	notificationService := service.NewNotificationService(userRepo, notificationRepo, policy, appLogger)
	recitationService := service.NewRecitationService(userRepo, recitationRepo, audioStorage, policy, appLogger)

	// --- Background Jobs ---
	if cfg.Scheduler.Enabled {
		jobs := scheduler.New(cfg.Scheduler, policy.Location, notificationService, adherenceService, appLogger)
		if err := jobs.Start(); err != nil {
			appLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer jobs.Stop()
	}

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(appLogger))

	api.SetupRoutes(router, cfg.JWT.Secret, api.Services{
		Auth:         authService,
		Memorization: memorizationService,
		Adherence:    adherenceService,
		Plans:        planService,
		Notification: notificationService,
		Recitation:   recitationService,
		Progress:     bus,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()
	appLogger.Info("server listening", zap.String("address", cfg.Server.Address))

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("server exiting")
}
