package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fitcal/coach-planner/internal/api"
	"fitcal/coach-planner/internal/calendar"
	"fitcal/coach-planner/internal/config"
	"fitcal/coach-planner/internal/repository/mongo"
	"fitcal/coach-planner/internal/service"
	"fitcal/coach-planner/internal/storage"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.WithError(err).Fatal("could not load config")
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	defaultWeekday, err := calendar.ParseWeekday(cfg.Calendar.WeekStart)
	if err != nil {
		log.WithError(err).Fatal("invalid calendar.week_start")
	}

	// --- Database ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.WithError(err).Fatal("could not connect to MongoDB")
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.WithError(err).Error("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.WithField("database", cfg.Database.Name).Info("database connection established")

	// Index creation runs in the background; a slow Mongo must not block
	// startup.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureEntryIndexes(ctx, appDB.Collection("plan_entries"))
		mongo.EnsureTemplateIndexes(ctx, appDB.Collection("templates"))
		log.Debug("index creation completed")
	}()

	// --- Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize attachment storage")
	}

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	entryRepo := mongo.NewMongoEntryRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	rosterService := service.NewRosterService(userRepo)
	plannerService := service.NewPlannerService(entryRepo, templateRepo, userRepo, fileStorage, log)
	templateService := service.NewTemplateService(templateRepo)

	// --- Router ---
	router := gin.Default()
	api.SetupRoutes(router, cfg.JWT.Secret, authService, rosterService, plannerService, templateService, defaultWeekday)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("address", cfg.Server.Address).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen and serve failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server exited")
}
