package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/orkestre/orkestre-api/api/swagger"
	"github.com/orkestre/orkestre-api/internal/handler"
	"github.com/orkestre/orkestre-api/internal/repository"
	"github.com/orkestre/orkestre-api/internal/router"
	"github.com/orkestre/orkestre-api/internal/service"
	"github.com/orkestre/orkestre-api/pkg/cache"
	"github.com/orkestre/orkestre-api/pkg/config"
	"github.com/orkestre/orkestre-api/pkg/database"
	"github.com/orkestre/orkestre-api/pkg/logger"
)

// @title Orkestre API
// @version 1.0.0
// @description Multi-tenant appointment booking backend
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Availability.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	establishmentRepo := repository.NewEstablishmentRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	metrics := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metrics, cfg.Availability.CacheTTL, logr, true)
	} else {
		cacheService = service.NewCacheService(nil, metrics, cfg.Availability.CacheTTL, logr, false)
	}

	notifications := service.NewNotificationService(service.NewLogNotifier(logr), cfg.Notifications, logr)
	notifications.Start(context.Background())
	defer notifications.Stop()

	authService := service.NewAuthService(userRepo, establishmentRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		DefaultTimezone:    cfg.Booking.DefaultTimezone,
	})
	establishmentService := service.NewEstablishmentService(establishmentRepo, cacheService, logr)
	catalogService := service.NewCatalogService(serviceRepo, cacheService, validate, logr)
	availabilityService := service.NewAvailabilityService(establishmentRepo, serviceRepo, appointmentRepo, cacheService, logr, cfg.Booking.DefaultTimezone)
	bookingService := service.NewBookingService(establishmentRepo, serviceRepo, appointmentRepo, cacheService, metrics, notifications, validate, logr, cfg.Booking.DefaultTimezone)
	exportService := service.NewExportService(appointmentRepo, serviceRepo, nil, nil, logr)

	engine := router.New(cfg, logr, router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Establishment: handler.NewEstablishmentHandler(establishmentService),
		Service:       handler.NewServiceHandler(catalogService),
		Appointment:   handler.NewAppointmentHandler(availabilityService, bookingService, exportService),
		Health:        handler.NewHealthHandler(db, redisClient),
	}, router.Services{
		Auth:          authService,
		Establishment: establishmentService,
		Metrics:       metrics,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Info("server stopped", zap.String("env", cfg.Env))
}
