package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medpal/assist-api/internal/config"
	"github.com/medpal/assist-api/internal/handler"
	authHandler "github.com/medpal/assist-api/internal/handler/auth"
	recordHandler "github.com/medpal/assist-api/internal/handler/record"
	reminderHandler "github.com/medpal/assist-api/internal/handler/reminder"
	"github.com/medpal/assist-api/internal/middleware"
	"github.com/medpal/assist-api/internal/migration"
	"github.com/medpal/assist-api/internal/notify"
	"github.com/medpal/assist-api/internal/repository/badgerstore"
	"github.com/medpal/assist-api/internal/repository/postgres"
	"github.com/medpal/assist-api/internal/router"
	authService "github.com/medpal/assist-api/internal/service/auth"
	recordService "github.com/medpal/assist-api/internal/service/record"
	reminderService "github.com/medpal/assist-api/internal/service/reminder"
	"github.com/medpal/assist-api/pkg/auth"
	"github.com/medpal/assist-api/pkg/logger"
	"github.com/medpal/assist-api/pkg/messaging"
	redisbroker "github.com/medpal/assist-api/pkg/messaging/redis"
	"github.com/medpal/assist-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("medpal", "assist")

	if err := migration.Up(cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("failed to run database migrations")
	}

	// Remote document store
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Local reminder store
	reminderStore, err := badgerstore.New(cfg.Badger.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open reminder store")
	}
	defer reminderStore.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	recordRepo := postgres.NewHealthRecordRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)

	// Services
	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		Secret:      cfg.JWT.Secret,
		ExpiryHours: cfg.JWT.ExpiryHours,
	})
	authSvc := authService.NewService(userRepo, tokenRepo, jwtSvc)
	recordSvc := recordService.NewService(recordRepo, appLogger, appMetrics)
	reminderSvc := reminderService.NewService(reminderStore, appLogger)

	// Identity transitions drive the record synchronizer: login loads,
	// logout clears.
	authSvc.Subscribe(recordSvc.SetIdentity)

	// Notification capability, resolved once
	notifier := notify.Detect(cfg.Pushover, appLogger)

	// Optional fired-reminder event broker
	var broker messaging.Broker
	if cfg.Redis.Enabled {
		zl := log.Logger
		broker, err = redisbroker.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &zl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	// Reminder scheduler
	scheduler := reminderService.NewScheduler(
		reminderSvc,
		userRepo,
		notifier,
		broker,
		appLogger,
		appMetrics,
		reminderService.SchedulerConfig{CatchupWindow: cfg.Scheduler.CatchupWindow},
	)

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go func() {
		if err := scheduler.Start(schedulerCtx); err != nil {
			log.Error().Err(err).Msg("reminder scheduler stopped")
		}
	}()

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc)
	recordH := recordHandler.NewHandler(recordSvc)
	reminderH := reminderHandler.NewHandler(reminderSvc, scheduler)

	requestRate := rate.Limit(cfg.RateLimit.RequestsPerSecond)
	if !cfg.RateLimit.Enabled {
		requestRate = rate.Inf
	}

	r := router.NewRouter(
		authMiddleware,
		authH,
		recordH,
		reminderH,
		h,
		router.Config{
			RateLimit:  requestRate,
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
