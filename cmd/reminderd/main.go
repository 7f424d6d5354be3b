package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/medpal/assist-api/internal/config"
	"github.com/medpal/assist-api/internal/notify"
	"github.com/medpal/assist-api/internal/repository/badgerstore"
	"github.com/medpal/assist-api/internal/repository/postgres"
	reminderService "github.com/medpal/assist-api/internal/service/reminder"
	"github.com/medpal/assist-api/pkg/logger"
	"github.com/medpal/assist-api/pkg/messaging"
	redisbroker "github.com/medpal/assist-api/pkg/messaging/redis"
	"github.com/medpal/assist-api/pkg/metrics"
)

// reminderd runs the reminder scheduler without the HTTP API, for
// deployments that separate notification delivery from request serving.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("medpal", "reminderd")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	reminderStore, err := badgerstore.New(cfg.Badger.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open reminder store")
	}
	defer reminderStore.Close()

	userRepo := postgres.NewUserRepository(db)
	reminderSvc := reminderService.NewService(reminderStore, appLogger)
	notifier := notify.Detect(cfg.Pushover, appLogger)

	var broker messaging.Broker
	if cfg.Redis.Enabled {
		zl := log.Logger
		broker, err = redisbroker.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &zl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	scheduler := reminderService.NewScheduler(
		reminderSvc,
		userRepo,
		notifier,
		broker,
		appLogger,
		appMetrics,
		reminderService.SchedulerConfig{CatchupWindow: cfg.Scheduler.CatchupWindow},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("reminder scheduler failed")
	}

	log.Info().Msg("reminderd exited properly")
}
