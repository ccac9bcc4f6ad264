package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/trainup/internal/app"
	"github.com/Freeeeeet/trainup/internal/config"
	"github.com/Freeeeeet/trainup/internal/controller"
	"github.com/Freeeeeet/trainup/internal/notify"
	"github.com/Freeeeeet/trainup/internal/repository"
	"github.com/Freeeeeet/trainup/internal/service"
	"github.com/Freeeeeet/trainup/internal/session"
	"github.com/Freeeeeet/trainup/migrations"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, envFileLoaded, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting trainup",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Timezone),
		zap.Bool("env_file", envFileLoaded),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Application stopped with error", zap.Error(err))
	}

	logger.Info("Application stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	err = migrator.Run(ctx)
	migrator.Close()
	if err != nil {
		return err
	}

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return err
	}

	store := repository.NewStore(pool)
	lifecycle := session.NewLifecycle(loc, time.Now)

	userService := service.NewUserService(store.Users, logger)
	bookingService := service.NewBookingService(
		store.Repository,
		store,
		lifecycle,
		notify.NewTelegram(b, logger),
		time.Now,
		logger,
	)

	botController := controller.NewBotController(b, userService, bookingService, cfg.RoomURL, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		return err
	}

	scheduler := app.NewScheduler(bookingService, cfg.ReminderInterval, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return botController.Start(ctx) })
	g.Go(func() error { return scheduler.Run(ctx) })
	g.Go(func() error { return botController.RunStateCleanup(ctx, time.Minute) })

	return g.Wait()
}
