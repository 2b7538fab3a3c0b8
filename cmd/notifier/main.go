package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"campus_notifier/internal/app"
	"campus_notifier/internal/domain/notification"
	domainpush "campus_notifier/internal/domain/push"
	"campus_notifier/internal/infra/config"
	idb "campus_notifier/internal/infra/database"
	"campus_notifier/internal/infra/httpapi"
	"campus_notifier/internal/infra/lock"
	"campus_notifier/internal/infra/logger"
	"campus_notifier/internal/infra/push"
	"campus_notifier/internal/infra/scheduler"
	"campus_notifier/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	fmt.Println("Campus notifier starting...")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Entry().WithField("component", "main")

	mainLogger.WithFields(logrus.Fields{
		"environment":  cfg.Environment,
		"push_backend": cfg.PushBackend,
		"http_addr":    cfg.HTTPAddr,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.Migrate(ctx, db, logger.Entry()); err != nil {
		mainLogger.WithError(err).Fatal("Could not apply database migrations")
	}
	mainLogger.Info("Database connection established and migrated")

	// Initialize Repositories
	userRepo := idb.NewPostgresUserRepository(db)
	contentRepo := idb.NewPostgresContentRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)

	// Push backend
	pushClient, bot, err := newPushClient(ctx, cfg)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not initialise push backend")
	}
	if bot != nil {
		telegram.RegisterBotCommands(bot, logger.Entry().WithField("component", "telegram_bot"))
		go bot.Start()
		defer bot.Stop()
	}

	// Optional job claims
	var jobLock notification.JobLock
	if cfg.RedisURL != "" {
		redisClient, err := lock.Connect(ctx, cfg.RedisURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to redis")
		}
		defer redisClient.Close()
		owner, err := lock.OwnerID()
		if err != nil {
			mainLogger.WithError(err).WithField("owner", owner).Warn("Could not read hostname, using default job claim owner")
		}
		jobLock = lock.NewRedisJobLock(redisClient, owner)
		mainLogger.Info("Redis job claims enabled")
	}

	// Services
	baseLogger := logger.Entry()
	fanout := app.NewNotificationServiceImpl(
		app.NewRecipientResolver(userRepo, baseLogger, cfg.FanoutConcurrency),
		app.NewNotificationWriter(notificationRepo, baseLogger, cfg.FanoutConcurrency),
		app.NewPushDispatcher(pushClient, baseLogger),
		baseLogger,
	)
	schedules := app.NewScheduleService(notificationRepo, fanout, jobLock, baseLogger)
	triggers := app.NewTriggerService(fanout, schedules, contentRepo, userRepo, baseLogger)
	callables := app.NewCallableService(fanout, contentRepo, baseLogger)

	// Timer trigger
	notifScheduler := scheduler.NewNotificationScheduler(schedules, baseLogger, cfg.SweepCronSpec, cfg.SweepTimeout)
	if err := notifScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}

	// HTTP surface
	server := httpapi.NewServer(httpapi.Options{
		Addr:                   cfg.HTTPAddr,
		MaxConcurrentCallables: cfg.CallableMaxConcurrency,
		Timeout:                cfg.CallableTimeout,
	}, callables, triggers, notificationRepo, baseLogger)

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	mainLogger.Info("Application setup complete. HTTP server and scheduler are running")

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			mainLogger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}

	mainLogger.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("HTTP server shutdown failed")
	}
	notifScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}

// newPushClient builds the configured backend. The Telegram bot is returned
// as well so its commands can be served.
func newPushClient(ctx context.Context, cfg *config.AppConfig) (domainpush.Client, *telebot.Bot, error) {
	switch cfg.PushBackend {
	case config.PushBackendFCM:
		client, err := push.NewFCMClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		return client, nil, err
	case config.PushBackendTelegram:
		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := logger.Entry().WithError(err).WithField("component", "telegram_bot")
				if c != nil && c.Chat() != nil {
					entry = entry.WithField("chat_id", c.Chat().ID)
				}
				entry.Error("Telegram bot error")
			},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create Telegram bot: %w", err)
		}
		return telegram.NewTelebotAdapter(bot, cfg.TelegramChannels, logger.Entry()), bot, nil
	default:
		return push.NewLogClient(logger.Entry()), nil, nil
	}
}
