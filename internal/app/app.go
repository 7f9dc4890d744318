package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cradoe/splitsy/internal/balance"
	"github.com/cradoe/splitsy/internal/cache"
	"github.com/cradoe/splitsy/internal/config"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/file"
	"github.com/cradoe/splitsy/internal/funding"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/killswitch"
	"github.com/cradoe/splitsy/internal/metrics"
	"github.com/cradoe/splitsy/internal/paylink"
	"github.com/cradoe/splitsy/internal/payment"
	"github.com/cradoe/splitsy/internal/repository"
	seeders "github.com/cradoe/splitsy/internal/seeder"
	"github.com/cradoe/splitsy/internal/sms"
	"github.com/cradoe/splitsy/internal/smtp"
	"github.com/cradoe/splitsy/internal/stream"
	"github.com/cradoe/splitsy/internal/vault"
	"github.com/cradoe/splitsy/internal/worker"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items when they need them
type Application struct {
	Config       config.Config
	DB           repository.Database
	Logger       *slog.Logger
	Mailer       *smtp.Mailer
	WG           sync.WaitGroup
	errorHandler *errHandler.ErrorHandler
	helper       *helper.HelperRepository
	Kafka        *stream.KafkaStream
	Cache        *cache.Cache
	FileUploader *file.FileUploader
	Payments     payment.Provider
	Sms          sms.Sender
	Sealer       *vault.Sealer
	PayLinks     *paylink.Signer
	Metrics      *metrics.Metrics
	KillSwitch   *killswitch.Switch
	Balances     *balance.Reader
	Settler      *funding.Settler
}

func NewApplication(cfg config.Config, logger *slog.Logger) (*Application, error) {
	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	redisCache := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Ping(); err != nil {
		// the cache only saves queries, so the API can run without it
		logger.Warn("redis unavailable, continuing without a warm cache", "error", err)
	}

	kafkaStream, err := stream.New(cfg.KafkaServers, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize kafka producer: %w", err)
	}

	fileUploader, err := file.New(cfg.FileUploader.CloudName, cfg.FileUploader.ApiKey, cfg.FileUploader.ApiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file uploader: %w", err)
	}

	sealer, err := vault.NewSealer(cfg.Vault.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault: %w", err)
	}

	app := &Application{
		Config:       cfg,
		DB:           db,
		Logger:       logger,
		Mailer:       mailer,
		Kafka:        kafkaStream,
		Cache:        redisCache,
		FileUploader: fileUploader,
		Payments:     payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
		Sms:          sms.NewTwilioSender(cfg.Twilio.AccountSid, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber),
		Sealer:       sealer,
		PayLinks:     paylink.NewSigner(cfg.PayLink.SecretKey, cfg.PayLink.TTL, cfg.BaseURL),
		Metrics:      metrics.New(),
	}

	app.errorHandler = errHandler.New(cfg.Notifications.Email, mailer, logger)
	app.helper = helper.New(cfg.BaseURL, &app.WG, app.errorHandler)

	app.KillSwitch = killswitch.New(db.Setting(), redisCache, app.Metrics, logger)
	app.Balances = balance.NewReader(db.Pool(), redisCache, logger)
	app.Settler = &funding.Settler{
		Contributions: db.Contribution(),
		Pools:         db.Pool(),
		Balances:      app.Balances,
		Producer:      kafkaStream,
	}

	err = seeders.New(&seeders.Seeder{
		Settings:           db.Setting(),
		UserRepo:           db.User(),
		PlatformAdminEmail: cfg.PlatformAdminEmail,
		Logger:             logger,
	}).Run()
	if err != nil {
		return nil, fmt.Errorf("failed to seed: %w", err)
	}

	return app, nil
}

// StartWorkers launches the stream consumers. They stop when ctx is cancelled.
func (app *Application) StartWorkers(ctx context.Context) {
	worker.New(&worker.Worker{
		KafkaStream:      app.Kafka,
		Ctx:              ctx,
		Helper:           app.helper,
		Logger:           app.Logger,
		UserRepo:         app.DB.User(),
		GroupRepo:        app.DB.Group(),
		PoolRepo:         app.DB.Pool(),
		ContributionRepo: app.DB.Contribution(),
		SplitRepo:        app.DB.Split(),
		Settler:          app.Settler,
		Payments:         app.Payments,
		Sms:              app.Sms,
		Mailer:           app.Mailer,
		Metrics:          app.Metrics,
	}).Start()
}

// Close releases connections once the server and workers have stopped.
func (app *Application) Close() {
	app.Kafka.Close()

	if err := app.Cache.Close(); err != nil {
		app.Logger.Warn("close cache", "error", err)
	}

	if err := app.DB.Close(); err != nil {
		app.Logger.Warn("close database", "error", err)
	}
}
