package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"arenda/internal/api"
	"arenda/internal/catalog"
	"arenda/internal/config"
	"arenda/internal/database"
	"arenda/internal/domain"
	"arenda/internal/events"
	"arenda/internal/export"
	"arenda/internal/logging"
	"arenda/internal/media"
	"arenda/internal/metrics"
	"arenda/internal/notify"
	"arenda/internal/repository"
	"arenda/internal/service"
	"arenda/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app wires the controllers a command needs.
type app struct {
	cfg    *config.Config
	logger *zerolog.Logger
	out    io.Writer

	kv      domain.KVStore
	closers []func() error

	auth    *service.AuthController
	catalog *service.CatalogController
	item    *service.ItemDetailController
	listing *service.ListingController
	profile *service.ProfileController
	tracker *service.BookingTracker
}

func newApp(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, out io.Writer) (*app, error) {
	metrics.Register()
	a := &app{cfg: cfg, logger: logger, out: out}

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		a.closers = append(a.closers, func() error { return repository.Close(redisClient) })
	}

	kv, err := a.initStore(cfg, redisClient)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.kv = kv
	sessions := session.NewStore(kv, logging.Component(logger, "session"))

	client := api.NewClient(cfg.API, logging.Component(logger, "api"))
	if redisClient != nil && cfg.API.ItemsCacheTTL > 0 {
		client.UseRedisCache(redisClient, time.Duration(cfg.API.ItemsCacheTTL)*time.Second)
	}
	if cfg.Catalog.Path != "" {
		items, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		client.UseFallback(items)
	}

	notifier := initNotifier(cfg, out, logger)
	bus := events.NewEventBus()
	service.SubscribeNotifications(bus, notifier, logging.Component(logger, "events"))

	ctrlLogger := logging.Component(logger, "controller")
	a.auth = service.NewAuthController(client, sessions, bus, notifier, ctrlLogger)
	a.catalog = service.NewCatalogController(client, notifier, ctrlLogger)
	a.item = service.NewItemDetailController(client, sessions, bus, notifier, cfg.Booking.StrictRange, ctrlLogger)
	a.listing = service.NewListingController(client, sessions, initUploader(cfg, logger), bus, notifier, ctrlLogger)
	a.profile = service.NewProfileController(client, sessions,
		export.NewXLSXExporter(cfg.Exports.Path, logging.Component(logger, "export")),
		initSheets(ctx, cfg, logger),
		bus, notifier, ctrlLogger)
	a.tracker = service.NewBookingTracker(client, sessions, kv, bus, logging.Component(logger, "tracker"))

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}
	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("Redis unavailable")
	}
	return client
}

// initStore opens the session backend. With session.failover the memory
// store takes over while the primary is down.
func (a *app) initStore(cfg *config.Config, redisClient *redis.Client) (domain.KVStore, error) {
	var primary domain.KVStore
	switch cfg.Session.Backend {
	case config.BackendMemory:
		return repository.NewMemoryKVStore(), nil
	case config.BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis session backend needs redis.address")
		}
		primary = repository.NewRedisKVStore(redisClient, cfg.Session.KeyPrefix, 0)
	case config.BackendSQLite:
		db, err := database.NewDB(cfg.Database.Path, logging.Component(a.logger, "database"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		primary = db
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	if cfg.Session.Failover {
		return repository.NewFailoverKVStore(primary, repository.NewMemoryKVStore(), logging.Component(a.logger, "kv-failover")), nil
	}
	return primary, nil
}

func initNotifier(cfg *config.Config, out io.Writer, logger *zerolog.Logger) domain.Notifier {
	notifiers := notify.Multi{notify.NewConsole(out, logging.Component(logger, "console"))}

	if cfg.Telegram.Enabled {
		bot, err := notify.NewTelegramBot(cfg.Telegram)
		if err != nil {
			logger.Warn().Err(err).Msg("Telegram notifications disabled")
			return notifiers
		}
		notifiers = append(notifiers, notify.NewTelegram(bot, cfg.Telegram.ChatID, logging.Component(logger, "telegram")).SkipInfo())
	}
	return notifiers
}

func initSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.BookingSheetWriter {
	if !cfg.Google.Enabled() {
		return nil
	}
	svc, err := export.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.BookingSpreadSheetID, cfg.Google.SheetName)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}
	return svc
}

func initUploader(cfg *config.Config, logger *zerolog.Logger) domain.ImageUploader {
	if !cfg.Storage.Enabled() {
		return nil
	}
	uploader, err := media.NewS3Uploader(cfg.Storage, logging.Component(logger, "s3"))
	if err != nil {
		logger.Warn().Err(err).Msg("Photo upload disabled")
		return nil
	}
	return uploader
}
