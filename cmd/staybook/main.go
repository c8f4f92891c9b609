package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/engine"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/schedule"
	"staybook/internal/app/uow"
	"staybook/internal/fixtures"
	"staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/cache"
	"staybook/internal/infra/config"
	mongodb "staybook/internal/infra/db/mongo"
	"staybook/internal/infra/db/sqldb"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	"staybook/internal/infra/outbox"
	"staybook/internal/infra/storage/memory"
)

const (
	sampleHost  = "sample-host"
	sampleGuest = "sample-guest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod").Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("staybook stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("staybook stopped")
}

// storage bundles what a backend contributes to the engine.
type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	source      appoutbox.Source
	idempotency middleware.IdempotencyStore
	check       obs.Check
	close       func(context.Context) error
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}()
	logger.Info("storage ready", "driver", cfg.StorageDriver)

	checks := map[string]obs.Check{"storage": store.check}
	var queryCache middleware.QueryCache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		queryCache = rc
		checks["cache"] = rc.Ping
	} else if cfg.DashboardCacheTTL > 0 {
		queryCache = cache.NewMemory()
	}

	app := engine.New(engine.Deps{
		UoWFactory:    store.factory,
		Outbox:        store.outbox,
		Encoder:       appoutbox.JSONEventEncoder{IDGenerator: uuid.NewString},
		Idempotency:   store.idempotency,
		Cache:         queryCache,
		CacheTTL:      cfg.DashboardCacheTTL,
		Cancellation:  policies.ForConfig(cfg.GuestCancelCutoff),
		UpcomingLimit: cfg.UpcomingLimit,
		Logger:        logger,
	})

	if cfg.SeedSampleData {
		res, err := fixtures.Seed(ctx, app.Commands, app.Queries, sampleHost, sampleGuest)
		if err != nil {
			logger.Warn("sample data seed failed", "error", err)
		} else {
			logger.Info("sample data seeded", "listings", len(res.Listings), "bookings", len(res.Bookings))
		}
	}

	var producer outbox.Producer = outbox.LogProducer{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("staybook"))
		if err != nil {
			return fmt.Errorf("kafka: %w", err)
		}
		defer kp.Close()
		producer = kp
	}
	worker := &outbox.Worker{
		Source:      store.source,
		Producer:    producer,
		Logger:      logger,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	completer := &schedule.Completer{Bus: app.Commands, Logger: logger, Interval: cfg.CompleterInterval}
	go func() {
		if err := completer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("booking completer stopped", "error", err)
		}
	}()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: checks}, ginserver.Handlers{
		Listing:      ginserver.ListingHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		Availability: ginserver.AvailabilityHandler{Queries: app.Queries, Logger: logger},
		Booking:      ginserver.BookingHandler{Commands: app.Commands, Queries: app.Queries, Logger: logger},
		Dashboard:    ginserver.DashboardHandler{Queries: app.Queries, Logger: logger},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storage{}, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return storage{}, err
		}
		box, err := outbox.NewStore(ctx, client.DB)
		if err != nil {
			return storage{}, err
		}
		idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, 0)
		if err != nil {
			return storage{}, err
		}
		return storage{
			factory:     mongodb.NewFactory(client.DB),
			outbox:      box,
			source:      box,
			idempotency: idem,
			check:       client.Ping,
			close:       client.Close,
		}, nil
	case config.DriverPostgres, config.DriverSQLite:
		dsn := cfg.DatabaseURL
		if cfg.StorageDriver == config.DriverSQLite {
			dsn = cfg.SQLitePath
		}
		db, err := sqldb.Open(cfg.StorageDriver, dsn)
		if err != nil {
			return storage{}, err
		}
		if err := sqldb.AutoMigrate(db); err != nil {
			return storage{}, err
		}
		box := sqldb.NewOutboxStore(db)
		return storage{
			factory:     sqldb.NewFactory(db),
			outbox:      box,
			source:      box,
			idempotency: sqldb.NewIdempotencyStore(db),
			check:       func(ctx context.Context) error { return sqldb.Ping(ctx, db) },
			close: func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil
	default:
		box := memory.NewOutbox()
		return storage{
			factory:     memory.Factory{Store: memory.NewStore(), Outbox: box},
			outbox:      box,
			source:      box,
			idempotency: memory.NewIdempotencyStore(),
			check:       func(context.Context) error { return nil },
			close:       func(context.Context) error { return nil },
		}, nil
	}
}
