// Command server wires the profile synchronization engine: config, stores,
// the propagation worker pool, notification fanout, and the HTTP surface.
// Business logic lives in the internal packages; main only assembles and
// supervises them.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"praxis/internal/audit"
	auditmemory "praxis/internal/audit/store/memory"
	auditpostgres "praxis/internal/audit/store/postgres"
	"praxis/internal/jwtauth"
	"praxis/internal/platform/config"
	"praxis/internal/platform/httpserver"
	"praxis/internal/platform/kafka"
	"praxis/internal/platform/logger"
	"praxis/internal/platform/middleware"
	"praxis/internal/platform/postgres"
	"praxis/internal/platform/redis"
	"praxis/internal/profile/adapters"
	"praxis/internal/profile/handler"
	"praxis/internal/profile/metrics"
	"praxis/internal/profile/models"
	"praxis/internal/profile/notify"
	"praxis/internal/profile/ports"
	"praxis/internal/profile/service"
	"praxis/internal/profile/store"
	operationstore "praxis/internal/profile/store/operation"
	profilestore "praxis/internal/profile/store/profile"
	snapshotstore "praxis/internal/profile/store/snapshot"
	"praxis/internal/profile/syncer"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Minute
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background goroutines (worker shards, cleanup loops) stop on this
	// context; it outlives rootCtx so in-flight work can finish during
	// shutdown ordering below.
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()

	// Infrastructure. Every backend is optional: an unconfigured one selects
	// the in-memory or logging fallback so a bare `go run` serves traffic.
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.RunMigrations(db); err != nil {
			return err
		}
		log.Info("postgres connected, migrations applied")
	}

	pool, err := postgres.NewPool(rootCtx, cfg.Postgres)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	kafkaClient, err := kafka.New(cfg.Kafka)
	if err != nil {
		return err
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := kafkaClient.EnsureTopics(rootCtx, cfg.Kafka.ChangesTopic, cfg.Kafka.NotifyTopic); err != nil {
			return err
		}
		log.Info("kafka connected", "brokers", cfg.Kafka.Brokers)
	}

	// Stores.
	var trail audit.Store
	if db != nil {
		trail = auditpostgres.New(db)
	} else {
		trail = auditmemory.NewInMemoryStore()
	}
	publisher := audit.NewPublisher(trail, audit.WithLogger(log))
	defer publisher.Close()

	var profiles ports.ProfileStore
	if pool != nil {
		profiles = profilestore.NewPostgres(pool)
	} else {
		mem := profilestore.NewMemoryStore()
		subjectID := store.SeedDemoProfile(mem)
		log.Info("running on in-memory profile store", "demo_subject_id", subjectID)
		profiles = mem
	}

	var snapshots ports.SnapshotStore
	if redisClient != nil {
		snapshots = snapshotstore.NewRedisStore(redisClient.Client)
	} else {
		mem := snapshotstore.NewMemoryStore()
		go func() {
			_ = mem.StartCleanup(workCtx, cleanupInterval)
		}()
		snapshots = mem
	}

	registry := operationstore.NewMemoryRegistry()
	go func() {
		_ = registry.StartCleanup(workCtx, cleanupInterval, cfg.Sync.SnapshotRetention)
	}()

	// Propagation pipeline.
	engineMetrics := metrics.New()
	queue := syncer.NewQueue(cfg.Sync.Workers)

	adapterRegistry, err := buildAdapters(cfg, log, redisClient, kafkaClient)
	if err != nil {
		return err
	}

	fanout := buildFanout(cfg, log, kafkaClient)

	worker := syncer.NewWorker(queue, registry, adapterRegistry, trail, publisher, fanout,
		syncer.Config{
			MaxRetries:     cfg.Sync.MaxRetries,
			RetryBackoff:   cfg.Sync.RetryBackoff,
			AdapterTimeout: cfg.Sync.AdapterTimeout,
		},
		syncer.WithWorkerLogger(log),
		syncer.WithWorkerMetrics(engineMetrics),
	)

	// Re-seed unfinished operations from the trail before the shards start,
	// so a restart resumes propagation instead of dropping it.
	recovery := syncer.NewRecovery(trail, registry, queue, log)
	if restored, err := recovery.Reseed(rootCtx); err != nil {
		log.Error("recovery pass failed", "error", err)
	} else if restored > 0 {
		log.Info("recovered unfinished sync operations", "count", restored)
	}
	worker.Start(workCtx)

	engine := service.New(profiles, snapshots, registry, queue, trail, publisher,
		service.WithLogger(log),
		service.WithMetrics(engineMetrics),
		service.WithSnapshotTTL(cfg.Sync.SnapshotRetention),
	)

	// HTTP surface.
	jwtService := jwtauth.NewJWTService(cfg.Server.JWTSigningKey, "praxis", "praxis")
	profileHandler := handler.New(engine, jwtService, cfg.Server.AdminToken, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientMetadata)
	profileHandler.Register(router)
	profileHandler.RegisterOps(router, healthChecks(db, redisClient, kafkaClient)...)

	srv := httpserver.New(cfg.Server.Addr, router)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	log.Info("praxis profile engine listening", "addr", cfg.Server.Addr)

	select {
	case err := <-serverErr:
		return err
	case <-rootCtx.Done():
	}
	log.Info("shutting down")

	// Stop intake first, then drain the worker shards and in-flight
	// notification fanouts, then flush the audit publisher (deferred).
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	cancelWork()
	worker.Drain()
	log.Info("shutdown complete")
	return nil
}

// buildAdapters assembles one synchronizer per downstream system. Systems
// without configured endpoints get the logging stand-in so the worker still
// exercises the full pipeline in development.
func buildAdapters(cfg config.Config, log *slog.Logger, redisClient *redis.Client, kafkaClient *kafka.Client) (*adapters.Registry, error) {
	var search ports.Synchronizer
	if cfg.Adapters.SearchURL != "" {
		search = adapters.NewSearchAdapter(cfg.Adapters.SearchURL, cfg.Sync.AdapterTimeout)
	} else {
		search = adapters.NewLogAdapter(models.SystemSearch, log)
	}

	var booking ports.Synchronizer
	if cfg.Adapters.BookingURL != "" {
		booking = adapters.NewBookingAdapter(cfg.Adapters.BookingURL, cfg.Sync.AdapterTimeout)
	} else {
		booking = adapters.NewLogAdapter(models.SystemBooking, log)
	}

	var cache ports.Synchronizer
	if redisClient != nil {
		cache = adapters.NewCacheAdapter(redisClient.Client, 0)
	} else {
		cache = adapters.NewLogAdapter(models.SystemCache, log)
	}

	var integrations ports.Synchronizer
	if kafkaClient != nil {
		integrations = adapters.NewIntegrationsAdapter(kafkaClient, cfg.Kafka.ChangesTopic)
	} else {
		integrations = adapters.NewLogAdapter(models.SystemIntegrations, log)
	}

	return adapters.NewRegistry(search, booking, cache, integrations)
}

// buildFanout assembles stakeholder resolution and delivery. With no booking
// service there is nobody to resolve, so fanout runs against an empty static
// list; with no Kafka, deliveries go to the log.
func buildFanout(cfg config.Config, log *slog.Logger, kafkaClient *kafka.Client) *notify.Fanout {
	var resolver notify.StakeholderResolver
	if cfg.Adapters.BookingURL != "" {
		resolver = notify.NewBookingResolver(cfg.Adapters.BookingURL, cfg.Notify.Timeout)
	} else {
		resolver = notify.NewStaticResolver()
	}

	var sender notify.Sender
	if kafkaClient != nil {
		sender = notify.NewKafkaSender(kafkaClient, cfg.Kafka.NotifyTopic)
	} else {
		sender = notify.NewLogSender(log)
	}

	return notify.NewFanout(resolver, sender,
		notify.WithLogger(log),
		notify.WithTimeout(cfg.Notify.Timeout),
		notify.WithMaxConcurrency(cfg.Notify.MaxConcurrency),
	)
}

func healthChecks(db *sql.DB, redisClient *redis.Client, kafkaClient *kafka.Client) []handler.HealthCheck {
	var checks []handler.HealthCheck
	if db != nil {
		checks = append(checks, handler.HealthCheck{Name: "postgres", Probe: func(ctx context.Context) error {
			return postgres.Health(ctx, db)
		}})
	}
	if redisClient != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Probe: redisClient.Health})
	}
	if kafkaClient != nil {
		checks = append(checks, handler.HealthCheck{Name: "kafka", Probe: kafkaClient.Health})
	}
	return checks
}
