package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phrazzld/marketplace-api/internal/config"
	"github.com/phrazzld/marketplace-api/internal/events"
	"github.com/phrazzld/marketplace-api/internal/platform/postgres"
	"github.com/phrazzld/marketplace-api/internal/platform/rabbitmq"
	"github.com/phrazzld/marketplace-api/internal/platform/redis"
	"github.com/phrazzld/marketplace-api/internal/service"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"github.com/phrazzld/marketplace-api/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
)

// pinger is the health-check view of the database pool.
type pinger interface {
	Ping(ctx context.Context) error
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     pinger

	userService     service.UserService
	productService  service.ProductService
	offeringService service.OfferingService
	jwtService      auth.JWTService

	registry *prometheus.Registry

	// closers release external connections in reverse order of creation.
	closers []func()
}

// newApplication connects to the database and the optional Redis and
// RabbitMQ backends, and wires the stores and services.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pool, err := postgres.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	app.db = pool
	app.closers = append(app.closers, pool.Close)

	if err := app.wire(ctx, pool); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("application initialized successfully")
	return app, nil
}

func (app *application) wire(ctx context.Context, pool *pgxpool.Pool) error {
	cfg, logger := app.config, app.logger

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Duration("access_token_lifetime", cfg.Auth.AccessTokenLifetime),
		slog.Duration("refresh_token_lifetime", cfg.Auth.RefreshTokenLifetime))

	emitter, err := app.newEventEmitter()
	if err != nil {
		return err
	}

	userOpts := []service.UserServiceOption{service.WithUserEvents(emitter)}
	if cfg.Redis.URL != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, closeWithLog(logger, "redis", rdb.Close))
		userOpts = append(userOpts, service.WithProfileCache(
			redis.NewProfileCache(rdb, cfg.Redis.ProfileTTL, logger)))
		app.registerPoolStats(rdb)
		logger.Info("profile cache enabled", slog.Duration("ttl", cfg.Redis.ProfileTTL))
	}

	hasher := auth.NewBcryptHasher(cfg.Auth.BCryptCost)
	app.userService = service.NewUserService(postgres.NewPostgresUserStore(pool, logger), hasher, logger, userOpts...)
	app.productService = service.NewProductService(postgres.NewPostgresProductStore(pool, logger), emitter, logger)
	app.offeringService = service.NewOfferingService(postgres.NewPostgresServiceStore(pool, logger), emitter, logger)

	app.startTasks()
	return nil
}

// startTasks launches the background runner and its reconciliation schedule.
func (app *application) startTasks() {
	cfg := app.config.Tasks
	runnerCfg := task.DefaultRunnerConfig()
	runnerCfg.WorkerCount = cfg.WorkerCount
	runnerCfg.QueueSize = cfg.QueueSize

	runner := task.NewRunner(runnerCfg, app.logger)
	runner.Start()
	app.closers = append(app.closers, runner.Stop)

	if cfg.ReconcileInterval > 0 {
		runner.Schedule(cfg.ReconcileInterval, func() task.Task {
			return task.NewCounterReconcileTask(app.userService, app.logger)
		})
		app.logger.Info("follower counter reconciliation scheduled",
			slog.Duration("interval", cfg.ReconcileInterval))
	}
}

// newEventEmitter publishes to RabbitMQ when configured, and otherwise logs
// events in process.
func (app *application) newEventEmitter() (events.EventEmitter, error) {
	cfg := app.config.RabbitMQ
	if cfg.URL == "" {
		emitter := events.NewInMemoryEventEmitter(app.logger)
		emitter.RegisterHandler(events.LogHandler{Logger: app.logger.With(slog.String("component", "events"))})
		return emitter, nil
	}

	publisher, err := rabbitmq.NewPublisher(cfg.URL, cfg.Exchange, app.logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeWithLog(app.logger, "rabbitmq", publisher.Close))
	app.logger.Info("publishing events to rabbitmq", slog.String("exchange", cfg.Exchange))
	return publisher, nil
}

// registerPoolStats exposes the Redis connection pool counters.
func (app *application) registerPoolStats(rdb *goredis.Client) {
	app.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "marketplace",
		Subsystem: "redis",
		Name:      "pool_total_connections",
		Help:      "Connections in the Redis pool.",
	}, func() float64 { return float64(rdb.PoolStats().TotalConns) }))
}

func closeWithLog(logger *slog.Logger, name string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			logger.Error("error closing connection", slog.String("backend", name), slog.String("error", err.Error()))
		}
	}
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}
