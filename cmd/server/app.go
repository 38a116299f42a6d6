package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/jobs"
	"github.com/phrazzld/todo-api/internal/platform/cache"
	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
)

// appStores is the persistence layer the application is built on.
type appStores struct {
	users         store.UserStore
	categories    store.CategoryStore
	todos         store.TodoStore
	notifications store.NotificationStore
	tx            store.TxRunner
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the application runs over in-memory stores.
	db    *sql.DB
	cache cache.Cache

	stores appStores

	jwtService auth.JWTService
	guard      *auth.Guard

	userService         service.UserService
	categoryService     service.CategoryService
	todoService         service.TodoService
	notificationService service.NotificationService

	eventEmitter *events.InMemoryEventEmitter

	// Deadline sweep, only set when enabled.
	jobQueue   *jobs.Queue
	workerPool *jobs.WorkerPool
	scheduler  *jobs.Scheduler
}

// newApplication builds the application over PostgreSQL and, when enabled, Redis.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	stores := appStores{
		users:         postgres.NewPostgresUserStore(db, logger),
		categories:    postgres.NewPostgresCategoryStore(db, logger),
		todos:         postgres.NewPostgresTodoStore(db, logger),
		notifications: postgres.NewPostgresNotificationStore(db, logger),
		tx:            store.NewSQLTxRunner(db),
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := redisCache.Ping(ctx); err != nil {
			// The cache is best-effort; requests fall back to the stores.
			logger.Warn("cache not reachable at startup", "error", err)
		}
		c = redisCache
		logger.Info("Redis cache enabled", "ttl", cfg.Cache.DefaultTTL())
	}

	app, err := buildApplication(cfg, logger, stores, c)
	if err != nil {
		if c != nil {
			_ = c.Close()
		}
		return nil, err
	}
	app.db = db
	return app, nil
}

// buildApplication wires services, the event handlers and the optional
// deadline sweep over the given stores. c may be nil.
func buildApplication(
	cfg *config.Config,
	logger *slog.Logger,
	stores appStores,
	c cache.Cache,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		cache:  c,
		stores: stores,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"access_token_lifetime_minutes", cfg.Auth.AccessTokenLifetimeMinutes)

	app.guard = auth.NewGuard(app.jwtService, stores.users, logger)

	app.userService, err = service.NewUserService(
		stores.users,
		stores.tx,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		app.jwtService,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.categoryService, err = service.NewCategoryService(
		stores.categories,
		stores.todos,
		stores.tx,
		app.guard,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category service: %w", err)
	}

	app.notificationService, err = service.NewNotificationService(
		stores.notifications,
		stores.todos,
		stores.tx,
		nil,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	// Lifecycle notifications are recorded from todo events.
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(service.NewLifecycleNotifier(app.notificationService, logger))

	deps := service.TodoServiceDeps{
		Todos:      stores.todos,
		Categories: stores.categories,
		Tx:         stores.tx,
		Authz:      app.guard,
		Emitter:    app.eventEmitter,
		Cache:      c,
		CacheTTL:   cfg.Cache.DefaultTTL(),
	}
	app.todoService, err = service.NewTodoService(deps, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo service: %w", err)
	}

	if cfg.Notifications.SweepEnabled {
		if err := app.setupDeadlineSweep(); err != nil {
			return nil, fmt.Errorf("failed to setup deadline sweep: %w", err)
		}
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupDeadlineSweep schedules the periodic deadline sweep and starts its workers.
func (app *application) setupDeadlineSweep() error {
	workers := app.config.Notifications.SweepWorkers
	app.jobQueue = jobs.NewQueue(workers*16, app.logger)
	app.workerPool = jobs.NewWorkerPool(app.jobQueue, jobs.WorkerPoolConfig{WorkerCount: workers}, app.logger)
	app.scheduler = jobs.NewScheduler(time.UTC, app.logger)

	sweep := jobs.NewDeadlineSweep(app.stores.users, app.notificationService, app.jobQueue, app.logger)
	if _, err := app.scheduler.Schedule(app.config.Notifications.SweepSchedule, sweep); err != nil {
		return err
	}

	app.workerPool.Start()
	app.scheduler.Start()
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
// The scheduler stops first so no sweep enqueues into a stopped pool.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.workerPool != nil {
		app.workerPool.Stop()
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("Error closing cache connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
