// Command server runs the TaskHive API: role-aware task and team
// management with real-time notification fan-out over websockets.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/taskhive/taskhive-api/internal/api/middleware"
	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/notify"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/platform/postgres"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/service/auth"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// termination signal before the server is forced down.
const shutdownTimeout = 15 * time.Second

// application bundles the wired dependencies the router and server need.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry    *notify.Registry
	dispatcher  *notify.Dispatcher
	rateLimiter *middleware.RateLimitMiddleware

	jwtService       auth.JWTService
	userService      service.UserService
	taskService      service.TaskService
	teamService      service.TeamService
	analyticsService service.AnalyticsService
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}

	return app.serve()
}

// openDatabase opens the connection pool and verifies connectivity.
func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// newApplication wires stores, the notification pipeline, and services.
func newApplication(cfg *config.Config, appLogger *slog.Logger, db *sql.DB) (*application, error) {
	userStore := postgres.NewPostgresUserStore(db, appLogger)
	taskStore := postgres.NewPostgresTaskStore(db, appLogger)
	teamStore := postgres.NewPostgresTeamStore(db, appLogger)

	registry := notify.NewRegistry()
	dispatcher := notify.NewDispatcher(registry, notify.DispatcherConfig{
		QueueSize:   cfg.Notify.QueueSize,
		WorkerCount: cfg.Notify.WorkerCount,
	}, appLogger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewBcryptHasher(0)

	userService, err := service.NewUserService(userStore, jwtService, hasher, hasher, dispatcher, appLogger)
	if err != nil {
		return nil, err
	}

	taskService, err := service.NewTaskService(taskStore, userStore, teamStore, dispatcher, appLogger)
	if err != nil {
		return nil, err
	}

	teamService, err := service.NewTeamService(db, teamStore, userStore, dispatcher, appLogger)
	if err != nil {
		return nil, err
	}

	analyticsService, err := service.NewAnalyticsService(taskStore, teamStore, appLogger)
	if err != nil {
		return nil, err
	}

	return &application{
		config:           cfg,
		logger:           appLogger,
		db:               db,
		registry:         registry,
		dispatcher:       dispatcher,
		rateLimiter:      middleware.NewRateLimitMiddleware(),
		jwtService:       jwtService,
		userService:      userService,
		taskService:      taskService,
		teamService:      teamService,
		analyticsService: analyticsService,
	}, nil
}

// serve runs the HTTP server until a termination signal arrives, then
// drains in-flight requests and the notification pipeline.
func (app *application) serve() error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	// Drain queued notifications, then drop the live channel registry and
	// stop the rate limiter sweep.
	app.dispatcher.Close()
	app.registry.Clear()
	app.rateLimiter.Close()

	app.logger.Info("server stopped")
	return nil
}
