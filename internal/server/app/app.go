package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/hellomouse/pinboard-server/internal/server/http"
	"github.com/hellomouse/pinboard-server/internal/server/service"
	"github.com/hellomouse/pinboard-server/internal/server/session"
	"github.com/hellomouse/pinboard-server/internal/server/store"
	"github.com/hellomouse/pinboard-server/internal/server/store/drivers/postgres"
	"github.com/hellomouse/pinboard-server/internal/server/store/drivers/sqlite"
	"github.com/hellomouse/pinboard-server/pkg/httpx"
	"github.com/hellomouse/pinboard-server/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the pinboard server with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	sessions *session.Manager
	limiter  *httpx.RateLimiter

	// Services
	authService         *service.AuthService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "pinboard-server",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	// The session key lives only in this process; restarting invalidates
	// every outstanding session.
	sessions, err := session.NewManager(cfg.SessionTTL())
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}
	app.sessions = sessions

	app.limiter = httpx.NewRateLimiter(httpx.RateLimitConfig{
		Quota:             cfg.Server.RequestQuota,
		ReplenishInterval: cfg.ReplenishInterval(),
	})

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("pinboard server starting",
		"port", app.cfg.Server.Port,
		"driver", app.cfg.Database.Driver,
		"version", BuildVersion,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down pinboard server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("pinboard server stopped")
	return nil
}

// initDatabase opens the configured store driver and applies migrations
func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.Database.Driver {
	case "postgres":
		db, err = postgres.NewStore(postgres.Config{
			Host:     app.cfg.Database.IP,
			Port:     app.cfg.Database.Port,
			User:     app.cfg.Database.User,
			Password: app.cfg.Database.Password,
			Name:     app.cfg.Database.Name,
		})
	default:
		host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.Database.File)
		db, err = sqlite.NewStore(host)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store: app.db,
		Tracker: service.NewLoginAttemptTracker(
			app.cfg.AttemptWindow(),
			app.cfg.Server.LoginMaxAttemptsPerWindow,
		),
		Sessions: app.sessions,
		Policy: service.PasswordPolicy{
			MinLength: app.cfg.Server.PasswordMinLength,
			MaxLength: app.cfg.Server.PasswordMaxLength,
		},
	}

	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.authService.Tracker,
		app.limiter,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.limiter,
		app.sessions,
		httpapi.CookieConfig{
			Name:   app.cfg.Server.LoginCookieName,
			Secure: app.cfg.Server.LoginCookieSecure,
		},
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
