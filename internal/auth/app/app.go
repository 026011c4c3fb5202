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

	"github.com/wrenauth/wren/internal/auth/flow"
	httpapi "github.com/wrenauth/wren/internal/auth/http"
	"github.com/wrenauth/wren/internal/auth/service"
	"github.com/wrenauth/wren/internal/auth/store"
	"github.com/wrenauth/wren/internal/auth/store/drivers/sqlite"
	"github.com/wrenauth/wren/pkg/jwtx"
	"github.com/wrenauth/wren/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the authorization server with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	tokenService        *service.TokenService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "wren-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	if cfg.Env == "dev" {
		if err := app.seedDev(context.Background()); err != nil {
			app.logger.Warn("dev seeding failed", "error", err)
		}
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("authorization server starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down authorization server...")

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

	app.logger.Info("authorization server stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// NewTokenService assembles the token pipeline with its store-backed
// collaborators. It is the canonical wiring used by the server and by the
// end-to-end tests.
func NewTokenService(cfg Config, db store.Store, signer jwtx.Signer) *service.TokenService {
	handlers := &grantHandlers{users: db.Users()}

	ts := &service.TokenService{
		Tickets: db.Tickets(),
		Clients: &storeClientAuthenticator{clients: db.Clients()},
		Tokens: &jwtIssuer{
			signer: signer,
			issuer: cfg.Issuer,
			ttl:    cfg.AccessTokenTTL,
		},
		Events: flow.Events{
			Handle: handlers.handle,
		},
		Options: service.Options{
			Issuer:                 cfg.Issuer,
			AuthorizationCodeGrant: cfg.AuthorizationCodeGrant,
			AccessTokenTTL:         cfg.AccessTokenTTL,
			RefreshTokenTTL:        cfg.RefreshTokenTTL,
			IssueRefreshTokens:     cfg.IssueRefreshTokens,
		},
	}
	ts.RegisterGrant(GrantTypeOTP, validateOTPGrant)
	return ts
}

// initServices wires the token pipeline with its collaborators
func (app *Application) initServices() error {
	signer, err := NewEphemeralSigner()
	if err != nil {
		return fmt.Errorf("failed to initialize signing key: %w", err)
	}

	app.tokenService = NewTokenService(app.cfg, app.db, signer)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.tokenService, app.logger)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
