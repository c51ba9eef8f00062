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

	httpapi "github.com/keyfold/keyfold/internal/auth/http"
	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/internal/auth/store"
	"github.com/keyfold/keyfold/internal/auth/store/drivers/memory"
	"github.com/keyfold/keyfold/internal/auth/store/drivers/redis"
	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/keyfold/keyfold/pkg/jwtx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the authorization server with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         *store.Store
	keyManager *jwtx.KeyManager

	// Services
	tokenService     *service.TokenService
	authorizeService *service.AuthorizeService
	clientService    *service.ClientService
	userService      *service.UserService
	apiTokenService  *service.APITokenService
	rateLimitService *service.RateLimitService
	discoveryService *service.DiscoveryService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "keyfold",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for secret hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	app.initStore()

	// Initialize JWT key manager (after the store for persistent mode)
	ctx := context.Background()
	keyManager, err := InitAuthKeys(ctx, app.cfg, app.db, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("keyfold starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down keyfold...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("keyfold stopped")
	return nil
}

// initStore wires the KV layers: Redis primary when configured, always with
// the in-process fallback behind the failover decorator.
func (app *Application) initStore() {
	fallback := memory.New()

	var primary store.KV
	if app.cfg.RedisAddr != "" {
		primary = redis.New(redis.Config{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		app.logger.Info("redis store configured", "addr", app.cfg.RedisAddr, "db", app.cfg.RedisDB)
	} else {
		app.logger.Warn("no redis configured, running on the in-process store only")
	}

	app.db = store.New(store.NewFailover(primary, fallback, app.logger))
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		KeyManager: app.keyManager,
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTokenTTL,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.authorizeService = &service.AuthorizeService{
		Store:   app.db,
		CodeTTL: app.cfg.CodeTTL,
	}

	app.clientService = &service.ClientService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}

	app.apiTokenService = &service.APITokenService{
		Store:                 app.db,
		DefaultLimitPerMinute: app.cfg.DefaultLimitPerMinute,
		DefaultLimitPerHour:   app.cfg.DefaultLimitPerHour,
		DefaultLimitPerDay:    app.cfg.DefaultLimitPerDay,
	}

	app.rateLimitService = &service.RateLimitService{Store: app.db}

	app.discoveryService = &service.DiscoveryService{
		Issuer:      app.cfg.Issuer,
		SigningAlgs: []string{app.keyManager.Algorithm()},
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.AuthorizeService = app.authorizeService
	router.ClientService = app.clientService
	router.UserService = app.userService
	router.APITokenService = app.apiTokenService
	router.RateLimitService = app.rateLimitService
	router.DiscoveryService = app.discoveryService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
