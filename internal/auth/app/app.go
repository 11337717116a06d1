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

	goredis "github.com/redis/go-redis/v9"

	"github.com/babili/authd/internal/auth/email"
	httpapi "github.com/babili/authd/internal/auth/http"
	"github.com/babili/authd/internal/auth/service"
	"github.com/babili/authd/internal/auth/store"
	"github.com/babili/authd/internal/auth/store/drivers/redis"
	"github.com/babili/authd/internal/auth/store/drivers/sqlite"
	"github.com/babili/authd/pkg/cryptox"
	"github.com/babili/authd/pkg/jwtx"
	"github.com/babili/authd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	tokens store.VerificationTokens // standalone token backend; nil when store-backed
	signer jwtx.Signer
	mailer email.Sender

	registrationService *service.RegistrationService
	verificationService *service.VerificationService
	loginService        *service.LoginService
	twoFactorService    *service.TwoFactorService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initTokenStore(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initSigner(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("authd starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down authd...")

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

	app.logger.Info("authd stopped")
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

// initTokenStore selects the verification token backend. Tokens are
// short-lived and safe to lose, so redis is a good fit when available;
// the sqlite store keeps single-binary deployments dependency-free.
func (app *Application) initTokenStore() error {
	switch app.cfg.TokenStore {
	case "", "sqlite":
		// Store-backed; the verification service keeps token writes
		// inside store transactions.
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr: app.cfg.RedisAddr,
			DB:   app.cfg.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", app.cfg.RedisAddr, err)
		}
		app.tokens = redis.NewTokenStore(client)
		app.logger.Info("using redis verification token store", "addr", app.cfg.RedisAddr)
	default:
		return fmt.Errorf("unknown token store backend %q", app.cfg.TokenStore)
	}
	return nil
}

// initSigner loads the Ed25519 signing key, or generates an ephemeral
// one when no key file is configured. Ephemeral keys invalidate all
// outstanding access tokens on restart.
func (app *Application) initSigner() error {
	if app.cfg.SigningKeyFile == "" {
		signer, err := jwtx.NewEphemeralSigner("authd-1")
		if err != nil {
			return fmt.Errorf("failed to generate signing key: %w", err)
		}
		app.signer = signer
		app.logger.Warn("using ephemeral signing key; tokens will not survive restarts")
		return nil
	}

	pemKey, err := os.ReadFile(app.cfg.SigningKeyFile)
	if err != nil {
		return fmt.Errorf("failed to read signing key file: %w", err)
	}
	signer, err := jwtx.NewSignerEdDSA("authd-1", pemKey)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}
	app.signer = signer
	return nil
}

// initMailer wires an SMTP sender when a relay is configured, and the
// logging sender otherwise.
func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.mailer = email.NewLogSender()
		app.logger.Warn("no SMTP relay configured; verification emails will be logged only")
		return
	}

	sender, err := email.NewSMTPSender(
		app.cfg.SMTPHost,
		app.cfg.SMTPPort,
		app.cfg.SMTPUsername,
		app.cfg.SMTPPassword,
		app.cfg.SMTPFrom,
		app.cfg.SMTPFromName,
		app.cfg.SMTPUseTLS,
	)
	if err != nil {
		app.logger.Error("invalid SMTP configuration; falling back to log sender", "error", err)
		app.mailer = email.NewLogSender()
		return
	}
	app.mailer = sender
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.verificationService = &service.VerificationService{
		Store:       app.db,
		Tokens:      app.tokens,
		Mailer:      app.mailer,
		AppName:     app.cfg.AppName,
		FrontendURL: app.cfg.FrontendURL,
		TokenTTL:    app.cfg.VerificationTTL,
	}

	app.registrationService = &service.RegistrationService{
		Store:        app.db,
		Verification: app.verificationService,
	}

	app.loginService = &service.LoginService{
		Store:     app.db,
		Signer:    app.signer,
		Issuer:    app.cfg.Issuer,
		AccessTTL: app.cfg.AccessTTL,
	}

	app.twoFactorService = &service.TwoFactorService{
		Store:  app.db,
		Issuer: app.cfg.AppName,
	}

	app.userService = &service.UserService{Store: app.db}

	housekeepingTokens := app.tokens
	if housekeepingTokens == nil {
		housekeepingTokens = app.db.VerificationTokens()
	}
	app.housekeepingService = service.NewHousekeepingService(
		housekeepingTokens,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	verifier := jwtx.NewVerifierEdDSA(app.signer.VerificationKeys(), app.cfg.Issuer)

	router := httpapi.NewRouter(
		verifier,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.RegistrationService = app.registrationService
	router.VerificationService = app.verificationService
	router.LoginService = app.loginService
	router.TwoFactorService = app.twoFactorService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
