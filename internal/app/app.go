// Package app assembles the service: config, logger, store, services,
// mail dispatcher and HTTP server with graceful shutdown.
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

	httpapi "github.com/itas-team/itas/internal/http"
	"github.com/itas-team/itas/internal/mail"
	"github.com/itas-team/itas/internal/service"
	"github.com/itas-team/itas/internal/store"
	"github.com/itas-team/itas/internal/store/drivers/sqlite"
	"github.com/itas-team/itas/pkg/jwtx"
	"github.com/itas-team/itas/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	dispatcher *mail.Dispatcher

	tokenService        *service.TokenService
	authService         *service.AuthService
	twoFAService        *service.TwoFAService
	roleService         *service.RoleActionService
	taskService         *service.TaskService
	dailyLogService     *service.DailyLogService
	supportService      *service.SupportService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "itas",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.Env != "dev" {
		if weak := cfg.DevSecrets(); len(weak) > 0 {
			app.logger.Warn("signing secrets are still the dev defaults, set them before going live",
				"env", cfg.Env, "secrets", weak)
		}
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("itas starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown drains in-flight requests, stops the background workers and
// closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down itas...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.dispatcher.Shutdown(ctx); err != nil {
		app.logger.Error("mail dispatcher shutdown timed out", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("itas stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
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

func (app *Application) initServices() error {
	signer := func(kind jwtx.Kind, secret string, ttl time.Duration) (*jwtx.Signer, error) {
		return jwtx.NewSigner(kind, []byte(secret), app.cfg.Issuer, ttl)
	}

	access, err := signer(jwtx.KindAccess, app.cfg.AccessSecret, app.cfg.AccessTTL)
	if err != nil {
		return fmt.Errorf("failed to build access signer: %w", err)
	}
	refresh, err := signer(jwtx.KindRefresh, app.cfg.RefreshSecret, app.cfg.RefreshTTL)
	if err != nil {
		return fmt.Errorf("failed to build refresh signer: %w", err)
	}
	stage, err := signer(jwtx.KindStage, app.cfg.StageSecret, 0)
	if err != nil {
		return fmt.Errorf("failed to build stage signer: %w", err)
	}
	action, err := signer(jwtx.KindAction, app.cfg.ActionSecret, app.cfg.ActionTTL)
	if err != nil {
		return fmt.Errorf("failed to build action signer: %w", err)
	}

	app.tokenService = &service.TokenService{
		Access:  access,
		Refresh: refresh,
		Stage:   stage,
		Action:  action,
	}

	var sender mail.Sender
	if app.cfg.SMTPHost != "" {
		smtp, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUser,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.SMTPFrom,
			StartTLS: app.cfg.SMTPStartTLS,
		})
		if err != nil {
			return fmt.Errorf("failed to build SMTP mailer: %w", err)
		}
		sender = smtp
	} else {
		app.logger.Warn("SMTP_HOST not set, mail will only be logged")
		sender = &mail.LogMailer{Log: app.logger}
	}
	app.dispatcher = mail.NewDispatcher(sender, app.logger)

	app.taskService = &service.TaskService{Store: app.db}
	app.dailyLogService = &service.DailyLogService{Store: app.db}

	app.authService = &service.AuthService{
		Store:    app.db,
		Tokens:   app.tokenService,
		Notify:   app.dispatcher,
		Log:      app.logger,
		Seed:     app.taskService,
		BaseURL:  app.cfg.BaseURL,
		Reviewer: app.cfg.ReviewerEmail,
	}
	app.twoFAService = &service.TwoFAService{
		Store:  app.db,
		Issuer: "ITAS",
	}
	app.roleService = &service.RoleActionService{
		Store:  app.db,
		Tokens: app.tokenService,
		Notify: app.dispatcher,
		Log:    app.logger,
	}
	app.supportService = &service.SupportService{
		Notify:  app.dispatcher,
		Mailbox: app.cfg.SupportEmail,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokenService.Access,
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.AllowedOrigins,
	)

	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.TwoFAService = app.twoFAService
	router.RoleService = app.roleService
	router.TaskService = app.taskService
	router.DailyLogService = app.dailyLogService
	router.SupportService = app.supportService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
