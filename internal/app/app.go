package app

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

	httpapi "github.com/crowdwork/taskd/internal/http"
	"github.com/crowdwork/taskd/internal/mail"
	"github.com/crowdwork/taskd/internal/service"
	"github.com/crowdwork/taskd/internal/store"
	"github.com/crowdwork/taskd/internal/store/drivers/sqlite"
	"github.com/crowdwork/taskd/pkg/jwtx"
	"github.com/crowdwork/taskd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the whole service together: config, database, mail,
// services, HTTP server, and background housekeeping.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	session *jwtx.HS256
	mailer  mail.Mailer

	tokenService        *service.TokenService
	authService         *service.AuthService
	projectService      *service.ProjectService
	taskService         *service.TaskService
	noteService         *service.NoteService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "taskd",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.SessionSecret == "" {
		return nil, errors.New("TASKD_SESSION_SECRET must be set")
	}
	session, err := jwtx.NewHS256([]byte(cfg.SessionSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session signer: %w", err)
	}
	app.session = session

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("taskd starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown stops the HTTP server, housekeeping and database in order.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down taskd...")

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

	app.logger.Info("taskd stopped")
	return nil
}

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

func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("no SMTP host configured, emails go to the log only")
		app.mailer = mail.NewLogMailer(app.logger)
		return
	}

	app.mailer = mail.NewSMTPMailer(mail.SMTPConfig{
		Host:        app.cfg.SMTPHost,
		Port:        app.cfg.SMTPPort,
		User:        app.cfg.SMTPUser,
		Password:    app.cfg.SMTPPassword,
		From:        app.cfg.EmailFrom,
		FrontendURL: app.cfg.FrontendURL,
	})
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store: app.db,
		TTL:   app.cfg.TokenTTL,
	}

	app.authService = &service.AuthService{
		Store:      app.db,
		Tokens:     app.tokenService,
		Signer:     app.session,
		Mailer:     app.mailer,
		Logger:     app.logger,
		Issuer:     app.cfg.Issuer,
		SessionTTL: app.cfg.SessionTTL,
	}

	app.projectService = &service.ProjectService{Store: app.db}
	app.taskService = &service.TaskService{Store: app.db}
	app.noteService = &service.NoteService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.session,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.ProjectService = app.projectService
	router.TaskService = app.taskService
	router.NoteService = app.noteService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
