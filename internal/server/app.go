// Package server assembles the TextDrive server: it prepares the database,
// runs migrations, provisions the administrator account and serves the HTTP
// API until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/textdrive/internal/logging"
	"github.com/dmitrijs2005/textdrive/internal/server/auth"
	"github.com/dmitrijs2005/textdrive/internal/server/bootstrap"
	"github.com/dmitrijs2005/textdrive/internal/server/config"
	"github.com/dmitrijs2005/textdrive/internal/server/httpapi"
	"github.com/dmitrijs2005/textdrive/internal/server/oauth"
	"github.com/dmitrijs2005/textdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/textdrive/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const readinessInterval = 500 * time.Millisecond

// ensureDatabase is replaced in tests.
var ensureDatabase = bootstrap.EnsureDatabase

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	services httpapi.Services
}

// NewApp connects to PostgreSQL (creating the database when missing),
// migrates the schema and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if err := ensureDatabase(ctx, c.DatabaseDSN, c.MaintenanceDSN, logger); err != nil {
		return nil, fmt.Errorf("db bootstrap error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := bootstrap.WaitReady(ctx, db, c.BootstrapTimeout, readinessInterval); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db not ready: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.TokenIssuer, c.AccessTokenValidityDuration)
	us := services.NewUserService(db, rm, tokens)

	if c.SystemUserPassword != "" {
		u, created, err := us.EnsureSystemUser(ctx, c.SystemUserName, c.SystemUserPassword)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("system user: %w", err)
		}
		if created {
			logger.Info(ctx, "system user created", "user_id", u.ID, "username", u.UserName)
		}
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		services: httpapi.Services{
			Users:     us,
			Folders:   services.NewFolderService(db, rm),
			Files:     services.NewFileService(db, rm),
			Providers: providers(c),
		},
	}, nil
}

func providers(c *config.Config) oauth.Registry {
	if c.GitHubClientID == "" {
		return oauth.NewRegistry()
	}
	redirect := strings.TrimRight(c.OAuthRedirectBaseURL, "/") + "/login/oauth2/code/github"
	return oauth.NewRegistry(oauth.NewGitHubProvider(c.GitHubClientID, c.GitHubClientSecret, redirect))
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.services, app.config.AllowedOrigins)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
