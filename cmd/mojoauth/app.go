package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mojoplatform/mojoauth/internal/db"
	"github.com/mojoplatform/mojoauth/internal/handlers"
	"github.com/mojoplatform/mojoauth/internal/logger"
	"github.com/mojoplatform/mojoauth/internal/mailer"
	"github.com/mojoplatform/mojoauth/internal/repository/postgres"
	"github.com/mojoplatform/mojoauth/internal/service/auth"
	"github.com/mojoplatform/mojoauth/internal/service/auth/tokenmanager"
	"github.com/mojoplatform/mojoauth/internal/service/janitor"
	"github.com/mojoplatform/mojoauth/internal/service/user"
	"github.com/mojoplatform/mojoauth/internal/service/verification"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Janitor    *janitor.Janitor
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	log := newLogger(c)

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	codeManager, err := verification.New(verification.Config{}, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating verification manager. Err: %w", err)
	}

	// Mailer is needed only when login requires the emailed code
	var codeMailer auth.Mailer
	if c.RequireEmailVerification {
		codeMailer, err = mailer.New(mailer.Config{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
		})
		if err != nil {
			return nil, fmt.Errorf("error while creating mailer. Err: %w", err)
		}
	}

	authService, err := auth.NewService(auth.Config{
		RequireEmailVerification: c.RequireEmailVerification,
		Logger:                   log,
	}, tokenManager, codeManager, codeMailer, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	userService := user.NewService(auth.DefaultHasher, storage)

	mux := handlers.NewRouter(authService, userService, log)

	// Blacklist entries outlive the longest token they may guard
	var retention time.Duration
	if c.RefreshTokenTTL != 0 {
		retention = c.RefreshTokenTTL + 24*time.Hour
	}
	cleaner := janitor.New(janitor.Config{Retention: retention, Logger: log}, storage)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Janitor:    cleaner,
	}, nil
}

// Prod environment logs json, everything else is plain text
func newLogger(c *Config) logger.Logger {
	if c.Environment == "prod" {
		return logger.NewJSONLogger(c.LogLevel)
	}
	return logger.NewLogger(c.LogLevel)
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	janitorStopped := s.Janitor.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-janitorStopped

	return err
}
