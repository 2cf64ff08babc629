package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/parablehq/parable/pkg/allowlist"
	"github.com/parablehq/parable/pkg/api"
	"github.com/parablehq/parable/pkg/audit"
	"github.com/parablehq/parable/pkg/authz"
	"github.com/parablehq/parable/pkg/comments"
	"github.com/parablehq/parable/pkg/config"
	"github.com/parablehq/parable/pkg/middleware"
	"github.com/parablehq/parable/pkg/observability"
	"github.com/parablehq/parable/pkg/posts"
	"github.com/parablehq/parable/pkg/session"
	"github.com/parablehq/parable/pkg/users"
	"github.com/parablehq/parable/pkg/views"
)

func main() {
	envFile := flag.String("env-file", ".env", "Path to an optional env file")
	flag.Parse()

	// Missing env file is fine; real deployments set the environment directly.
	_ = godotenv.Load(*envFile)

	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger("info", os.Stderr).WithError(err).Fatal("invalid configuration")
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)

	for _, dir := range []string{cfg.Data.Dir, cfg.Data.PostsDir, cfg.Audit.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.WithError(err).Fatalf("failed to create directory %s", dir)
		}
	}

	userStore, err := users.NewFileStore(cfg.Data.Dir)
	if err != nil {
		logger.WithError(err).Fatal("failed to open user store")
	}
	postStore, err := posts.NewFileStore(cfg.Data.PostsDir)
	if err != nil {
		logger.WithError(err).Fatal("failed to open post store")
	}
	// Comments get their own subdirectory so per-post files can never
	// collide with users.json in the data root.
	commentStore, err := comments.NewFileStore(filepath.Join(cfg.Data.Dir, "comments"))
	if err != nil {
		logger.WithError(err).Fatal("failed to open comment store")
	}

	admins := allowlist.Parse(cfg.Auth.AdminEmails)
	if admins.Len() == 0 {
		logger.Warn("ADMIN_EMAILS is empty; no bootstrap admins configured")
	}
	resolver := authz.NewResolver(userStore, admins)
	manager := users.NewManager(userStore, resolver)

	auditLog, searcher, dbSink, err := buildAuditSinks(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize audit sinks")
	}
	defer auditLog.Close()

	retention := audit.NewRetention(audit.RetentionConfig{Days: cfg.Audit.RetentionDays}, cfg.Audit.LogDir, dbSink, logger)
	if err := retention.Start(); err != nil {
		logger.WithError(err).Fatal("failed to start audit retention")
	}
	defer retention.Stop()

	guard := authz.NewGuard(auditLog)

	var counter views.Counter = views.NopCounter{}
	if cfg.Redis.URL != "" {
		rc, err := views.NewRedisCounter(context.Background(), cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		counter = rc
		logger.WithField("addr", cfg.Redis.URL).Info("view counters backed by redis")
	}

	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	sessionStore := session.NewStore(cfg.Auth.SessionSecret, cfg.Auth.SessionMaxAge, secure)

	var authHandlers *session.Handlers
	if cfg.Auth.GoogleClientID != "" {
		provider, err := session.NewGoogleProvider(context.Background(),
			cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret,
			cfg.Server.BaseURL+"/auth/callback")
		if err != nil {
			logger.WithError(err).Fatal("failed to configure google sign-in")
		}
		authHandlers = session.NewHandlers(provider, sessionStore, manager, auditLog, logger)
	} else {
		logger.Warn("google sign-in not configured; running without /auth routes")
	}

	server := api.NewServer(api.Deps{
		Guard:    guard,
		Posts:    postStore,
		Comments: commentStore,
		Users:    manager,
		AuditLog: searcher,
		Views:    counter,
		Session:  middleware.NewSession(sessionStore, resolver),
		Auth:     authHandlers,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("parable listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown did not complete cleanly")
	}
	logger.Info("stopped")
}

// buildAuditSinks wires the file logger and, when configured, a sqlite sink
// behind a single fan-out logger. Search always prefers the DB sink.
func buildAuditSinks(cfg *config.Config, logger *observability.Logger) (audit.Logger, audit.Searcher, *audit.DBLogger, error) {
	fileLog, err := audit.NewFileLogger(audit.DefaultFileLoggerConfig(cfg.Audit.LogDir))
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Audit.DBPath == "" {
		return fileLog, fileLog, nil, nil
	}

	db, err := sql.Open("sqlite3", cfg.Audit.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	dbLog, err := audit.NewDBLogger(db)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.WithField("path", cfg.Audit.DBPath).Info("audit db sink enabled")
	return audit.NewMultiLogger(fileLog, dbLog), dbLog, dbLog, nil
}
