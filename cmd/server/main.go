// Package main provides the entry point for the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	appConfig "github.com/festy23/reviewdesk/internal/config"
	dbConfig "github.com/festy23/reviewdesk/internal/database/config"
	"github.com/festy23/reviewdesk/internal/database/database"
	"github.com/festy23/reviewdesk/internal/database/migrate"
	"github.com/festy23/reviewdesk/internal/server"
	"github.com/festy23/reviewdesk/pkg/logger"
)

const sessionPurgeInterval = time.Hour

func main() {
	cfg := appConfig.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zapLogger, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	gin.SetMode(cfg.GinMode)

	dbCfg := dbConfig.LoadConfigFromEnv()
	db, err := database.NewWithConfig(dbCfg, zapLogger)
	if err != nil {
		zapLogger.Fatalw("failed to connect to database", "error", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			zapLogger.Errorw("failed to close database", "error", err)
		}
	}()

	if err := migrate.Run(db, dbCfg.Driver); err != nil {
		zapLogger.Fatalw("failed to run migrations", "error", err)
	}

	srv, err := server.New(cfg, db, zapLogger)
	if err != nil {
		zapLogger.Fatalw("failed to assemble server", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.PurgeSessions(ctx, sessionPurgeInterval)

	httpServer := cfg.Server.HTTPServer(srv.Engine)

	go func() {
		zapLogger.Infow("server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	zapLogger.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Errorw("http shutdown failed", "error", err)
	}

	// Pending emails are sent only after no request can enqueue more.
	if err := srv.Queue.Shutdown(cfg.Dispatch.ShutdownTimeout); err != nil {
		zapLogger.Warnw("dispatch queue shutdown", "error", err)
	}
}
