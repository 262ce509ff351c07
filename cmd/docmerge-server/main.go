// Command docmerge-server exposes the merge pipeline over HTTP.
//
// Endpoints:
//
//	POST /api/merge        multipart upload, returns the merge descriptor
//	GET  /api/status       resource snapshot
//	GET  /downloads/:name  serves a finished artifact
//	GET  /health           liveness check
package main

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

	"github.com/gin-gonic/gin"
	_ "go.uber.org/automaxprocs"

	docmerge "github.com/alnah/go-docmerge"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 15 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("config", "error", err)
		return 1
	}

	merger, err := docmerge.NewMerger(append(cfg.Options(), docmerge.WithLogger(logger))...)
	if err != nil {
		logger.Error("initializing merger", "error", err)
		return 1
	}

	srv := &server{
		merger:    merger,
		logger:    logger,
		uploadDir: cfg.Dirs.Uploads,
		outputDir: cfg.Dirs.Output,
	}
	if err := os.MkdirAll(srv.uploadDir, 0o750); err != nil {
		logger.Error("creating upload dir", "error", err)
		return 1
	}

	addr := os.Getenv("DOCMERGE_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	srv.registerRoutes(router)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "error", err)
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
			return 1
		}
	}
	return 0
}

func loadConfig(logger *slog.Logger) (docmerge.Config, error) {
	path := os.Getenv("DOCMERGE_CONFIG")
	if path == "" {
		cfg := docmerge.DefaultConfig()
		cfg.ApplyEnv()
		return cfg, nil
	}

	cfg, err := docmerge.LoadConfig(path)
	if err != nil {
		if errors.Is(err, docmerge.ErrConfigNotFound) {
			return cfg, fmt.Errorf("DOCMERGE_CONFIG points to missing file: %w", err)
		}
		return cfg, err
	}
	logger.Info("config loaded", "path", path)
	cfg.ApplyEnv()
	return cfg, nil
}

// requestLogger logs one line per request in the service's slog format
// instead of gin's default writer.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
