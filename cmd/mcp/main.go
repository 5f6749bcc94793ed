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

	"go.uber.org/zap"

	mcpadapter "github.com/kirillkom/procura/internal/adapters/mcp"
	"github.com/kirillkom/procura/internal/bootstrap"
	"github.com/kirillkom/procura/internal/config"
	"github.com/kirillkom/procura/internal/observability/logging"
	"github.com/kirillkom/procura/internal/observability/metrics"
)

const (
	serviceName = "procura-mcp"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// stdout carries the protocol.
	logger := logging.NewConsoleLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.WithService(serviceName))
	if err != nil {
		logger.Fatal("bootstrap_failed", zap.Error(err))
	}
	defer app.Close()

	if cfg.MetricsPort != "" {
		metricsServer := &http.Server{
			Addr:              ":" + cfg.MetricsPort,
			Handler:           metrics.Handler(app.Registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics_listening", zap.String("port", cfg.MetricsPort))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics_server_failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	srv := mcpadapter.NewServer(app.Pipeline, version, logger.Named("mcp"))
	logger.Info("mcp_serving_stdio")
	if err := srv.ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", zap.Error(err))
	}
}
