package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/procura/internal/adapters/http"
	"github.com/kirillkom/procura/internal/bootstrap"
	"github.com/kirillkom/procura/internal/config"
	"github.com/kirillkom/procura/internal/observability/logging"
	"github.com/kirillkom/procura/internal/observability/metrics"
)

const serviceName = "procura-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.WithService(serviceName))
	if err != nil {
		logger.Fatal("bootstrap_failed", zap.Error(err))
	}
	defer app.Close()

	router, err := httpadapter.NewRouter(
		cfg,
		app.Pipeline,
		metrics.NewHTTPServerMetrics(serviceName, app.Registry),
		logger.Named("http"),
		httpadapter.WithBreakerStates(app.Executor.States),
	)
	if err != nil {
		logger.Fatal("router_init_failed", zap.Error(err))
	}

	listener, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		logger.Fatal("listen_failed", zap.String("port", cfg.APIPort), zap.Error(err))
	}
	listener = netutil.LimitListener(listener, cfg.MaxConnections)

	server := &http.Server{
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", zap.String("port", cfg.APIPort), zap.Int("max_connections", cfg.MaxConnections))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api_server_failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", zap.Error(err))
	}
}
