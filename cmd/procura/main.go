package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/procura/internal/bootstrap"
	"github.com/kirillkom/procura/internal/config"
	"github.com/kirillkom/procura/internal/observability/logging"
)

const serviceName = "procura-cli"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}, newApp)
	stop()
	os.Exit(code)
}

func newApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.NewConsoleLogger(serviceName, cfg.LogLevel)
	return bootstrap.New(ctx, cfg, logger, bootstrap.WithService(serviceName))
}
