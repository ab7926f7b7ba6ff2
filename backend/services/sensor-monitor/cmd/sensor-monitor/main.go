package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sensormonitor/backend/libs/logging"
	"sensormonitor/backend/services/sensor-monitor/internal/app"
	"sensormonitor/backend/services/sensor-monitor/internal/config"
)

func main() {
	host := flag.String("host", "", "host to bind to (overrides config, default 0.0.0.0)")
	port := flag.String("port", "", "port to listen on (overrides config, default 8080)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if *host != "" {
		cfg.HTTP.Host = *host
	}
	if *port != "" {
		cfg.HTTP.Port = *port
	}

	logger, err := logging.NewLogger(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init application", zap.Error(err))
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("application stopped with error", zap.Error(err))
	}
	logger.Info("server stopped")
}
