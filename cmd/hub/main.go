package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-hub/config"
	"smart-hub/internal/device"
	"smart-hub/internal/domain"
	"smart-hub/internal/hub"
	"smart-hub/internal/infra"
	"smart-hub/internal/infra/deviceapi"
	"smart-hub/internal/infra/hubapi"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	timeout := parseDurationOr(logger, cfg.Transport.Timeout, 5*time.Second)
	retryDelay := parseDurationOr(logger, cfg.Transport.RetryDelay, 100*time.Millisecond)
	statusRetry := infra.RetryConfig{
		Attempts: cfg.Transport.StatusRetries,
		Delay:    retryDelay,
		MaxDelay: 2 * time.Second,
	}

	registry := hub.New(logger)
	controller := hub.NewController(registry, logger)

	for _, dc := range cfg.Devices {
		typ := domain.DeviceType(dc.Type)
		if !typ.Known() {
			logger.Warn("skipping device with unknown type", "device", dc.ID, "type", dc.Type)
			continue
		}

		var d domain.Device = deviceapi.NewClient(deviceapi.ClientConfig{
			ID:          dc.ID,
			Type:        typ,
			BaseURL:     fmt.Sprintf("http://%s:%d", dc.Host, dc.Port),
			Timeout:     timeout,
			StatusRetry: statusRetry,
		})
		if dc.LogActions {
			d = device.NewLogging(d, logger)
		}
		controller.Register(d)
	}

	api := hubapi.NewServer(controller, logger, hubapi.Options{
		RateLimit:     cfg.Hub.RateLimit,
		DeviceTimeout: timeout,
		StatusRetry:   statusRetry,
	})
	if err := api.Start(cfg.Hub.ListenAddr); err != nil {
		logger.Error("starting hub API", "error", err)
		os.Exit(1)
	}

	logger.Info("hub ready",
		"addr", cfg.Hub.ListenAddr,
		"devices", len(cfg.Devices),
	)

	<-ctx.Done()

	if err := api.Stop(); err != nil {
		logger.Error("stopping hub API", "error", err)
		os.Exit(1)
	}
}

func parseDurationOr(logger *slog.Logger, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("invalid duration, using default", "value", value, "default", fallback)
		return fallback
	}
	return d
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
