package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"smart-hub/internal/device"
	"smart-hub/internal/domain"
	"smart-hub/internal/infra/deviceapi"
)

func main() {
	var (
		typ      = flag.String("type", "", "device type: smart_speaker, smart_light or smart_curtains")
		id       = flag.String("id", "", "device id, unique within the hub")
		host     = flag.String("host", "127.0.0.1", "listen host")
		port     = flag.Int("port", 8101, "listen port")
		logLevel = flag.String("log-level", "info", "log level: debug, info, warn or error")
	)
	flag.Parse()

	logger := setupLogger(*logLevel)

	if *id == "" {
		logger.Error("device id is required")
		os.Exit(1)
	}

	var d domain.Device
	switch domain.DeviceType(*typ) {
	case domain.TypeSpeaker:
		d = device.NewSpeaker(*id, *host, *port)
	case domain.TypeLight:
		d = device.NewLight(*id, *host, *port)
	case domain.TypeCurtains:
		d = device.NewCurtains(*id, *host, *port)
	default:
		logger.Error("unknown device type", "type", *typ)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down", "device", *id)
		cancel()
	}()

	server := deviceapi.NewServer(d, logger)
	if err := server.Start(fmt.Sprintf("%s:%d", *host, *port)); err != nil {
		logger.Error("starting device server", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		logger.Error("stopping device server", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
