package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aquadash/internal/config"
	"aquadash/internal/logging"
	"aquadash/internal/mqtt"
	"aquadash/internal/simulator"
	"aquadash/pkg/client"
)

const appName = "aquadash-simulator"

// version is "dev" unless set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := simulator.LoadConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	level, err := config.ParseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(level, envOr("APP_ENV", "dev"), version, appName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
	slog.Info("shutting down")
}

func run(ctx context.Context, cfg simulator.Config) error {
	var sink simulator.Sink
	switch cfg.Transport {
	case simulator.TransportMQTT:
		pub := mqtt.NewPublisher(mqtt.Options{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
		}, slog.Default())

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := pub.Connect(connectCtx)
		cancel()
		if err != nil {
			return err
		}
		defer pub.Disconnect()
		sink = simulator.NewMQTTSink(pub, cfg.MQTTTopic)
	default:
		c, err := client.New(cfg.ServerURL)
		if err != nil {
			return err
		}
		sink = simulator.NewHTTPSink(c)
	}

	sensor := simulator.NewSensor(cfg.Start, simulator.Thermostat{Target: cfg.Target, Band: cfg.Band}, cfg.Step, uint64(time.Now().UnixNano()))
	return simulator.Run(ctx, cfg.Schedule, sensor, sink, slog.Default())
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
