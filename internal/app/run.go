package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"aquadash/internal/broker"
	"aquadash/internal/config"
	"aquadash/internal/db"
	"aquadash/internal/httpapi"
	"aquadash/internal/metrics"
	"aquadash/internal/migrate"
	"aquadash/internal/modules/readings"
	"aquadash/internal/modules/readings/repository"
	"aquadash/internal/modules/readings/service"
	"aquadash/internal/modules/readings/views"
	"aquadash/internal/mqtt"
)

// DialRepository opens the store selected by cfg.Driver and returns a ready
// repository. SQLite schemas are migrated on open.
func DialRepository(ctx context.Context, cfg config.Config) (repository.ReadingRepository, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, database, err := db.OpenMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewMongoRepository(ctx, database)
		if err != nil {
			_ = client.Disconnect(context.WithoutCancel(ctx))
			return nil, err
		}
		return repo, nil
	case config.DriverSQLite:
		dbConn, err := db.OpenSQLite(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := migrate.Run(ctx, dbConn); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		repo, err := repository.NewSQLiteRepository(ctx, dbConn)
		if err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"driver", cfg.Driver,
		"maxOpenConns", cfg.MaxOpenConns,
		"maxIdleConns", cfg.MaxIdleConns,
		"connMaxLifetime", cfg.ConnMaxLifetime,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"mqttEmbeddedBroker", cfg.MQTTEmbeddedBroker,
		"metricsEnabled", cfg.MetricsEnabled,
	)

	connector := db.NewConnector(func(ctx context.Context) (repository.ReadingRepository, error) {
		slog.Info("connecting to database", "driver", cfg.Driver)
		return DialRepository(ctx, cfg)
	}, func(repo repository.ReadingRepository) error {
		return repo.Close()
	})
	defer func() {
		if err := connector.Close(); err != nil {
			slog.Error("db close", "error", err)
		}
	}()

	// Warm the connection so the first request does not pay for the dial. A
	// failure here is not fatal: the next request retries.
	warmCtx, warmCancel := context.WithTimeout(ctx, 10*time.Second)
	if _, err := connector.Acquire(warmCtx); err != nil {
		slog.Warn("database not reachable at startup (will retry on demand)", "error", err)
	} else {
		slog.Info("database connection successful")
	}
	warmCancel()

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	if cfg.MQTTEmbeddedBroker {
		b, err := broker.New(cfg.MQTTEmbeddedAddr, slog.Default())
		if err != nil {
			return err
		}
		if err := b.Start(); err != nil {
			return err
		}
		defer func() {
			if err := b.Close(); err != nil {
				slog.Error("mqtt broker close", "error", err)
			}
		}()
	}

	readingsService := service.NewService(connector, m)
	mux := httpapi.NewMux(readingsService.Ping, m)

	// Set the MQTT handler before Connect: the broker may deliver queued
	// messages right after SUBACK.
	var mqttSubscriber *mqtt.Subscriber
	if cfg.MQTTEnabled {
		mqttSubscriber = mqtt.NewSubscriber(cfg, slog.Default())
		readings.RegisterFeature(mux, readingsService, mqttSubscriber, time.Local, slog.Default())

		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err := mqttSubscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			// Keep serving HTTP when the broker is unavailable.
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	} else {
		readings.RegisterFeature(mux, readingsService, nil, time.Local, slog.Default())
	}

	srv := httpapi.NewServer(cfg, mux, m)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mqttSubscriber != nil {
		slog.Info("mqtt disconnecting")
		mqttSubscriber.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err := <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
