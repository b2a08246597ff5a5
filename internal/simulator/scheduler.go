package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Run emits one reading per schedule tick until ctx ends. schedule is any
// robfig/cron spec, e.g. "@every 30s" or "*/5 * * * *".
func Run(ctx context.Context, schedule string, sensor *Sensor, sink Sink, logger *slog.Logger) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		emit(ctx, sensor, sink, logger)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}

	logger.Info("simulator scheduled", "schedule", schedule, "sink", sink.Name())
	c.Start()
	<-ctx.Done()

	// Wait for an in-flight send before returning.
	<-c.Stop().Done()
	return ctx.Err()
}

func emit(ctx context.Context, sensor *Sensor, sink Sink, logger *slog.Logger) {
	r := sensor.Next()
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := sink.Send(sendCtx, r); err != nil {
		logger.Warn("reading not delivered", "sink", sink.Name(), "temperature", r.Temperature, "status", r.Status, "error", err)
		return
	}
	logger.Info("reading sent", "sink", sink.Name(), "temperature", r.Temperature, "status", r.Status)
}
