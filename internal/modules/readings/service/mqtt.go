package service

import (
	"context"
	"log/slog"

	"aquadash/internal/metrics"
	"aquadash/internal/mqtt"
)

// RegisterMQTT stores readings published by sensors. Invalid payloads are
// logged and dropped; there is no one to send field errors back to.
func (s *Service) RegisterMQTT(subscriber mqtt.MQTTSubscriber, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(ctx context.Context, topic string, payload []byte) error {
		logger.Debug("processing reading message", "topic", topic)

		rec, fieldErrs, err := s.Ingest(ctx, payload, metrics.SourceMQTT)
		if err != nil {
			return err
		}
		if fieldErrs != nil {
			logger.Warn("invalid reading message",
				"topic", topic,
				"error", fieldErrs.Error(),
				"payload", string(payload),
			)
			return nil
		}

		logger.Debug("stored reading",
			"topic", topic,
			"id", rec.ID,
			"temperature", rec.Temperature,
			"status", rec.Status.String(),
		)
		return nil
	})
}
