package simulator

import (
	"context"
	"fmt"

	"aquadash/pkg/client"
)

// Sink delivers a reading to the dashboard.
type Sink interface {
	Send(ctx context.Context, r Reading) error
	Name() string
}

type HTTPSink struct {
	logs *client.LogService
}

func NewHTTPSink(c *client.Client) *HTTPSink {
	return &HTTPSink{logs: c.Logs()}
}

func (s *HTTPSink) Name() string { return "http" }

func (s *HTTPSink) Send(ctx context.Context, r Reading) error {
	_, err := s.logs.Create(ctx, client.LogInput{Temperature: r.Temperature, Status: r.Status})
	return err
}

// JSONPublisher is the subset of mqtt.Publisher the MQTT sink needs.
type JSONPublisher interface {
	PublishJSON(topic string, v any) error
}

type MQTTSink struct {
	pub   JSONPublisher
	topic string
}

func NewMQTTSink(pub JSONPublisher, topic string) *MQTTSink {
	return &MQTTSink{pub: pub, topic: topic}
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Send(ctx context.Context, r Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.pub.PublishJSON(s.topic, r); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	return nil
}
