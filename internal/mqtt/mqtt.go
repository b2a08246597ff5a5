package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aquadash/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MessageHandler processes one raw message. A returned error is logged.
type MessageHandler func(ctx context.Context, topic string, payload []byte) error

type Subscriber struct {
	client     mqtt.Client
	topic      string
	logger     *slog.Logger
	mu         sync.RWMutex
	connected  bool
	subscribed bool

	stopCh   chan struct{}
	stopOnce sync.Once

	handlerMu sync.RWMutex
	handler   MessageHandler
}

// MQTTSubscriber interface for attaching message handlers
type MQTTSubscriber interface {
	SetMessageHandler(handler MessageHandler)
}

// SetMessageHandler sets the handler for incoming messages. Set it before
// Connect; messages that arrive with no handler are dropped.
func (s *Subscriber) SetMessageHandler(handler MessageHandler) {
	s.handlerMu.Lock()
	s.handler = handler
	s.handlerMu.Unlock()
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		topic:  cfg.MQTTTopic,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := newClientOptions(Options{
		Broker:   cfg.MQTTBroker,
		Port:     cfg.MQTTPort,
		ClientID: cfg.MQTTClientID,
	}, logger, s.onConnect, func() { s.setConnected(false) })

	s.client = mqtt.NewClient(opts)
	return s
}

// onConnect runs on every (re)connect. Clean sessions drop subscriptions, so
// after the first successful Connect the topic is subscribed again here.
func (s *Subscriber) onConnect() {
	s.setConnected(true)

	s.mu.RLock()
	resubscribe := s.subscribed
	s.mu.RUnlock()
	if !resubscribe {
		return
	}
	if err := s.subscribe(); err != nil {
		s.logger.Error("mqtt resubscribe failed", "topic", s.topic, "error", err)
	}
}

// Connect establishes connection to the MQTT broker and subscribes to the configured topic.
func (s *Subscriber) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	select {
	case <-s.stopCh:
		return fmt.Errorf("subscriber stopped")
	default:
	}

	// Fast path.
	if s.IsConnected() {
		return nil
	}

	// Start connect attempt.
	token := s.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			break
		}

		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return fmt.Errorf("subscriber stopped")
		default:
		}
	}

	if err := s.subscribe(); err != nil {
		s.client.Disconnect(0)
		return fmt.Errorf("subscribe: %w", err)
	}

	s.mu.Lock()
	s.subscribed = true
	s.mu.Unlock()
	return nil
}

func (s *Subscriber) subscribe() error {
	if !s.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	qos := byte(1) // At least once delivery

	token := s.client.Subscribe(s.topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", s.topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, token.Error())
	}

	s.logger.Info("subscribed to mqtt topic", "topic", s.topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	s.handlerMu.RLock()
	handler := s.handler
	s.handlerMu.RUnlock()
	if handler == nil {
		s.logger.Warn("no mqtt message handler set, dropping message", "topic", topic)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := handler(ctx, topic, payload); err != nil {
		s.logger.Error("message handler failed",
			"topic", topic,
			"error", err,
		)
	}
}

// IsConnected returns whether the client is connected.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (s *Subscriber) Disconnect() {
	// Signal shutdown once (unblocks any Connect loops).
	s.stopOnce.Do(func() { close(s.stopCh) })

	// Unsubscribe before disconnecting
	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.topic)
		token.WaitTimeout(2 * time.Second)
	}

	// Disconnect without holding s.mu to avoid lock contention/deadlocks.
	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.mu.Lock()
	s.connected = false
	s.subscribed = false
	s.mu.Unlock()
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
