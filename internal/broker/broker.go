// Package broker runs an in-process MQTT broker for single-box deployments
// where sensors publish straight to the dashboard host.
package broker

import (
	"fmt"
	"log/slog"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

type Broker struct {
	server *mqtt.Server
	addr   string
	logger *slog.Logger
}

// New binds a TCP listener on addr. Call Start to accept clients.
func New(addr string, logger *slog.Logger) (*Broker, error) {
	server := mqtt.New(&mqtt.Options{
		Logger: logger.With("component", "mqtt-broker"),
	})

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("add auth hook: %w", err)
	}
	if err := server.AddHook(&connectionHook{logger: logger}, nil); err != nil {
		return nil, fmt.Errorf("add connection hook: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{
		ID:      "aquadash-tcp",
		Address: addr,
	})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	return &Broker{server: server, addr: addr, logger: logger}, nil
}

// Start begins serving clients. It does not block.
func (b *Broker) Start() error {
	if err := b.server.Serve(); err != nil {
		return fmt.Errorf("serve mqtt: %w", err)
	}
	b.logger.Info("mqtt broker listening", "addr", b.addr)
	return nil
}

func (b *Broker) Close() error {
	b.logger.Info("mqtt broker stopping")
	return b.server.Close()
}

type connectionHook struct {
	mqtt.HookBase
	logger *slog.Logger
}

func (h *connectionHook) ID() string {
	return "aquadash-connections"
}

func (h *connectionHook) Provides(b byte) bool {
	return b == mqtt.OnConnect || b == mqtt.OnDisconnect
}

func (h *connectionHook) OnConnect(cl *mqtt.Client, pk packets.Packet) error {
	h.logger.Debug("mqtt client connected", "client_id", cl.ID)
	return nil
}

func (h *connectionHook) OnDisconnect(cl *mqtt.Client, err error, expire bool) {
	h.logger.Debug("mqtt client disconnected", "client_id", cl.ID, "error", err)
}
