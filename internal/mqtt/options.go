package mqtt

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Options identifies a broker connection.
type Options struct {
	Broker   string
	Port     int
	ClientID string
}

// uniqueClientID appends a short random suffix so several instances can share
// a broker without kicking each other off.
func uniqueClientID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func newClientOptions(o Options, logger *slog.Logger, onConnect func(), onLost func()) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", o.Broker, o.Port))
	opts.SetClientID(uniqueClientID(o.ClientID))

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		onConnect()
		logger.Info("mqtt connected", "broker", o.Broker, "port", o.Port)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		onLost()
		logger.Warn("mqtt connection lost", "error", err)
	})
	return opts
}
