package simulator

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	TransportHTTP = "http"
	TransportMQTT = "mqtt"
)

type Config struct {
	Transport string
	Schedule  string
	ServerURL string

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string

	Start  float64
	Target float64
	Band   float64
	Step   float64
}

func LoadConfigFromEnv() (Config, error) {
	cfg := Config{
		Transport:    envOr("SIM_TRANSPORT", TransportHTTP),
		Schedule:     envOr("SIM_SCHEDULE", "@every 30s"),
		ServerURL:    envOr("AQUADASH_URL", "http://localhost:8080"),
		MQTTBroker:   envOr("MQTT_BROKER", "localhost"),
		MQTTClientID: envOr("MQTT_CLIENT_ID", "aquadash-simulator"),
		MQTTTopic:    envOr("MQTT_TOPIC", "aquarium/tank-1/readings"),
	}

	switch cfg.Transport {
	case TransportHTTP, TransportMQTT:
	default:
		return Config{}, fmt.Errorf("invalid SIM_TRANSPORT %q (allowed: http, mqtt)", cfg.Transport)
	}
	if strings.ContainsAny(cfg.MQTTTopic, "+#") {
		return Config{}, fmt.Errorf("invalid MQTT_TOPIC %q: wildcards cannot be published to", cfg.MQTTTopic)
	}

	var err error
	if cfg.MQTTPort, err = intEnv("MQTT_PORT", 1883); err != nil {
		return Config{}, err
	}
	if cfg.Start, err = floatEnv("SIM_START_TEMP", 25); err != nil {
		return Config{}, err
	}
	if cfg.Target, err = floatEnv("SIM_TARGET_TEMP", 25); err != nil {
		return Config{}, err
	}
	if cfg.Band, err = floatEnv("SIM_BAND", 0.5); err != nil {
		return Config{}, err
	}
	if cfg.Step, err = floatEnv("SIM_STEP", 0.2); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func intEnv(name string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return n, nil
}

func floatEnv(name string, def float64) (float64, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return f, nil
}
