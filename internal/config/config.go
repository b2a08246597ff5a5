package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is not set. The server
// cannot start without a storage connection string.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

const (
	DriverSQLite = "sqlite3"
	DriverMongo  = "mongo"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// DatabaseURL is the raw connection string; Driver is derived from its scheme.
	DatabaseURL     string
	Driver          string
	MongoDatabase   string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	MQTTEnabled        bool
	MQTTBroker         string
	MQTTPort           int
	MQTTClientID       string
	MQTTTopic          string
	MQTTEmbeddedBroker bool
	MQTTEmbeddedAddr   string

	CORSAllowedOrigins []string
	MetricsEnabled     bool
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := ParseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return Config{}, ErrMissingDatabaseURL
	}
	driver := DriverFor(databaseURL)

	mongoDatabase := strings.TrimSpace(os.Getenv("MONGO_DATABASE"))
	if mongoDatabase == "" {
		mongoDatabase = "aquarium"
	}

	maxOpenConns, err := intFromEnv("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := intFromEnv("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}

	connMaxLifetimeStr := strings.TrimSpace(os.Getenv("DB_CONN_MAX_LIFETIME"))
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQL, err := boolFromEnv("DB_LOG_SQL", false)
	if err != nil {
		return Config{}, err
	}

	mqttEnabled, err := boolFromEnv("MQTT_ENABLED", false)
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}

	mqttPort, err := intFromEnv("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "aquadash-server"
	}

	mqttTopic := strings.TrimSpace(os.Getenv("MQTT_TOPIC"))
	if mqttTopic == "" {
		mqttTopic = "aquarium/+/readings"
	}

	mqttEmbedded, err := boolFromEnv("MQTT_EMBEDDED_BROKER", false)
	if err != nil {
		return Config{}, err
	}

	mqttEmbeddedAddr := strings.TrimSpace(os.Getenv("MQTT_EMBEDDED_ADDR"))
	if mqttEmbeddedAddr == "" {
		mqttEmbeddedAddr = ":1883"
	}

	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	metricsEnabled, err := boolFromEnv("METRICS_ENABLED", true)
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		HTTPAddr:           httpAddr,
		DatabaseURL:        databaseURL,
		Driver:             driver,
		MongoDatabase:      mongoDatabase,
		MaxOpenConns:       maxOpenConns,
		MaxIdleConns:       maxIdleConns,
		ConnMaxLifetime:    connMaxLifetime,
		LogSQL:             logSQL,
		MQTTEnabled:        mqttEnabled,
		MQTTBroker:         mqttBroker,
		MQTTPort:           mqttPort,
		MQTTClientID:       mqttClientID,
		MQTTTopic:          mqttTopic,
		MQTTEmbeddedBroker: mqttEmbedded,
		MQTTEmbeddedAddr:   mqttEmbeddedAddr,
		CORSAllowedOrigins: origins,
		MetricsEnabled:     metricsEnabled,
	}, nil
}

// DriverFor picks the storage driver from the connection string scheme.
func DriverFor(databaseURL string) string {
	lower := strings.ToLower(databaseURL)
	if strings.HasPrefix(lower, "mongodb://") || strings.HasPrefix(lower, "mongodb+srv://") {
		return DriverMongo
	}
	return DriverSQLite
}

func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func intFromEnv(name string, def int) (int, error) {
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

func boolFromEnv(name string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(name))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return b, nil
}
