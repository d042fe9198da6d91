// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	Port string

	DB DatabaseConfig

	ModelPath      string
	ExplainSamples int
	JWTSecret      string

	RedisURL        string
	ExplainCacheTTL time.Duration

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	KafkaBrokers    []string
	KafkaAlertTopic string

	AMQPURL        string
	AMQPAlertQueue string

	AlertCriticalLevel     float64
	AlertLowLevel          float64
	DefaultDaysWithoutRain int
	DefaultTemperature     float64

	StaticDir      string
	LogLevel       string
	LogFormat      string
	SeedSampleData bool
}

// DatabaseConfig selects and parameterizes the gorm dialector.
type DatabaseConfig struct {
	Driver   string // postgres | sqlite
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	Path     string // sqlite file
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; the process environment wins.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env{get: getenv}
	cfg := &Config{
		Port: e.str("PORT", "8000"),
		DB: DatabaseConfig{
			Driver:   strings.ToLower(e.str("DB_DRIVER", "postgres")),
			Host:     e.str("DB_HOST", "localhost"),
			User:     e.str("DB_USER", "postgres"),
			Password: e.str("DB_PASSWORD", ""),
			Name:     e.str("DB_NAME", "aquamonitor"),
			Port:     e.str("DB_PORT", "5432"),
			SSLMode:  e.str("DB_SSLMODE", "disable"),
			Path:     e.str("DB_PATH", "data/aquamonitor.db"),
		},
		ModelPath:              e.str("MODEL_PATH", "data/trained_model.json"),
		ExplainSamples:         e.int("EXPLAIN_SAMPLES", 50),
		JWTSecret:              e.str("JWT_SECRET_KEY", ""),
		RedisURL:               e.str("REDIS_URL", ""),
		ExplainCacheTTL:        e.duration("EXPLAIN_CACHE_TTL", 10*time.Minute),
		MQTTBroker:             e.str("MQTT_BROKER", ""),
		MQTTTopic:              e.str("MQTT_TOPIC", "aquamonitor/tanks/+/level"),
		MQTTClientID:           e.str("MQTT_CLIENT_ID", "aquamonitor-api"),
		KafkaBrokers:           e.list("KAFKA_BROKERS"),
		KafkaAlertTopic:        e.str("KAFKA_ALERT_TOPIC", "water-alerts"),
		AMQPURL:                e.str("AMQP_URL", ""),
		AMQPAlertQueue:         e.str("AMQP_ALERT_QUEUE", "water.alerts"),
		AlertCriticalLevel:     e.float("ALERT_CRITICAL_LEVEL", 20),
		AlertLowLevel:          e.float("ALERT_LOW_LEVEL", 40),
		DefaultDaysWithoutRain: e.int("DEFAULT_DAYS_WITHOUT_RAIN", 5),
		DefaultTemperature:     e.float("DEFAULT_TEMPERATURE", 25),
		StaticDir:              e.str("STATIC_DIR", "static"),
		LogLevel:               e.str("LOG_LEVEL", "info"),
		LogFormat:              e.str("LOG_FORMAT", "text"),
		SeedSampleData:         e.bool("SEED_SAMPLE_DATA", true),
	}
	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DB.Driver != "postgres" && c.DB.Driver != "sqlite" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver))
	}
	if c.ExplainSamples <= 0 {
		errs = append(errs, fmt.Errorf("EXPLAIN_SAMPLES must be positive, got %d", c.ExplainSamples))
	}
	if c.AlertCriticalLevel >= c.AlertLowLevel {
		errs = append(errs, fmt.Errorf("ALERT_CRITICAL_LEVEL (%v) must be below ALERT_LOW_LEVEL (%v)", c.AlertCriticalLevel, c.AlertLowLevel))
	}
	if c.DefaultDaysWithoutRain < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_DAYS_WITHOUT_RAIN must be >= 0, got %d", c.DefaultDaysWithoutRain))
	}
	return errors.Join(errs...)
}

type env struct {
	get  func(string) string
	errs []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return def
	}
	return f
}

func (e *env) bool(key string, def bool) bool {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.get(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func (e *env) list(key string) []string {
	var out []string
	for _, part := range strings.Split(e.get(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
