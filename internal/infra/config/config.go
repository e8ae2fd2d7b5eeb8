package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	StorageDriver      string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaPaymentsTopic string
	ConsumerGroup      string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	GatewayMode        string
	GatewayIntentURL   string
	GatewayPaymentURL  string
	GatewayTimeout     time.Duration
	PlatformFeePercent int64
	ReservationGrace   time.Duration
	SweepInterval      time.Duration
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", "memory")),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "gearshare"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaPaymentsTopic: getEnv("KAFKA_PAYMENTS_TOPIC", "payments.events.v1"),
		ConsumerGroup:      getEnv("KAFKA_CONSUMER_GROUP", "gearshare-reconciliation"),
		GatewayMode:        strings.ToLower(getEnv("GATEWAY_MODE", "memory")),
		GatewayIntentURL:   getEnv("GATEWAY_INTENT_URL", "http://localhost:8090/intents"),
		GatewayPaymentURL:  getEnv("GATEWAY_PAYMENT_URL", "http://localhost:8090/payments"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	gatewayTimeout, err := parseDurationEnv("GATEWAY_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.GatewayTimeout = gatewayTimeout

	grace, err := parseDurationEnv("RESERVATION_GRACE", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.ReservationGrace = grace

	sweep, err := parseDurationEnv("SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.SweepInterval = sweep

	fee, err := parseIntEnv("PLATFORM_FEE_PERCENT", 10)
	if err != nil {
		return Config{}, err
	}
	cfg.PlatformFeePercent = fee

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if cfg.StorageDriver != "memory" && cfg.StorageDriver != "mongo" {
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver == "mongo" && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required with the mongo storage driver")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	var v int64
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}
