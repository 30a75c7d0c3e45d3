package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rodovia-segura/radar-priority-etl/internal/scoring"
)

const maxBatchSize = 1000

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Scoring configuration.
	BinSizeKm          float64
	NormalizationScope scoring.Scope
	WeightingEnabled   bool
}

// Load reads configuration from the environment (a .env file is honored when
// present), applying defaults where unset. Invalid values fail fast before
// any data is processed.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional .env, absence is fine

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDurationEnv("BATCH_FLUSH_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	binSize, err := parseBinSize()
	if err != nil {
		return nil, err
	}

	scope, err := scoring.ParseScope(envOrDefault("NORMALIZATION_SCOPE", string(scoring.ScopeGlobal)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-accident-records"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "scored-road-segments"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "radar-priority-etl"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		BinSizeKm:          binSize,
		NormalizationScope: scope,
		WeightingEnabled:   envOrDefault("WEIGHTING_ENABLED", "false") == "true",
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// ScoringOptions maps the loaded configuration onto scoring options. The
// options are pre-validated by Load, so Score cannot fail on configuration
// after startup.
func (c *Config) ScoringOptions() scoring.Options {
	return scoring.Options{
		BinSizeKm:        c.BinSizeKm,
		Scope:            c.NormalizationScope,
		WeightingEnabled: c.WeightingEnabled,
	}
}

// GetLogLevel implements observability.LoggerConfig.
func (c *Config) GetLogLevel() string { return c.LogLevel }

// GetLogFormat implements observability.LoggerConfig.
func (c *Config) GetLogFormat() string { return c.LogFormat }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	raw := os.Getenv("BATCH_SIZE")
	if raw == "" {
		return 50, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxBatchSize {
		return 0, fmt.Errorf("invalid BATCH_SIZE: %q (must be 1-%d)", raw, maxBatchSize)
	}
	return n, nil
}

func parseBinSize() (float64, error) {
	raw := os.Getenv("BIN_SIZE_KM")
	if raw == "" {
		return 1.0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid BIN_SIZE_KM: %q (must be > 0)", raw)
	}
	return v, nil
}
