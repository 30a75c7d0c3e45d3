package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodovia-segura/radar-priority-etl/internal/scoring"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-accident-records", cfg.KafkaSourceTopic)
	assert.Equal(t, "scored-road-segments", cfg.KafkaSinkTopic)
	assert.Equal(t, "radar-priority-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, 1.0, cfg.BinSizeKm)
	assert.Equal(t, scoring.ScopeGlobal, cfg.NormalizationScope)
	assert.False(t, cfg.WeightingEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("BIN_SIZE_KM", "0.5")
	t.Setenv("NORMALIZATION_SCOPE", "per_uf")
	t.Setenv("WEIGHTING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, 0.5, cfg.BinSizeKm)
	assert.Equal(t, scoring.ScopePerUF, cfg.NormalizationScope)
	assert.True(t, cfg.WeightingEnabled)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "99999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBinSize(t *testing.T) {
	for _, bad := range []string{"0", "-2", "abc"} {
		t.Run(bad, func(t *testing.T) {
			t.Setenv("BIN_SIZE_KM", bad)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "BIN_SIZE_KM")
		})
	}
}

func TestLoad_InvalidScope(t *testing.T) {
	t.Setenv("NORMALIZATION_SCOPE", "per_city")
	_, err := Load()
	require.ErrorIs(t, err, scoring.ErrInvalidConfig)
}

func TestScoringOptions(t *testing.T) {
	t.Setenv("BIN_SIZE_KM", "2")
	t.Setenv("NORMALIZATION_SCOPE", "per_highway")
	t.Setenv("WEIGHTING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.ScoringOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, 2.0, opts.BinSizeKm)
	assert.Equal(t, scoring.ScopePerHighway, opts.Scope)
	assert.True(t, opts.WeightingEnabled)
}
