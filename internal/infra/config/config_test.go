package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.DashboardCacheTTL)
	assert.Equal(t, 3, cfg.UpcomingLimit)
	assert.False(t, cfg.SeedSampleData)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromViperReadsEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/staybook")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("UPCOMING_LIMIT", "5")
	t.Setenv("SEED_SAMPLE_DATA", "true")
	t.Setenv("COMPLETER_INTERVAL", "10s")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5, cfg.UpcomingLimit)
	assert.True(t, cfg.SeedSampleData)
	assert.Equal(t, 10*time.Second, cfg.CompleterInterval)
}

func TestFromViperRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":       {"STORAGE_DRIVER": "cassandra"},
		"mongo without uri":    {"STORAGE_DRIVER": "mongo"},
		"postgres without dsn": {"STORAGE_DRIVER": "postgres"},
		"bad duration":         {"OUTBOX_POLL_INTERVAL": "soon"},
		"bad backoff":          {"RETRY_BACKOFF": "1s,later"},
		"zero upcoming":        {"UPCOMING_LIMIT": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromViper(viper.New())
			assert.Error(t, err)
		})
	}
}
