package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config aggregates application configuration values loaded from the
// environment and an optional .env file.
type Config struct {
	Env                string
	HTTPAddr           string
	StorageDriver      string
	MongoURI           string
	MongoDB            string
	DatabaseURL        string
	SQLitePath         string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	RedisURL           string
	DashboardCacheTTL  time.Duration
	CompleterInterval  time.Duration
	GuestCancelCutoff  time.Duration
	UpcomingLimit      int
	SeedSampleData     bool
}

var defaults = map[string]any{
	"APP_ENV":              "dev",
	"HTTP_ADDR":            ":8080",
	"STORAGE_DRIVER":       DriverMemory,
	"MONGO_DB":             "staybook",
	"SQLITE_PATH":          "staybook.db",
	"KAFKA_TOPIC_PREFIX":   "",
	"OUTBOX_POLL_INTERVAL": "500ms",
	"RETRY_BACKOFF":        "1s,5s,30s",
	"DASHBOARD_CACHE_TTL":  "30s",
	"COMPLETER_INTERVAL":   "1m",
	"GUEST_CANCEL_CUTOFF":  "0s",
	"UPCOMING_LIMIT":       3,
	"SEED_SAMPLE_DATA":     false,
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()
	return FromViper(v)
}

// FromViper reads Config from v after applying defaults and env binding.
func FromViper(v *viper.Viper) (Config, error) {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := Config{
		Env:              strings.ToLower(v.GetString("APP_ENV")),
		HTTPAddr:         v.GetString("HTTP_ADDR"),
		StorageDriver:    strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDB:          v.GetString("MONGO_DB"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		SQLitePath:       v.GetString("SQLITE_PATH"),
		KafkaTopicPrefix: v.GetString("KAFKA_TOPIC_PREFIX"),
		RedisURL:         v.GetString("REDIS_URL"),
		UpcomingLimit:    v.GetInt("UPCOMING_LIMIT"),
		SeedSampleData:   v.GetBool("SEED_SAMPLE_DATA"),
	}
	for _, raw := range strings.Split(v.GetString("KAFKA_BROKERS"), ",") {
		if broker := strings.TrimSpace(raw); broker != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
		}
	}

	var err error
	if cfg.OutboxPollInterval, err = duration(v, "OUTBOX_POLL_INTERVAL"); err != nil {
		return Config{}, err
	}
	if cfg.DashboardCacheTTL, err = duration(v, "DASHBOARD_CACHE_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.CompleterInterval, err = duration(v, "COMPLETER_INTERVAL"); err != nil {
		return Config{}, err
	}
	if cfg.GuestCancelCutoff, err = duration(v, "GUEST_CANCEL_CUTOFF"); err != nil {
		return Config{}, err
	}
	for _, raw := range strings.Split(v.GetString("RETRY_BACKOFF"), ",") {
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

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverSQLite:
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for storage driver %q", c.StorageDriver)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for storage driver %q", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.UpcomingLimit <= 0 {
		return fmt.Errorf("UPCOMING_LIMIT must be positive, got %d", c.UpcomingLimit)
	}
	return nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}
