package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config aggregates application configuration values loaded from the environment and an
// optional config.yaml.
type Config struct {
	Env                string
	LogLevel           string
	HTTPAddr           string
	StoreDriver        string
	MongoURI           string
	MongoDB            string
	PostgresDSN        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	StoreTimeout       time.Duration
	ShutdownTimeout    time.Duration
	Currency           string
}

// Load reads configuration through a private viper instance.
func Load() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DB", "alxtravel")
	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC_PREFIX", "")
	v.SetDefault("IDEMP_TTL", "24h")
	v.SetDefault("OUTBOX_POLL_INTERVAL", "500ms")
	v.SetDefault("RETRY_BACKOFF", "1s,5s,30s")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("CURRENCY", "USD")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read config file: %w", err)
		}
	}

	cfg := Config{
		Env:              strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		HTTPAddr:         v.GetString("HTTP_ADDR"),
		StoreDriver:      strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDB:          v.GetString("MONGO_DB"),
		PostgresDSN:      v.GetString("POSTGRES_DSN"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopicPrefix: v.GetString("KAFKA_TOPIC_PREFIX"),
		Currency:         strings.ToUpper(strings.TrimSpace(v.GetString("CURRENCY"))),
	}

	var err error
	if cfg.IdempotencyTTL, err = duration(v, "IDEMP_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = duration(v, "OUTBOX_POLL_INTERVAL"); err != nil {
		return Config{}, err
	}
	if cfg.StoreTimeout, err = duration(v, "STORE_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = duration(v, "SHUTDOWN_TIMEOUT"); err != nil {
		return Config{}, err
	}
	for _, raw := range splitList(v.GetString("RETRY_BACKOFF")) {
		d, err := time.ParseDuration(raw)
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
	switch c.StoreDriver {
	case DriverMemory:
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=%s", DriverMongo)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter code, got %q", c.Currency)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	return nil
}

// IsDev reports whether human-oriented output should be used.
func (c Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "local"
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
