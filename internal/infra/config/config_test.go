package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StoreDriver != DriverMemory || cfg.HTTPAddr != ":8080" || cfg.Currency != "USD" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.StoreTimeout != 5*time.Second || cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("unexpected default durations %+v", cfg)
	}
	if len(cfg.RetryBackoff) != 3 || cfg.RetryBackoff[2] != 30*time.Second {
		t.Fatalf("unexpected backoff %v", cfg.RetryBackoff)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("no brokers expected by default, got %v", cfg.KafkaBrokers)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/alx")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("CURRENCY", "eur")
	t.Setenv("APP_ENV", "PROD")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StoreDriver != DriverPostgres || cfg.StoreTimeout != 750*time.Millisecond || cfg.Currency != "EUR" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.IsDev() {
		t.Fatal("prod must not be dev")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":    {"STORE_DRIVER": "sqlite"},
		"mongo without uri": {"STORE_DRIVER": "mongo"},
		"bad duration":      {"STORE_TIMEOUT": "soon"},
		"bad backoff":       {"RETRY_BACKOFF": "1s,later"},
		"bad currency":      {"CURRENCY": "EURO"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
