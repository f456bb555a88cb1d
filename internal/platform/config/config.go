// Package config loads service configuration from environment variables so
// main stays lean. Every knob has a development default; production deploys
// override through the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Sync     SyncConfig
	Notify   NotifyConfig
	Adapters AdapterConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string
	LogLevel      string
}

// PostgresConfig holds the Postgres connection string. Empty DSN means the
// service runs on in-memory stores (development mode).
type PostgresConfig struct {
	DSN string
}

// RedisConfig holds Redis connection settings. Empty URL means Redis is not
// configured; the snapshot store and cache adapter fall back to memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds broker addresses and topic names. Empty Brokers means
// Kafka is not configured; the integrations adapter and notification sender
// fall back to logging.
type KafkaConfig struct {
	Brokers      []string
	ChangesTopic string
	NotifyTopic  string
}

// SyncConfig tunes the propagation worker pool.
type SyncConfig struct {
	Workers           int
	MaxRetries        int
	RetryBackoff      time.Duration
	AdapterTimeout    time.Duration
	SnapshotRetention time.Duration
}

// NotifyConfig tunes stakeholder notification fanout.
type NotifyConfig struct {
	Timeout        time.Duration
	MaxConcurrency int
}

// AdapterConfig holds downstream endpoints. Empty URLs select loopback
// adapters (development mode).
type AdapterConfig struct {
	SearchURL  string
	BookingURL string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr:          envStr("PRAXIS_ADDR", ":8080"),
			AdminToken:    envStr("PRAXIS_ADMIN_TOKEN", ""),
			JWTSigningKey: envStr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			LogLevel:      envStr("PRAXIS_LOG_LEVEL", "info"),
		},
		Postgres: PostgresConfig{
			DSN: envStr("PRAXIS_POSTGRES_DSN", ""),
		},
		Redis: RedisConfig{
			URL:          envStr("PRAXIS_REDIS_URL", ""),
			PoolSize:     envInt("PRAXIS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("PRAXIS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("PRAXIS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PRAXIS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PRAXIS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      envList("PRAXIS_KAFKA_BROKERS"),
			ChangesTopic: envStr("PRAXIS_KAFKA_CHANGES_TOPIC", "profile.changes"),
			NotifyTopic:  envStr("PRAXIS_KAFKA_NOTIFY_TOPIC", "notifications.outbound"),
		},
		Sync: SyncConfig{
			Workers:           envInt("PRAXIS_SYNC_WORKERS", 4),
			MaxRetries:        envInt("PRAXIS_SYNC_MAX_RETRIES", 3),
			RetryBackoff:      envDuration("PRAXIS_SYNC_RETRY_BACKOFF", 2*time.Second),
			AdapterTimeout:    envDuration("PRAXIS_SYNC_ADAPTER_TIMEOUT", 5*time.Second),
			SnapshotRetention: envDuration("PRAXIS_SNAPSHOT_RETENTION", time.Hour),
		},
		Notify: NotifyConfig{
			Timeout:        envDuration("PRAXIS_NOTIFY_TIMEOUT", 5*time.Second),
			MaxConcurrency: envInt("PRAXIS_NOTIFY_MAX_CONCURRENCY", 8),
		},
		Adapters: AdapterConfig{
			SearchURL:  envStr("PRAXIS_SEARCH_URL", ""),
			BookingURL: envStr("PRAXIS_BOOKING_URL", ""),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
