// Package config builds process configuration from the environment so main
// stays lean. Every knob has a development default; production overrides via
// env.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is everything the server process needs at startup.
type Config struct {
	Addr          string
	JWTSigningKey string
	// AdminTokenHash is the bcrypt hash of the operator token guarding the
	// admin surfaces. Empty disables them.
	AdminTokenHash string
	AllowedOrigins []string

	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig

	KnowledgeCacheTTL time.Duration

	// RateLimit requests per client per RateWindow; 0 disables limiting.
	RateLimit  int
	RateWindow time.Duration

	// BillingPlans maps account UUIDs to plan names ("uuid=pro,uuid=team").
	// Accounts not listed are on the free tier. A real billing provider
	// replaces this in production.
	BillingPlans map[string]string
}

// RedisConfig configures the published-content cache. An empty URL disables
// redis entirely.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit fan-out. No brokers means no fan-out.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("AIDE_ADDR", ":8080"),
		JWTSigningKey:  envOr("AIDE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminTokenHash: os.Getenv("AIDE_ADMIN_TOKEN_HASH"),
		PostgresDSN:    os.Getenv("AIDE_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("AIDE_REDIS_URL"),
			PoolSize:     envIntOr("AIDE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("AIDE_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDurationOr("AIDE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("AIDE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("AIDE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			AuditTopic: envOr("AIDE_KAFKA_AUDIT_TOPIC", "aide.audit"),
		},
		KnowledgeCacheTTL: envDurationOr("AIDE_KNOWLEDGE_CACHE_TTL", 5*time.Minute),
		RateLimit:         envIntOr("AIDE_RATE_LIMIT", 120),
		RateWindow:        envDurationOr("AIDE_RATE_WINDOW", time.Minute),
	}
	if brokers := os.Getenv("AIDE_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	for _, o := range strings.Split(envOr("AIDE_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	if plans := os.Getenv("AIDE_BILLING_PLANS"); plans != "" {
		cfg.BillingPlans = make(map[string]string)
		for _, pair := range strings.Split(plans, ",") {
			account, plan, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if ok && account != "" && plan != "" {
				cfg.BillingPlans[account] = plan
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
