// Package config loads service configuration from environment variables so
// main stays lean. Parsing uses env struct tags; defaults suit local
// development and must be overridden in production.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr     string `env:"UTSAV_ADDR" envDefault:":8080"`
	LogLevel string `env:"UTSAV_LOG_LEVEL" envDefault:"info"`

	// AdminJWTSigningKey gates the read-only admin views.
	AdminJWTSigningKey string `env:"ADMIN_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
	Gateway  GatewayConfig  `envPrefix:"PAYMENT_GATEWAY_"`
	Mail     MailConfig     `envPrefix:"MAIL_"`
	Ledger   LedgerConfig   `envPrefix:"LEDGER_"`
	Artifact ArtifactConfig `envPrefix:"ARTIFACT_"`
	Poll     PollConfig     `envPrefix:"POLL_"`
}

// PostgresConfig holds the durable store connection. An empty URL selects the
// in-memory store (tests, local demos).
type PostgresConfig struct {
	URL          string        `env:"URL"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnLifetime time.Duration `env:"CONN_LIFETIME" envDefault:"30m"`
}

// RedisConfig holds the dispatch-guard backend. Optional: empty URL falls
// back to the in-process guard.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig holds the audit stream. Optional: no brokers means audit events
// stay in the outbox table.
type KafkaConfig struct {
	Brokers []string      `env:"BROKERS" envSeparator:","`
	Topic   string        `env:"TOPIC" envDefault:"utsav.audit"`
	Poll    time.Duration `env:"OUTBOX_POLL" envDefault:"2s"`
}

// GatewayConfig points at the payment gateway's HTTP API.
type GatewayConfig struct {
	BaseURL        string        `env:"BASE_URL" envDefault:"http://localhost:9090"`
	APIKey         string        `env:"API_KEY"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"10s"`
	StatusCacheTTL time.Duration `env:"STATUS_CACHE_TTL" envDefault:"3s"`
}

// MailConfig points at the mail-transport HTTP API.
type MailConfig struct {
	BaseURL      string        `env:"BASE_URL" envDefault:"http://localhost:9091"`
	APIKey       string        `env:"API_KEY"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"15s"`
	FromAddress  string        `env:"FROM" envDefault:"tickets@utsav.example"`
	OperatorAddr string        `env:"OPERATOR" envDefault:"ops@utsav.example"`
}

// LedgerConfig points at the external tabular store.
type LedgerConfig struct {
	BaseURL   string        `env:"BASE_URL" envDefault:"http://localhost:9092"`
	APIKey    string        `env:"API_KEY"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"15s"`
	SheetName string        `env:"SHEET_NAME" envDefault:"Utsav Registrations"`
}

// ArtifactConfig controls ticket rendering and blob storage.
type ArtifactConfig struct {
	TemplatePath string `env:"TEMPLATE_PATH"`
	Dir          string `env:"DIR" envDefault:"./data/artifacts"`
	UploadsDir   string `env:"UPLOADS_DIR" envDefault:"./data/uploads"`
}

// PollConfig bounds the server-side payment status polling helper.
type PollConfig struct {
	Interval    time.Duration `env:"INTERVAL" envDefault:"2s"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"30"`
}

// FromEnv parses the full configuration from the environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
