package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const insecureJWTSecret = "change-me-in-production"

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL   string `env:"DATABASE_URL"`
	PGHost        string `env:"PGHOST" envDefault:"localhost"`
	PGPort        int    `env:"PGPORT" envDefault:"5435"`
	PGUser        string `env:"PGUSER" envDefault:"bonusvalue"`
	PGPassword    string `env:"PGPASSWORD" envDefault:"bonusvalue"`
	PGDatabase    string `env:"PGDATABASE" envDefault:"bonusvalue"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"20"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	// JWT
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTAdminExpiry time.Duration `env:"JWT_ADMIN_EXPIRY" envDefault:"8h"`

	// Bootstrap superadmin, created at startup when both are set
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Scraper ingest tokens
	IngestSecret   string        `env:"INGEST_SECRET"`
	IngestTokenTTL time.Duration `env:"INGEST_TOKEN_TTL" envDefault:"24h"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3100"`

	// Kafka
	KafkaBrokers     string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled     bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaOfferTopic  string `env:"KAFKA_OFFER_TOPIC" envDefault:"bonusvalue.offer-events"`
	KafkaIngestTopic string `env:"KAFKA_INGEST_TOPIC" envDefault:"bonusvalue.scraped-offers"`
	KafkaGroupID     string `env:"KAFKA_GROUP_ID" envDefault:"offer-ingest"`

	// Outbox relay
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxBreakerFails int           `env:"OUTBOX_BREAKER_FAILS" envDefault:"5"`
	OutboxBreakerReset time.Duration `env:"OUTBOX_BREAKER_RESET" envDefault:"30s"`

	// Engine
	DefaultBudget  float64 `env:"DEFAULT_BUDGET" envDefault:"100"`
	RecommendLimit int     `env:"RECOMMEND_LIMIT" envDefault:"3"`

	// Guards
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass the secret checks (local dev only).
func (c *Config) Validate() error {
	if c.DefaultBudget <= 0 {
		return fmt.Errorf("DEFAULT_BUDGET must be positive, got %v", c.DefaultBudget)
	}
	if c.RecommendLimit <= 0 {
		return fmt.Errorf("RECOMMEND_LIMIT must be positive, got %d", c.RecommendLimit)
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == insecureJWTSecret {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	if c.IngestSecret != "" && len(c.IngestSecret) < 32 {
		return fmt.Errorf("INGEST_SECRET is too short (%d chars); minimum 32 characters required", len(c.IngestSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// IngestTokenSecret returns INGEST_SECRET, falling back to a value derived from JWT_SECRET.
func (c *Config) IngestTokenSecret() string {
	if c.IngestSecret != "" {
		return c.IngestSecret
	}
	return "ingest:" + c.JWTSecret
}

// Brokers splits KAFKA_BROKERS into addresses.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS into origins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
