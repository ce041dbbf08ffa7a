// Package config loads the service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/draftwise/wp-publisher/internal/store"
	"github.com/draftwise/wp-publisher/internal/transport"
)

const (
	defaultAddress           = ":8080"
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultReconcileInterval = 15 * time.Minute
	defaultPublishRPS        = 2
)

// Config is the top-level service configuration.
type Config struct {
	Debug         bool                      `yaml:"debug"`
	Server        ServerConfig              `yaml:"server"`
	Postgres      store.PostgresConfig      `yaml:"postgres"`
	Elasticsearch store.ElasticsearchConfig `yaml:"elasticsearch"`
	Redis         RedisConfig               `yaml:"redis"`
	Auth          AuthConfig                `yaml:"auth"`
	Publishing    PublishingConfig          `yaml:"publishing"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RedisConfig configures the metrics Redis connection.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig configures API authentication.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// PublishingConfig tunes the WordPress publishing pipeline.
type PublishingConfig struct {
	// MaxRetries bounds transient-failure retries per remote call.
	MaxRetries int `yaml:"max_retries"`
	// MetadataTimeout is the per-attempt timeout for JSON calls.
	MetadataTimeout time.Duration `yaml:"metadata_timeout"`
	// BinaryTimeout is the per-attempt timeout for media transfer.
	BinaryTimeout time.Duration `yaml:"binary_timeout"`
	// PublishRPS rate-limits outbound publish calls per second.
	PublishRPS int `yaml:"publish_rps"`
	// ReconcileInterval is the period of the reconciliation worker.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

// TransportConfig converts publishing settings into a transport config.
func (p PublishingConfig) TransportConfig() transport.Config {
	cfg := transport.DefaultConfig()
	if p.MaxRetries > 0 {
		cfg.MaxRetries = p.MaxRetries
	}
	if p.MetadataTimeout > 0 {
		cfg.MetadataTimeout = p.MetadataTimeout
	}
	if p.BinaryTimeout > 0 {
		cfg.BinaryTimeout = p.BinaryTimeout
	}
	return cfg
}

// Load reads, defaults, overrides and validates the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c.Elasticsearch.URL == "" {
		return errors.New("elasticsearch.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Postgres.Host == "" {
		return errors.New("postgres.host is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Publishing.ReconcileInterval <= 0 {
		return fmt.Errorf("publishing.reconcile_interval must be positive, got %v", c.Publishing.ReconcileInterval)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Publishing.ReconcileInterval == 0 {
		cfg.Publishing.ReconcileInterval = defaultReconcileInterval
	}
	if cfg.Publishing.PublishRPS == 0 {
		cfg.Publishing.PublishRPS = defaultPublishRPS
	}
	if cfg.Postgres.Port == "" {
		cfg.Postgres.Port = "5432"
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
}

func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("ES_URL"); v != "" {
		cfg.Elasticsearch.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
}

// parseBool accepts the common truthy spellings.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
