package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for labelforge-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (job tracker store, signed URL cache)
	Redis RedisConfig `yaml:"redis"`

	// Object storage configuration (S3-compatible)
	Storage StorageConfig `yaml:"storage"`

	// Export pipeline tuning
	Export ExportConfig `yaml:"export"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"labelforge"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"labelforge_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// StorageConfig holds S3-compatible object storage configuration.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" env:"STORAGE_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"-" env:"STORAGE_ACCESS_KEY"` // Secret - not in YAML
	SecretKey string `yaml:"-" env:"STORAGE_SECRET_KEY"` // Secret - not in YAML
	Bucket    string `yaml:"bucket" env:"STORAGE_BUCKET" env-default:"labelforge"`
	UseSSL    bool   `yaml:"use_ssl" env:"STORAGE_USE_SSL" env-default:"false"`
}

// ExportConfig holds export pipeline tuning settings.
type ExportConfig struct {
	// Workers is the number of concurrent export job slots.
	Workers int `yaml:"workers" env:"EXPORT_WORKERS" env-default:"4"`
	// SignedURLTTLMinutes is the lifetime of presigned archive URLs.
	SignedURLTTLMinutes int `yaml:"signed_url_ttl_minutes" env:"EXPORT_SIGNED_URL_TTL_MINUTES" env-default:"60"`
	// URLCacheTTLMinutes is how long signed URLs are served from cache.
	// Kept shorter than the URL lifetime so a cached URL never outlives the URL itself.
	URLCacheTTLMinutes int `yaml:"url_cache_ttl_minutes" env:"EXPORT_URL_CACHE_TTL_MINUTES" env-default:"55"`
	// JobRetentionMinutes is how long terminal job state stays queryable.
	JobRetentionMinutes int `yaml:"job_retention_minutes" env:"EXPORT_JOB_RETENTION_MINUTES" env-default:"1440"`
}

// SignedURLTTL returns the presigned URL lifetime as a duration.
func (c *ExportConfig) SignedURLTTL() time.Duration {
	return time.Duration(c.SignedURLTTLMinutes) * time.Minute
}

// URLCacheTTL returns the signed URL cache TTL as a duration.
func (c *ExportConfig) URLCacheTTL() time.Duration {
	return time.Duration(c.URLCacheTTLMinutes) * time.Minute
}

// JobRetention returns the terminal job retention period as a duration.
func (c *ExportConfig) JobRetention() time.Duration {
	return time.Duration(c.JobRetentionMinutes) * time.Minute
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Secrets (PGPASSWORD, STORAGE_ACCESS_KEY, STORAGE_SECRET_KEY) must come from
// environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate checks settings that would otherwise fail in confusing ways at runtime.
func (c *Config) validate() error {
	if c.Export.Workers < 1 {
		return fmt.Errorf("export.workers must be at least 1, got %d", c.Export.Workers)
	}
	if c.Export.URLCacheTTLMinutes > c.Export.SignedURLTTLMinutes {
		return fmt.Errorf("export.url_cache_ttl_minutes (%d) must not exceed export.signed_url_ttl_minutes (%d)",
			c.Export.URLCacheTTLMinutes, c.Export.SignedURLTTLMinutes)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the Redis address in host:port form.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
