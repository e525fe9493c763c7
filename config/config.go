package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/bossing/basket-service/internal/database"
	"github.com/bossing/basket-service/internal/http/ratelimit"
	"github.com/bossing/basket-service/internal/middleware"
	"github.com/bossing/basket-service/internal/optimizer"
	"github.com/bossing/basket-service/internal/telemetry"
)

// Catalog sources.
const (
	SourcePostgres = "postgres" // query Postgres on every request
	SourceSnapshot = "snapshot" // Postgres loaded into memory, reloaded after TTL
	SourceFile     = "file"     // JSON seed file loaded into memory
)

// Config holds the application configuration
type Config struct {
	Server         ServerConfig                 `mapstructure:"server"`
	Database       DatabaseConfig               `mapstructure:"database"`
	Catalog        CatalogConfig                `mapstructure:"catalog"`
	Optimizer      optimizer.Config             `mapstructure:"optimizer"`
	Ingestion      IngestionConfig              `mapstructure:"ingestion"`
	RateLimit      middleware.RateLimiterConfig `mapstructure:"rate_limit"`
	Logging        LoggingConfig                `mapstructure:"logging"`
	Telemetry      telemetry.Config             `mapstructure:"telemetry"`
	InternalAPIKey string                       `mapstructure:"internal_api_key"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// Pool returns the pool settings.
func (d DatabaseConfig) Pool() database.PoolConfig {
	return database.PoolConfig{
		URL:             d.URL,
		MaxConns:        d.MaxConnections,
		MinConns:        d.MinConnections,
		MaxConnLifetime: d.MaxConnLifetime,
		MaxConnIdleTime: d.MaxConnIdleTime,
	}
}

// CatalogConfig selects where the catalog is served from.
type CatalogConfig struct {
	Source      string        `mapstructure:"source"`
	SeedFile    string        `mapstructure:"seed_file"`
	TTL         time.Duration `mapstructure:"ttl"`
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
}

// IngestionConfig holds settings for the import command.
type IngestionConfig struct {
	Concurrency int              `mapstructure:"concurrency"`
	Feed        ratelimit.Config `mapstructure:"feed"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix("BASKET_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case SourcePostgres, SourceSnapshot:
		if c.Database.URL == "" {
			return fmt.Errorf("catalog source %q needs database.url (DATABASE_URL)", c.Catalog.Source)
		}
	case SourceFile:
		if c.Catalog.SeedFile == "" {
			return fmt.Errorf("catalog source %q needs catalog.seed_file (CATALOG_SEED_FILE)", c.Catalog.Source)
		}
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("invalid optimizer config: %w", err)
	}
	return nil
}

// loadEnvFile loads the first .env file found in the usual places.
func loadEnvFile() error {
	for _, path := range []string{".", "./config"} {
		envFile := path + "/.env"
		if _, err := os.Stat(envFile); err == nil {
			return loadDotEnvFile(envFile)
		}
	}
	return errors.New("no .env file found")
}

// loadDotEnvFile sets KEY=VALUE lines as environment variables.
// Variables already set in the environment win.
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds the conventional unprefixed variables.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("catalog.source", "CATALOG_SOURCE")
	v.BindEnv("catalog.seed_file", "CATALOG_SEED_FILE")
	v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.service_name", "OTEL_SERVICE_NAME")
	v.BindEnv("internal_api_key", "INTERNAL_API_KEY")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 20*time.Second)

	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("catalog.source", SourceSnapshot)
	v.SetDefault("catalog.ttl", 5*time.Minute)
	v.SetDefault("catalog.load_timeout", 30*time.Second)

	opt := optimizer.Defaults()
	v.SetDefault("optimizer.item_lookup_timeout", opt.ItemLookupTimeout)
	v.SetDefault("optimizer.search_limit", opt.SearchLimit)
	v.SetDefault("optimizer.max_basket_items", opt.MaxBasketItems)
	v.SetDefault("optimizer.max_stops", opt.MaxStops)
	v.SetDefault("optimizer.default_max_radius_km", opt.DefaultMaxRadiusKm)
	v.SetDefault("optimizer.default_max_stops", opt.DefaultMaxStops)
	v.SetDefault("optimizer.default_prioritize", opt.DefaultPrioritize)
	v.SetDefault("optimizer.breaker_max_failures", opt.BreakerMaxFailures)
	v.SetDefault("optimizer.breaker_reset_timeout", opt.BreakerResetTimeout)
	v.SetDefault("optimizer.breaker_half_open_max_calls", opt.BreakerHalfOpenMaxCalls)

	feed := ratelimit.DefaultConfig()
	v.SetDefault("ingestion.concurrency", 4)
	v.SetDefault("ingestion.feed.requests_per_second", feed.RequestsPerSecond)
	v.SetDefault("ingestion.feed.burst", feed.Burst)
	v.SetDefault("ingestion.feed.max_retries", feed.MaxRetries)
	v.SetDefault("ingestion.feed.initial_backoff_ms", feed.InitialBackoffMs)
	v.SetDefault("ingestion.feed.max_backoff_ms", feed.MaxBackoffMs)

	rl := middleware.DefaultRateLimiterConfig()
	v.SetDefault("rate_limit.requests_per_second", rl.RequestsPerSecond)
	v.SetDefault("rate_limit.burst", rl.BurstSize)
	v.SetDefault("rate_limit.idle_ttl", rl.IdleTTL)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.export_interval", 15*time.Second)
}
