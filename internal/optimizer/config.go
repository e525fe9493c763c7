package optimizer

import "time"

// Config holds the configuration for basket comparison.
// It is loaded from environment variables or a config file.
type Config struct {
	// Resolution
	ItemLookupTimeout time.Duration `mapstructure:"item_lookup_timeout" env:"ITEM_LOOKUP_TIMEOUT" default:"2s"`
	SearchLimit       int           `mapstructure:"search_limit" env:"SEARCH_LIMIT" default:"50"`

	// Validation limits
	MaxBasketItems int `mapstructure:"max_basket_items" env:"MAX_BASKET_ITEMS" default:"100"`
	MaxStops       int `mapstructure:"max_stops" env:"MAX_STOPS" default:"5"`

	// Request defaults (reserved, echoed back but not used for ranking)
	DefaultMaxRadiusKm float64 `mapstructure:"default_max_radius_km" env:"DEFAULT_MAX_RADIUS_KM" default:"10"`
	DefaultMaxStops    int     `mapstructure:"default_max_stops" env:"DEFAULT_MAX_STOPS" default:"3"`
	DefaultPrioritize  string  `mapstructure:"default_prioritize" env:"DEFAULT_PRIORITIZE" default:"balanced"`

	// Circuit breaker guarding the catalog provider
	BreakerMaxFailures      int           `mapstructure:"breaker_max_failures" env:"BREAKER_MAX_FAILURES" default:"5"`
	BreakerResetTimeout     time.Duration `mapstructure:"breaker_reset_timeout" env:"BREAKER_RESET_TIMEOUT" default:"30s"`
	BreakerHalfOpenMaxCalls int           `mapstructure:"breaker_half_open_max_calls" env:"BREAKER_HALF_OPEN_MAX_CALLS" default:"3"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		ItemLookupTimeout:       2 * time.Second,
		SearchLimit:             50,
		MaxBasketItems:          100,
		MaxStops:                5,
		DefaultMaxRadiusKm:      10,
		DefaultMaxStops:         3,
		DefaultPrioritize:       PrioritizeBalanced,
		BreakerMaxFailures:      5,
		BreakerResetTimeout:     30 * time.Second,
		BreakerHalfOpenMaxCalls: 3,
	}
}

// BreakerConfig returns the circuit breaker settings.
func (c *Config) BreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      c.BreakerMaxFailures,
		ResetTimeout:     c.BreakerResetTimeout,
		HalfOpenMaxCalls: c.BreakerHalfOpenMaxCalls,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.ItemLookupTimeout <= 0 {
		return ErrInvalidConfig{Field: "item_lookup_timeout", Reason: "must be positive"}
	}
	if c.SearchLimit < 0 {
		return ErrInvalidConfig{Field: "search_limit", Reason: "must be non-negative"}
	}
	if c.MaxBasketItems < 1 {
		return ErrInvalidConfig{Field: "max_basket_items", Reason: "must be at least 1"}
	}
	if c.MaxStops < 1 {
		return ErrInvalidConfig{Field: "max_stops", Reason: "must be at least 1"}
	}
	if c.DefaultMaxRadiusKm <= 0 {
		return ErrInvalidConfig{Field: "default_max_radius_km", Reason: "must be positive"}
	}
	if c.DefaultMaxStops < 1 || c.DefaultMaxStops > c.MaxStops {
		return ErrInvalidConfig{Field: "default_max_stops", Reason: "must be between 1 and max_stops"}
	}
	if !IsValidPrioritize(c.DefaultPrioritize) {
		return ErrInvalidConfig{Field: "default_prioritize", Reason: "must be one of price, distance, balanced"}
	}
	if c.BreakerMaxFailures < 1 {
		return ErrInvalidConfig{Field: "breaker_max_failures", Reason: "must be at least 1"}
	}
	if c.BreakerResetTimeout <= 0 {
		return ErrInvalidConfig{Field: "breaker_reset_timeout", Reason: "must be positive"}
	}
	if c.BreakerHalfOpenMaxCalls < 1 {
		return ErrInvalidConfig{Field: "breaker_half_open_max_calls", Reason: "must be at least 1"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
