// Package config provides configuration management for the strategy builder.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/quantrail/stratforge/internal/models"
)

const (
	// defaultShutdownTimeout is used when server.shutdown_timeout is unset
	defaultShutdownTimeout = "10s"
	// defaultPollInterval is used when order_service.poll_interval is unset
	defaultPollInterval = "2s"
	// defaultPollTimeout is used when order_service.poll_timeout is unset
	defaultPollTimeout = "45s"
	// defaultRequestTimeout is used when order_service.timeout is unset
	defaultRequestTimeout = "15s"
)

// Config represents the complete application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	OrderService OrderServiceConfig `yaml:"order_service"`
	Storage      StorageConfig      `yaml:"storage"`
	Engine       EngineConfig       `yaml:"engine"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig defines the dashboard HTTP server settings.
type ServerConfig struct {
	Port            int    `yaml:"port"`
	AuthToken       string `yaml:"auth_token"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// OrderServiceConfig defines upstream order-service API settings.
type OrderServiceConfig struct {
	BaseURL        string               `yaml:"base_url"`
	APIKey         string               `yaml:"api_key"`
	Timeout        string               `yaml:"timeout"`
	PollInterval   string               `yaml:"poll_interval"`
	PollTimeout    string               `yaml:"poll_timeout"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig tunes the breaker guarding order-service calls.
type CircuitBreakerConfig struct {
	MaxRequests  uint32  `yaml:"max_requests"`
	Interval     string  `yaml:"interval"`
	Timeout      string  `yaml:"timeout"`
	MinRequests  uint32  `yaml:"min_requests"`
	FailureRatio float64 `yaml:"failure_ratio"`
}

// StorageConfig defines storage settings for draft data.
type StorageConfig struct {
	Path    string `yaml:"path"`
	Backups bool   `yaml:"backups"`
}

// EngineConfig defines strategy-engine defaults and index overrides.
type EngineConfig struct {
	DefaultIndex  string              `yaml:"default_index"`
	DefaultExpiry string              `yaml:"default_expiry"`
	Indices       []IndexSpecOverride `yaml:"indices"`
}

// IndexSpecOverride overrides the compiled-in contract spec for one index.
type IndexSpecOverride struct {
	Symbol       string  `yaml:"symbol"`
	LotSize      int     `yaml:"lot_size"`
	StrikeStep   float64 `yaml:"strike_step"`
	ATMReference float64 `yaml:"atm_reference"`
}

// LoggingConfig defines log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks that all configuration values are valid and consistent.
// Missing durations are filled with defaults before checking.
func (c *Config) Validate() error {
	c.normalize()

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server.shutdown_timeout invalid: %w", err)
	}

	// Order service validation
	if c.OrderService.BaseURL == "" {
		return fmt.Errorf("order_service.base_url is required")
	}
	if !strings.HasPrefix(c.OrderService.BaseURL, "http://") && !strings.HasPrefix(c.OrderService.BaseURL, "https://") {
		return fmt.Errorf("order_service.base_url must start with http:// or https://")
	}
	for name, value := range map[string]string{
		"order_service.timeout":       c.OrderService.Timeout,
		"order_service.poll_interval": c.OrderService.PollInterval,
		"order_service.poll_timeout":  c.OrderService.PollTimeout,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s invalid: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	if c.OrderService.PollIntervalDuration() >= c.OrderService.PollTimeoutDuration() {
		return fmt.Errorf("order_service.poll_interval must be < order_service.poll_timeout")
	}

	// Circuit breaker validation
	cb := c.OrderService.CircuitBreaker
	if cb.FailureRatio < 0 || cb.FailureRatio > 1 {
		return fmt.Errorf("order_service.circuit_breaker.failure_ratio must be between 0 and 1")
	}
	if cb.Interval != "" {
		if _, err := time.ParseDuration(cb.Interval); err != nil {
			return fmt.Errorf("order_service.circuit_breaker.interval invalid: %w", err)
		}
	}
	if cb.Timeout != "" {
		if _, err := time.ParseDuration(cb.Timeout); err != nil {
			return fmt.Errorf("order_service.circuit_breaker.timeout invalid: %w", err)
		}
	}

	// Storage validation
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	// Engine validation
	if !models.IndexSymbol(c.Engine.DefaultIndex).Valid() {
		return fmt.Errorf("engine.default_index must be one of NIFTY, BANKNIFTY, FINNIFTY")
	}
	if !models.ExpiryType(c.Engine.DefaultExpiry).Valid() {
		return fmt.Errorf("engine.default_expiry must be WEEKLY or MONTHLY")
	}
	seen := make(map[string]bool, len(c.Engine.Indices))
	for i, spec := range c.Engine.Indices {
		if !models.IndexSymbol(spec.Symbol).Valid() {
			return fmt.Errorf("engine.indices[%d].symbol %q is not a supported index", i, spec.Symbol)
		}
		if seen[spec.Symbol] {
			return fmt.Errorf("engine.indices[%d].symbol %q is duplicated", i, spec.Symbol)
		}
		seen[spec.Symbol] = true
		if spec.LotSize <= 0 {
			return fmt.Errorf("engine.indices[%d].lot_size must be > 0", i)
		}
		if spec.StrikeStep <= 0 {
			return fmt.Errorf("engine.indices[%d].strike_step must be > 0", i)
		}
		if spec.ATMReference <= 0 {
			return fmt.Errorf("engine.indices[%d].atm_reference must be > 0", i)
		}
	}

	// Logging validation
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}

	return nil
}

// IndexSpecs merges the configured index overrides over the compiled-in
// defaults and returns the effective contract-spec table.
func (c *Config) IndexSpecs() models.IndexSpecs {
	specs := models.DefaultIndexSpecs()
	for _, o := range c.Engine.Indices {
		specs[models.IndexSymbol(o.Symbol)] = models.IndexSpec{
			Symbol:       models.IndexSymbol(o.Symbol),
			LotSize:      o.LotSize,
			StrikeStep:   o.StrikeStep,
			ATMReference: o.ATMReference,
		}
	}
	return specs
}

// ShutdownTimeout returns the configured server shutdown grace period.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second // default
	}
	return d
}

// RequestTimeout returns the per-request timeout for order-service calls.
func (o *OrderServiceConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(o.Timeout)
	if err != nil {
		return 15 * time.Second // default
	}
	return d
}

// PollIntervalDuration returns the submission-status polling cadence.
func (o *OrderServiceConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(o.PollInterval)
	if err != nil {
		return 2 * time.Second // default
	}
	return d
}

// PollTimeoutDuration returns how long submission polling may run overall.
func (o *OrderServiceConfig) PollTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(o.PollTimeout)
	if err != nil {
		return 45 * time.Second // default
	}
	return d
}

// BreakerInterval returns the breaker's closed-state counting window.
func (cb *CircuitBreakerConfig) BreakerInterval() time.Duration {
	d, err := time.ParseDuration(cb.Interval)
	if err != nil {
		return 60 * time.Second // default
	}
	return d
}

// BreakerTimeout returns how long the breaker stays open before half-open.
func (cb *CircuitBreakerConfig) BreakerTimeout() time.Duration {
	d, err := time.ParseDuration(cb.Timeout)
	if err != nil {
		return 30 * time.Second // default
	}
	return d
}

// normalize fills unset fields with defaults
func (c *Config) normalize() {
	if c.Server.Port == 0 {
		c.Server.Port = 9000
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.OrderService.Timeout == "" {
		c.OrderService.Timeout = defaultRequestTimeout
	}
	if c.OrderService.PollInterval == "" {
		c.OrderService.PollInterval = defaultPollInterval
	}
	if c.OrderService.PollTimeout == "" {
		c.OrderService.PollTimeout = defaultPollTimeout
	}
	if c.Engine.DefaultIndex == "" {
		c.Engine.DefaultIndex = string(models.IndexNifty)
	}
	if c.Engine.DefaultExpiry == "" {
		c.Engine.DefaultExpiry = string(models.ExpiryWeekly)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
