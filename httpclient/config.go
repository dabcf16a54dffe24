package httpclient

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/kbukum/microhttp/resilience"
	"github.com/kbukum/microhttp/validation"
)

const (
	defaultTimeout = 30 * time.Second
)

// Config configures one named HTTP client.
type Config struct {
	// BaseURL is the base URL relative request URLs are resolved against.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds the whole exchange, body included. Defaults to 30s.
	// Streaming callers that need longer should set it explicitly.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to every request. Message headers
	// with the same name win.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Auth configures credentials applied by the client's RoundTripper.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`

	// TLS configures TLS settings for the HTTP transport.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// HTTP2 enables HTTP/2 on the transport via golang.org/x/net/http2.
	HTTP2 bool `yaml:"http2" mapstructure:"http2"`

	// MaxIdleConnsPerHost caps pooled connections per host. Zero keeps the
	// net/http default.
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host"`

	// RateLimit paces outgoing requests. Nil disables it.
	RateLimit *resilience.RateLimiterConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Auth != nil && c.Auth.Type == AuthAPIKey {
		if c.Auth.In == "" {
			c.Auth.In = "header"
		}
		if c.Auth.Name == "" {
			c.Auth.Name = defaultAPIKeyName
		}
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	v := validation.New().
		URL("base_url", c.BaseURL, true).
		Custom(c.Timeout > 0, "timeout", "must be positive").
		Min("max_idle_conns_per_host", c.MaxIdleConnsPerHost, 0)
	if err := v.Err(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	if c.RateLimit != nil {
		if err := validation.Validate(c.RateLimit); err != nil {
			return err
		}
	}
	return nil
}

// FactoryConfig configures the default client and any number of named ones.
type FactoryConfig struct {
	// Default serves requests whose context names no client.
	Default Config `yaml:"default" mapstructure:"default"`
	// Clients maps client names to their configuration.
	Clients map[string]Config `yaml:"clients" mapstructure:"clients"`
}

// ApplyDefaults applies defaults to every client config.
func (c *FactoryConfig) ApplyDefaults() {
	c.Default.ApplyDefaults()
	for name, cfg := range c.Clients {
		cfg.ApplyDefaults()
		c.Clients[name] = cfg
	}
}

// Validate validates every client config, naming the offending client.
func (c *FactoryConfig) Validate() error {
	if err := c.Default.Validate(); err != nil {
		return fmt.Errorf("httpclient: default client: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(c.Clients)) {
		if name == "" {
			return fmt.Errorf("httpclient: client name must not be empty")
		}
		cfg := c.Clients[name]
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("httpclient: client %q: %w", name, err)
		}
	}
	return nil
}
