package cli

import (
	"fmt"

	"github.com/kbukum/microhttp/codec"
	"github.com/kbukum/microhttp/config"
	"github.com/kbukum/microhttp/httpclient"
	"github.com/kbukum/microhttp/observability"
	"github.com/kbukum/microhttp/validation"
	"github.com/kbukum/microhttp/version"
)

const (
	serviceName = "microhttp"
	envPrefix   = "MICROHTTP"

	defaultBatchConcurrency = 8
)

// Config is the microhttp configuration file.
//
//	name: microhttp
//	http:
//	  default:
//	    base_url: https://api.example.com
//	    timeout: 10s
//	  clients:
//	    billing:
//	      base_url: https://billing.example.com
//	      auth: {type: bearer, token: secret}
//	codec:
//	  naming: snake_case
//	batch:
//	  max_concurrency: 4
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	HTTP          httpclient.FactoryConfig `yaml:"http" mapstructure:"http"`
	Codec         codec.Options            `yaml:"codec" mapstructure:"codec"`
	Batch         BatchConfig              `yaml:"batch" mapstructure:"batch"`
	Observability observability.Config     `yaml:"observability" mapstructure:"observability"`
}

// BatchConfig configures the batch command.
type BatchConfig struct {
	// MaxConcurrency caps in-flight batch items. Zero means unbounded.
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// DefaultConfig returns the values a configuration file overrides.
func DefaultConfig() *Config {
	return &Config{
		ServiceConfig: config.ServiceConfig{
			Name:    serviceName,
			Version: version.Get().Short(),
		},
		Codec: codec.DefaultOptions(),
		Batch: BatchConfig{MaxConcurrency: defaultBatchConcurrency},
	}
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.HTTP.ApplyDefaults()
	c.Codec.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Codec.Validate(); err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if err := validation.New().Min("batch.max_concurrency", c.Batch.MaxConcurrency, 0).Err(); err != nil {
		return err
	}
	return c.Observability.Validate()
}

func (c *Config) serviceInfo() observability.ServiceInfo {
	return observability.ServiceInfo{
		Name:        c.Name,
		Version:     c.Version,
		Environment: c.Environment,
	}
}
