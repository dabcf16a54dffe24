package bootstrap

import (
	"github.com/kbukum/microhttp/config"
)

// Config is the constraint for application configuration types. Any struct
// that embeds config.ServiceConfig by value satisfies it through promoted
// methods, as long as it also provides its own ApplyDefaults and Validate.
//
// Example:
//
//	type CLIConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    HTTP httpclient.FactoryConfig `yaml:"http" mapstructure:"http"`
//	}
//
//	app, err := bootstrap.NewApp(&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
