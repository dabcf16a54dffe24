// Package config loads microhttp configuration from a YAML file, an optional
// .env file and the process environment, in that order of precedence
// (environment wins).
//
// # Usage
//
//	var cfg CLIConfig
//	if err := config.Load("microhttp", &cfg, config.WithConfigFile(path)); err != nil {
//	    return err
//	}
//
// Environment variables map onto nested keys by splitting on underscores:
// HTTP_DEFAULT_TIMEOUT sets http.default.timeout. WithEnvPrefix restricts
// binding to variables such as MICROHTTP_HTTP_DEFAULT_TIMEOUT.
package config
