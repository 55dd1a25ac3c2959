// Package config loads flowgraph configuration with Viper.
//
// A YAML config file is found in the working directory (flowgraph.yml,
// config/flowgraph.yml, config.yml, ...) or named explicitly. A .env file is
// loaded into the environment, and variables prefixed with the upper-cased
// service name override file values:
//
//	FLOWGRAPH_ENGINE_CONCURRENCY=8
//	FLOWGRAPH_LOGGING_LEVEL=debug
//
// # Usage
//
//	var cfg config.Config
//	if err := config.LoadConfig("flowgraph", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
