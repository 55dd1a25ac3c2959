package config

import (
	"fmt"
	"time"

	"github.com/kbukum/flowgraph/logger"
	"github.com/kbukum/flowgraph/observability"
	"github.com/kbukum/flowgraph/validation"
	"github.com/kbukum/flowgraph/version"
)

// Environments accepted by Validate.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config is the configuration of the flowgraph CLI and of services that
// embed the engine.
//
// Services extend it by embedding:
//
//	type MyConfig struct {
//	    config.Config `yaml:",inline" mapstructure:",squash"`
//	    Store StoreConfig `yaml:"store" mapstructure:"store"`
//	}
type Config struct {
	Name          string               `yaml:"name" mapstructure:"name" validate:"required"`
	Environment   string               `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version       string               `yaml:"version" mapstructure:"version"`
	Debug         bool                 `yaml:"debug" mapstructure:"debug"`
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Engine        EngineConfig         `yaml:"engine" mapstructure:"engine"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// EngineConfig controls how graphs are executed.
type EngineConfig struct {
	// Concurrency is the maximum number of nodes computed at once. Values of
	// one or less run nodes sequentially.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0,lte=1024"`
	// Verbose logs every node as it starts.
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	// DefinitionDirs are searched for definitions named by extends.
	DefinitionDirs []string `yaml:"definition_dirs" mapstructure:"definition_dirs"`
}

// GetConfig returns c. When Config is embedded, the method is promoted so
// the embedding struct can be handed to code that only needs the base.
func (c *Config) GetConfig() *Config {
	return c
}

// ApplyDefaults fills unset fields. Embedding structs call it first.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "flowgraph"
	}
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Version == "" {
		c.Version = version.GetShortVersion()
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()

	if c.Engine.Concurrency == 0 {
		c.Engine.Concurrency = 1
	}

	tr := &c.Observability.Tracing
	if tr.Enabled && tr.SampleRate == 0 {
		tr.SampleRate = 1.0
	}
	mt := &c.Observability.Metrics
	if mt.Enabled && mt.Interval == 0 {
		mt.Interval = 15 * time.Second
	}
}

// Validate checks the struct tags and the logging section.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
