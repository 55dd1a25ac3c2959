package bootstrap

import (
	"github.com/kbukum/flowgraph/config"
)

// Config is the constraint on application config types. Any struct that
// embeds config.Config satisfies it through promoted methods:
//
//	type MyConfig struct {
//	    config.Config `yaml:",inline" mapstructure:",squash"`
//	    Store StoreConfig `yaml:"store" mapstructure:"store"`
//	}
//
//	app, err := bootstrap.NewApp(&cfg)
type Config interface {
	GetConfig() *config.Config
	ApplyDefaults()
	Validate() error
}
