// Package options contains flags and options for initializing the Loom
// server.
package options

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/loomhq/loom/internal/loom"
	"github.com/loomhq/loom/pkg/component/ollama"
	dbopts "github.com/loomhq/loom/pkg/options/db"
	engineopts "github.com/loomhq/loom/pkg/options/engine"
	httpopts "github.com/loomhq/loom/pkg/options/http"
	logopts "github.com/loomhq/loom/pkg/options/logger"
	redisopts "github.com/loomhq/loom/pkg/options/redis"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	HTTPOptions   *httpopts.Options   `json:"http" mapstructure:"http"`
	LogOptions    *logopts.Options    `json:"log" mapstructure:"log"`
	DBOptions     *dbopts.Options     `json:"db" mapstructure:"db"`
	RedisOptions  *redisopts.Options  `json:"redis" mapstructure:"redis"`
	EngineOptions *engineopts.Options `json:"engine" mapstructure:"engine"`
	OllamaOptions *ollama.Options     `json:"ollama" mapstructure:"ollama"`
}

// NewServerOptions creates a ServerOptions instance with default
// values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:   httpopts.NewOptions(),
		LogOptions:    logopts.NewOptions(),
		DBOptions:     dbopts.NewOptions(),
		RedisOptions:  redisopts.NewOptions(),
		EngineOptions: engineopts.NewOptions(),
		OllamaOptions: ollama.NewOptions(),
	}
}

// AddFlags adds all server flags to the flag set.
func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	o.HTTPOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.DBOptions.AddFlags(fs)
	o.RedisOptions.AddFlags(fs)
	o.EngineOptions.AddFlags(fs)
	o.OllamaOptions.AddFlags(fs)
}

// Complete fills in derived defaults.
func (o *ServerOptions) Complete() error {
	return nil
}

// Validate checks whether the options are valid.
func (o *ServerOptions) Validate() error {
	if err := o.HTTPOptions.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := o.LogOptions.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := o.DBOptions.Validate(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if err := o.RedisOptions.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := o.EngineOptions.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := o.OllamaOptions.Validate(); err != nil {
		return fmt.Errorf("ollama: %w", err)
	}
	return nil
}

// Config builds a loom.Config from the options.
func (o *ServerOptions) Config() *loom.Config {
	return &loom.Config{
		HTTPOptions:   o.HTTPOptions,
		LogOptions:    o.LogOptions,
		DBOptions:     o.DBOptions,
		RedisOptions:  o.RedisOptions,
		EngineOptions: o.EngineOptions,
		OllamaOptions: o.OllamaOptions,
	}
}
