// Package redis provides Redis configuration options.
package redis

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Options contains Redis configuration.
type Options struct {
	// Enable switches the job queue from in-process to Redis.
	Enable    bool   `json:"enable" mapstructure:"enable"`
	Addr      string `json:"addr" mapstructure:"addr"`
	Password  string `json:"password" mapstructure:"password"`
	DB        int    `json:"db" mapstructure:"db"`
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
}

// NewOptions creates Redis options with defaults.
func NewOptions() *Options {
	return &Options{
		Enable:    false,
		Addr:      "localhost:6379",
		DB:        0,
		KeyPrefix: "loom",
	}
}

// AddFlags adds Redis flags to the flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enable, "redis.enable", o.Enable, "Use Redis for the job queue")
	fs.StringVar(&o.Addr, "redis.addr", o.Addr, "Redis server address")
	fs.StringVar(&o.Password, "redis.password", o.Password, "Redis password")
	fs.IntVar(&o.DB, "redis.db", o.DB, "Redis database number")
	fs.StringVar(&o.KeyPrefix, "redis.key-prefix", o.KeyPrefix, "Key prefix for queue keys")
}

// Validate checks the Redis options.
func (o *Options) Validate() error {
	if o.Enable && o.Addr == "" {
		return fmt.Errorf("redis address must not be empty when redis is enabled")
	}
	return nil
}
