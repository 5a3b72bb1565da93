// Package engine provides binding engine configuration options.
package engine

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Options contains engine configuration.
type Options struct {
	// Workers bounds concurrent binding run execution.
	Workers int `json:"workers" mapstructure:"workers"`
	// QueueBuffer bounds enqueued-but-unconsumed jobs for the
	// in-process queue.
	QueueBuffer int `json:"queue-buffer" mapstructure:"queue-buffer"`
	// MaxAttempts bounds run attempts per delivery.
	MaxAttempts int `json:"max-attempts" mapstructure:"max-attempts"`
	// BaseBackoff is the first retry delay; subsequent delays double.
	BaseBackoff time.Duration `json:"base-backoff" mapstructure:"base-backoff"`
}

// NewOptions creates engine options with defaults.
func NewOptions() *Options {
	return &Options{
		Workers:     16,
		QueueBuffer: 4096,
		MaxAttempts: 3,
		BaseBackoff: 200 * time.Millisecond,
	}
}

// AddFlags adds engine flags to the flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.Workers, "engine.workers", o.Workers, "Concurrent binding run workers")
	fs.IntVar(&o.QueueBuffer, "engine.queue-buffer", o.QueueBuffer, "In-process queue buffer size")
	fs.IntVar(&o.MaxAttempts, "engine.max-attempts", o.MaxAttempts, "Run attempts before terminal failure")
	fs.DurationVar(&o.BaseBackoff, "engine.base-backoff", o.BaseBackoff, "Initial retry backoff")
}

// Validate checks the engine options.
func (o *Options) Validate() error {
	if o.Workers <= 0 {
		return fmt.Errorf("engine workers must be positive")
	}
	if o.MaxAttempts <= 0 {
		return fmt.Errorf("engine max attempts must be positive")
	}
	return nil
}
