package ollama

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Options configures the Ollama client.
type Options struct {
	BaseURL    string        `json:"base-url" mapstructure:"base-url"`
	EmbedModel string        `json:"embed-model" mapstructure:"embed-model"`
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max-retries" mapstructure:"max-retries"`
}

// NewOptions returns default Ollama options.
func NewOptions() *Options {
	return &Options{
		BaseURL:    "http://localhost:11434",
		EmbedModel: "nomic-embed-text",
		Timeout:    60 * time.Second,
		MaxRetries: 2,
	}
}

// AddFlags adds Ollama flags to the flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BaseURL, "ollama.base-url", o.BaseURL, "Ollama server base URL")
	fs.StringVar(&o.EmbedModel, "ollama.embed-model", o.EmbedModel, "Model used for embedding")
	fs.DurationVar(&o.Timeout, "ollama.timeout", o.Timeout, "Request timeout")
	fs.IntVar(&o.MaxRetries, "ollama.max-retries", o.MaxRetries, "Retries for failed requests")
}

// Validate checks the options.
func (o *Options) Validate() error {
	if o.BaseURL == "" {
		return fmt.Errorf("ollama base URL must not be empty")
	}
	if o.EmbedModel == "" {
		return fmt.Errorf("ollama embed model must not be empty")
	}
	return nil
}
