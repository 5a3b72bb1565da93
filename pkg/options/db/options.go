// Package db provides database configuration options.
package db

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options contains database configuration.
type Options struct {
	Driver          string        `json:"driver" mapstructure:"driver"`
	DSN             string        `json:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int           `json:"max-open-conns" mapstructure:"max-open-conns"`
	MaxIdleConns    int           `json:"max-idle-conns" mapstructure:"max-idle-conns"`
	ConnMaxLifetime time.Duration `json:"conn-max-lifetime" mapstructure:"conn-max-lifetime"`
	LogLevel        string        `json:"log-level" mapstructure:"log-level"`
}

// NewOptions creates database options with defaults. The default is a
// local SQLite file so the server runs with no external services.
func NewOptions() *Options {
	return &Options{
		Driver:          DriverSQLite,
		DSN:             "loom.db",
		MaxOpenConns:    50,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		LogLevel:        "warn",
	}
}

// AddFlags adds database flags to the flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Driver, "db.driver", o.Driver, "Database driver (sqlite|postgres)")
	fs.StringVar(&o.DSN, "db.dsn", o.DSN, "Database connection string")
	fs.IntVar(&o.MaxOpenConns, "db.max-open-conns", o.MaxOpenConns, "Maximum open connections")
	fs.IntVar(&o.MaxIdleConns, "db.max-idle-conns", o.MaxIdleConns, "Maximum idle connections")
	fs.DurationVar(&o.ConnMaxLifetime, "db.conn-max-lifetime", o.ConnMaxLifetime, "Connection lifetime limit")
	fs.StringVar(&o.LogLevel, "db.log-level", o.LogLevel, "GORM log level (silent|error|warn|info)")
}

// Validate checks the database options.
func (o *Options) Validate() error {
	if o.Driver != DriverSQLite && o.Driver != DriverPostgres {
		return fmt.Errorf("unsupported database driver %q", o.Driver)
	}
	if o.DSN == "" {
		return fmt.Errorf("database DSN must not be empty")
	}
	return nil
}
