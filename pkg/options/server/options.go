// Package serveropts provides HTTP server configuration options.
package serveropts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/bookwise/bookchat/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains HTTP server configuration.
type Options struct {
	// Addr is the listen address (host:port).
	Addr string `json:"addr" mapstructure:"addr"`

	// Mode is the gin mode (debug|release|test).
	Mode string `json:"mode" mapstructure:"mode"`

	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `json:"read-timeout" mapstructure:"read-timeout"`

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`

	// CORSOrigins lists allowed CORS origins. "*" allows all.
	CORSOrigins []string `json:"cors-origins" mapstructure:"cors-origins"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Addr:            ":8000",
		Mode:            "release",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "server."
	fs.StringVar(&o.Addr, prefix+"addr", o.Addr, "HTTP server listen address (host:port).")
	fs.StringVar(&o.Mode, prefix+"mode", o.Mode, "Gin mode (debug|release|test).")
	fs.DurationVar(&o.ReadTimeout, prefix+"read-timeout", o.ReadTimeout, "Maximum duration for reading a request.")
	fs.DurationVar(&o.WriteTimeout, prefix+"write-timeout", o.WriteTimeout, "Maximum duration for writing a response.")
	fs.DurationVar(&o.ShutdownTimeout, prefix+"shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")
	fs.StringSliceVar(&o.CORSOrigins, prefix+"cors-origins", o.CORSOrigins, "Allowed CORS origins.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Addr == "" {
		errs = append(errs, fmt.Errorf("server addr is required"))
	}
	switch o.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("invalid server mode %q", o.Mode))
	}
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server shutdown-timeout must be positive"))
	}
	return errs
}
