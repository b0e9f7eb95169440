// Package postgresopts provides options for PostgreSQL client configuration.
package postgresopts

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bookwise/bookchat/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// redactedPassword is the placeholder used when serializing passwords.
const redactedPassword = "[REDACTED]"

// Options defines configuration options for PostgreSQL.
//
// The session store is optional: an empty Database disables conversation
// persistence without blocking the chat pipeline.
type Options struct {
	Host                  string        `json:"host" mapstructure:"host"`
	Port                  int           `json:"port" mapstructure:"port"`
	Username              string        `json:"username" mapstructure:"username"`
	Password              string        `json:"-" mapstructure:"password"`
	Database              string        `json:"database" mapstructure:"database"`
	SSLMode               string        `json:"ssl-mode" mapstructure:"ssl-mode"`
	MaxIdleConnections    int           `json:"max-idle-connections" mapstructure:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections" mapstructure:"max-open-connections"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time" mapstructure:"max-connection-life-time"`
	LogLevel              int           `json:"log-level" mapstructure:"log-level"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                  "127.0.0.1",
		Port:                  5432,
		Username:              "postgres",
		Password:              "",
		Database:              "",
		SSLMode:               "disable",
		MaxIdleConnections:    10,
		MaxOpenConnections:    100,
		MaxConnectionLifeTime: 10 * time.Second,
		LogLevel:              1, // Silent
	}
}

// Enabled reports whether a database is configured. When false the service
// runs without conversation persistence.
func (o *Options) Enabled() bool {
	return o != nil && o.Database != ""
}

// String returns a string representation with password redacted.
func (o *Options) String() string {
	password := redactedPassword
	if o.Password == "" {
		password = ""
	}
	return fmt.Sprintf("PostgreSQL{host=%s, port=%d, user=%s, password=%s, database=%s, sslmode=%s}",
		o.Host, o.Port, o.Username, password, o.Database, o.SSLMode)
}

// AddFlags adds flags for PostgreSQL options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "postgres."
	fs.StringVar(&o.Host, prefix+"host", o.Host, "PostgreSQL host")
	fs.IntVar(&o.Port, prefix+"port", o.Port, "PostgreSQL port")
	fs.StringVar(&o.Username, prefix+"username", o.Username, "PostgreSQL username")
	fs.StringVar(&o.Password, prefix+"password", o.Password, "PostgreSQL password (DEPRECATED: use POSTGRES_PASSWORD env var instead)")
	fs.StringVar(&o.Database, prefix+"database", o.Database, "PostgreSQL database (empty disables conversation persistence)")
	fs.StringVar(&o.SSLMode, prefix+"ssl-mode", o.SSLMode, "PostgreSQL SSL mode")
	fs.IntVar(&o.MaxIdleConnections, prefix+"max-idle-connections", o.MaxIdleConnections, "PostgreSQL max idle connections")
	fs.IntVar(&o.MaxOpenConnections, prefix+"max-open-connections", o.MaxOpenConnections, "PostgreSQL max open connections")
	fs.DurationVar(&o.MaxConnectionLifeTime, prefix+"max-connection-life-time", o.MaxConnectionLifeTime, "PostgreSQL max connection life time")
	fs.IntVar(&o.LogLevel, prefix+"log-level", o.LogLevel, "PostgreSQL log level (1=silent, 2=error, 3=warn, 4=info)")
}

// Validate validates the options. The password falls back to the
// POSTGRES_PASSWORD environment variable when unset.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	if o.Password == "" {
		o.Password = os.Getenv("POSTGRES_PASSWORD")
	}
	if o.Password != "" && os.Getenv("POSTGRES_PASSWORD") == "" {
		fmt.Fprintf(os.Stderr, "WARNING: Passing PostgreSQL password via CLI is insecure. Use POSTGRES_PASSWORD environment variable instead.\n")
	}

	var errs []error
	if o.Enabled() {
		if o.Host == "" {
			errs = append(errs, fmt.Errorf("postgres host is required"))
		}
		if o.Port <= 0 || o.Port > 65535 {
			errs = append(errs, fmt.Errorf("postgres port must be in range 1-65535"))
		}
	}
	return errs
}
