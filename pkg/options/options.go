// Package options defines the generic options interface shared by all
// component configurations.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// Join concatenates prefixes with "." and appends a trailing "." when the
// result is non-empty. Used to build flag names like "postgres.host" or
// "prefix.postgres.host".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// IOptions is implemented by every component option struct.
type IOptions interface {
	// Validate validates all the required options. It may also complete
	// options where needed.
	Validate() []error

	// AddFlags adds flags related to this option set to the given flagset.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
