package app

import (
	"fmt"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOptions struct {
	Endpoint string `mapstructure:"endpoint"`
	Limit    int    `mapstructure:"limit"`

	completed   int
	validateErr error
}

func (s *stubOptions) Flags() *NamedFlagSets { return &NamedFlagSets{} }

func (s *stubOptions) Complete() error {
	s.completed++
	return nil
}

func (s *stubOptions) Validate() error { return s.validateErr }

func TestNamedFlagSetsPreserveOrder(t *testing.T) {
	fss := &NamedFlagSets{}
	fss.FlagSet("server")
	fss.FlagSet("log")
	fss.FlagSet("server") // repeated lookup must not duplicate the section

	assert.Equal(t, []string{"server", "log"}, fss.Order)
	assert.Same(t, fss.FlagSets["server"], fss.FlagSet("server"))
}

func TestReloadConfigAppliesNewValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("endpoint", "milvus:19530")
	viper.Set("limit", 25)

	opts := &stubOptions{}
	a := &App{options: opts}
	a.reloadConfig()

	assert.Equal(t, "milvus:19530", opts.Endpoint)
	assert.Equal(t, 25, opts.Limit)
	assert.Equal(t, 1, opts.completed)
}

func TestReloadConfigKeepsOptionsOnValidationFailure(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	opts := &stubOptions{Endpoint: "initial", validateErr: fmt.Errorf("limit out of range")}
	a := &App{options: opts}

	viper.Set("endpoint", "changed")
	a.reloadConfig()

	// Unmarshal happens before validation; the reload is reported as failed
	// but must not panic or abort the process.
	require.Equal(t, 1, opts.completed)
	assert.Equal(t, "changed", opts.Endpoint)
}
