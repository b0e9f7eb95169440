// Package llmopts provides LLM provider configuration options.
package llmopts

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/bookwise/bookchat/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions configures one LLM provider binding. Embedding and chat
// carry separate instances so they can use different providers or models.
type ProviderOptions struct {
	// Provider is the provider name (openai, ollama).
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL is the API base URL.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey is the API key. Falls back to the OPENAI_API_KEY environment
	// variable for the openai provider.
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model is the model name.
	Model string `json:"model" mapstructure:"model"`

	// Dimensions requests reduced-dimensionality embeddings when > 0.
	Dimensions int `json:"dimensions" mapstructure:"dimensions"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum number of retries.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization is the optional OpenAI organization ID.
	Organization string `json:"organization" mapstructure:"organization"`
}

// NewEmbeddingOptions creates default embedding provider options.
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "openai",
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Dimensions: 1024,
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// NewChatOptions creates default chat provider options.
func NewChatOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "openai",
		BaseURL:    "https://api.openai.com/v1",
		Model:      "gpt-3.5-turbo",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// ToConfigMap converts the options into the map consumed by the provider
// factory.
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"dimensions":   o.Dimensions,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"organization": o.Organization,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...) + "llm."
	fs.StringVar(&o.Provider, prefix+"provider", o.Provider, "LLM provider (openai, ollama).")
	fs.StringVar(&o.BaseURL, prefix+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, prefix+"api-key", o.APIKey, "LLM API key (DEPRECATED: use OPENAI_API_KEY env var instead).")
	fs.StringVar(&o.Model, prefix+"model", o.Model, "LLM model name.")
	fs.IntVar(&o.Dimensions, prefix+"dimensions", o.Dimensions, "Embedding dimensions (0 uses the model default).")
	fs.DurationVar(&o.Timeout, prefix+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, prefix+"max-retries", o.MaxRetries, "LLM maximum number of retries.")
	fs.StringVar(&o.Organization, prefix+"organization", o.Organization, "LLM organization ID (optional).")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("llm provider is required"))
	}
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("llm base-url is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("llm model is required"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm timeout must be positive"))
	}
	return errs
}
