// Package llm provides a unified abstraction over LLM providers. Embedding
// and chat completion may be served by different providers; implementations
// register themselves via init() and are constructed from a config map.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// EmbeddingProvider generates vector embeddings for text.
type EmbeddingProvider interface {
	// Embed generates embeddings for multiple texts, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider name.
	Name() string
}

// ChatProvider generates chat completions.
type ChatProvider interface {
	// ChatCompletion runs a chat completion for the given request.
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the provider name.
	Name() string
}

// Message is one turn in a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatRequest carries the message sequence and per-call generation
// parameters. Zero-valued parameters fall back to the provider's configured
// defaults (or the API's own defaults).
type ChatRequest struct {
	Messages []Message

	// Model overrides the provider's configured chat model when non-empty.
	Model string

	// Temperature is the sampling temperature; applied when > 0.
	Temperature float64

	// MaxTokens bounds the completion length; applied when > 0.
	MaxTokens int
}

// ChatResult is the outcome of a chat completion.
type ChatResult struct {
	// Content is the generated text.
	Content string

	// Model is the model identifier echoed by the API, which may differ
	// from the requested alias.
	Model string

	// TokenUsage reports token accounting when the API provides it.
	TokenUsage *TokenUsage
}

// TokenUsage reports token consumption for one completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Pinger is implemented by providers that support a lightweight
// reachability probe, used by health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Provider serves both embeddings and chat completions.
type Provider interface {
	EmbeddingProvider
	ChatProvider
}

// ProviderFactory constructs a full provider from a config map.
type ProviderFactory func(config map[string]any) (Provider, error)

var registry = &providerRegistry{
	providers: make(map[string]ProviderFactory),
}

type providerRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// RegisterProvider registers a provider factory under the given name.
// Called from provider package init() functions.
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// NewProvider constructs a provider by name.
func NewProvider(name string, config map[string]any) (Provider, error) {
	registry.mu.RLock()
	factory, ok := registry.providers[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	return factory(config)
}

// NewEmbeddingProvider constructs a provider by name for embedding use.
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	return NewProvider(name, config)
}

// NewChatProvider constructs a provider by name for chat use.
func NewChatProvider(name string, config map[string]any) (ChatProvider, error) {
	return NewProvider(name, config)
}

// ListProviders returns the names of all registered providers.
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	return names
}
