package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise/bookchat/pkg/llm"
)

func newTestProvider(serverURL string) *Provider {
	return NewProviderWithConfig(&Config{
		BaseURL:    serverURL,
		APIKey:     "test-key",
		EmbedModel: "text-embedding-3-small",
		ChatModel:  "gpt-3.5-turbo",
		Dimensions: 4,
		Timeout:    5 * time.Second,
		MaxRetries: 0,
	})
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	_, err := NewProvider(map[string]any{})
	require.Error(t, err)

	p, err := NewProvider(map[string]any{"api_key": "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, p.Name())
}

func TestEmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// Return data out of order; the provider must reorder by index.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"embedding": [0.4, 0.5, 0.6, 0.7], "index": 1},
				{"embedding": [0.1, 0.2, 0.3, 0.4], "index": 0}
			],
			"model": "text-embedding-3-small"
		}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	embeddings, err := p.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, embeddings[0])
	assert.Equal(t, []float32{0.4, 0.5, 0.6, 0.7}, embeddings[1])
}

func TestChatCompletionEchoesModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-3.5-turbo-0125",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Forward kinematics maps joint angles to pose."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 50, "completion_tokens": 12, "total_tokens": 62}
		}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	result, err := p.ChatCompletion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are a textbook assistant."},
			{Role: llm.RoleUser, Content: "What is forward kinematics?"},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Forward kinematics maps joint angles to pose.", result.Content)
	assert.Equal(t, "gpt-3.5-turbo-0125", result.Model)
	require.NotNil(t, result.TokenUsage)
	assert.Equal(t, 62, result.TokenUsage.TotalTokens)
}

func TestChatCompletionUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key"}}`))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	_, err := p.ChatCompletion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hello"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
