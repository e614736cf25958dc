package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-sentinel/internal/config"
	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
)

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, anthropicModel, req.Model)
		assert.Equal(t, 4000, req.MaxTokens)
		assert.Equal(t, "be brief", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "summarize this", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content": [{"type": "text", "text": "the summary"}]}`))
	}))
	defer server.Close()

	client := NewAnthropic(server.URL, "test-key", "", 4000)

	out, err := client.Generate(context.Background(), "be brief", "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "the summary", out)
}

func TestAnthropicGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer server.Close()

	client := NewAnthropic(server.URL, "test-key", "", 0)

	_, err := client.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, apperrors.IsGeneration(err))
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAnthropicGenerateEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": []}`))
	}))
	defer server.Close()

	client := NewAnthropic(server.URL, "test-key", "", 0)

	_, err := client.Generate(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, apperrors.IsGeneration(err))
}

func TestAnthropicDefaults(t *testing.T) {
	client, ok := NewAnthropic("", "key", "", 0).(*anthropicClient)
	require.True(t, ok)
	assert.Equal(t, anthropicBaseURL, client.baseURL)
	assert.Equal(t, anthropicModel, client.model)
}

func TestDeepSeekGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer ds-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "the summary"}}]}`))
	}))
	defer server.Close()

	client := NewDeepSeek(server.URL, "ds-key", "", 0)

	out, err := client.Generate(context.Background(), "be brief", "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "the summary", out)
}

func TestDeepSeekDefaults(t *testing.T) {
	client, ok := NewDeepSeek("", "key", "", 0).(*deepseekClient)
	require.True(t, ok)
	assert.Equal(t, deepseekBaseURL, client.baseURL)
	assert.Equal(t, deepseekModel, client.model)
}

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)

		w.Write([]byte(`{"message": {"role": "assistant", "content": "local summary"}}`))
	}))
	defer server.Close()

	client := NewOllama(server.URL, "llama3")

	out, err := client.Generate(context.Background(), "be brief", "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "local summary", out)
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantErr  bool
	}{
		{name: "anthropic", provider: "anthropic"},
		{name: "deepseek", provider: "deepseek"},
		{name: "ollama", provider: "ollama"},
		{name: "unknown provider", provider: "gpt9000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{LLMProvider: tt.provider, LLMAPIKey: "k"}
			client, err := NewFromConfig(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewFromConfigHonorsBaseURL(t *testing.T) {
	cfg := &config.Config{LLMProvider: "anthropic", LLMAPIKey: "k", LLMBaseURL: "http://proxy:9000"}
	client, err := NewFromConfig(cfg)
	require.NoError(t, err)

	anthropic, ok := client.(*anthropicClient)
	require.True(t, ok)
	assert.Equal(t, "http://proxy:9000", anthropic.baseURL)
}
