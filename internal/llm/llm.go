package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kurihiro0119/github-sentinel/internal/config"
)

// Client is the capability interface for a chat-style completion backend.
// Backends differ only in endpoint and credential handling; callers depend
// on nothing else.
type Client interface {
	// Generate sends one system instruction and one user message and
	// returns the first completion's text verbatim
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// completionTimeout bounds a single generation call. Summaries over large
// item dumps can take a while on slower backends.
const completionTimeout = 120 * time.Second

// NewFromConfig constructs the backend selected by configuration
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		return NewAnthropic(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens), nil
	case "deepseek":
		return NewDeepSeek(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens), nil
	case "ollama":
		return NewOllama(cfg.LLMBaseURL, cfg.LLMModel), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: completionTimeout,
	}
}
