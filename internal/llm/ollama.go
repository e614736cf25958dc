package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
)

const (
	ollamaBaseURL = "http://localhost:11434"
	ollamaModel   = "llama3"
)

// ollamaClient implements Client against a local Ollama server
type ollamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllama creates a client for a local Ollama server. An empty baseURL
// uses the default local endpoint. No credential is needed.
func NewOllama(baseURL, model string) Client {
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	if model == "" {
		model = ollamaModel
	}
	return &ollamaClient{
		baseURL:    baseURL,
		model:      model,
		httpClient: newHTTPClient(),
	}
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaResponse struct {
	Message chatMessage `json:"message"`
}

// Generate implements Client
func (c *ollamaClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := ollamaRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperrors.NewGenerationError("failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewGenerationError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewGenerationError("completion request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", apperrors.NewGenerationError(fmt.Sprintf("completion API error: %s - %s", resp.Status, string(data)), nil)
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperrors.NewGenerationError("failed to decode response", err)
	}
	if parsed.Message.Content == "" {
		return "", apperrors.NewGenerationError("completion returned no content", nil)
	}
	return parsed.Message.Content, nil
}
