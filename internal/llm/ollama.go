package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// ollamaClient speaks the native generate protocol of a local ollama
// server. The system and user prompts are combined into one prompt because
// generate has no message roles.
type ollamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (c *ollamaClient) Complete(ctx context.Context, req Request) (string, error) {
	system := strings.TrimSpace(req.System)
	user := strings.TrimSpace(req.User)
	if system == "" || user == "" {
		return "", errors.New("ollama complete: system and user prompts required")
	}
	payload := ollamaGenerateRequest{
		Model:   c.model,
		Prompt:  system + "\n\n" + user,
		Stream:  false,
		Options: map[string]any{"temperature": req.Temperature},
	}

	endpoint, err := url.JoinPath(c.baseURL, "/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama complete: build url: %w", err)
	}
	body, err := postJSON(ctx, c.httpClient, endpoint, "", payload)
	if err != nil {
		return "", fmt.Errorf("ollama complete: %w", err)
	}

	var generated ollamaGenerateResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return "", fmt.Errorf("ollama complete: decode response: %w", err)
	}
	content := strings.TrimSpace(generated.Response)
	if content == "" {
		return "", errors.New("ollama complete: empty response")
	}
	return content, nil
}
