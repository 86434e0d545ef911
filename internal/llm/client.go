// Package llm asks a configured language model backend to complete entry
// metadata that tags and catalog lookups left unresolved. Four backends
// speak the OpenAI chat completion protocol; ollama speaks its native
// generate protocol. Model answers are advisory and every failure degrades
// to "no suggestion".
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bindery/internal/config"
	"bindery/internal/logging"
	"bindery/internal/services"
)

const (
	jsonResponseType   = "json_object"
	defaultHTTPTimeout = 60 * time.Second
)

// Request carries one completion exchange.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	JSONObject  bool
}

// Completer is the transport behind the Suggester. A refusal yields empty
// content and a nil error; the caller treats empty content as no result.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

var (
	_ Completer = (*chatClient)(nil)
	_ Completer = (*ollamaClient)(nil)
)

// Option customizes client construction.
type Option func(*options)

type options struct {
	httpClient *http.Client
	completer  Completer
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithCompleter replaces the backend transport entirely.
func WithCompleter(completer Completer) Option {
	return func(o *options) {
		if completer != nil {
			o.completer = completer
		}
	}
}

func newCompleter(cfg *config.Config, logger *slog.Logger, opts options) (Completer, error) {
	backend, err := ParseBackend(cfg.LLM.Backend)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "llm", "new", "invalid backend", err)
	}
	httpClient := opts.httpClient
	if httpClient == nil {
		timeout := defaultHTTPTimeout
		if cfg.LLM.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if backend == BackendOllama {
		return &ollamaClient{
			baseURL:    cfg.LLM.OllamaURL,
			model:      cfg.LLM.Model,
			httpClient: httpClient,
			logger:     logger,
		}, nil
	}
	baseURL := strings.TrimSpace(cfg.LLM.BaseURL)
	if baseURL == "" {
		baseURL = backend.ChatBaseURL()
	}
	return &chatClient{
		backend:    backend,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.LLM.APIKey),
		model:      strings.TrimSpace(cfg.LLM.Model),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// chatClient covers the OpenAI-compatible backends.
type chatClient struct {
	backend    Backend
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *chatClient) Complete(ctx context.Context, req Request) (string, error) {
	system := strings.TrimSpace(req.System)
	user := strings.TrimSpace(req.User)
	if system == "" || user == "" {
		return "", errors.New("llm complete: system and user prompts required")
	}
	if c.apiKey == "" {
		return "", errors.New("llm complete: api key required")
	}
	payload := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONObject {
		payload.ResponseFormat = map[string]string{"type": jsonResponseType}
	}

	endpoint, err := url.JoinPath(c.baseURL, "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("llm complete: build url: %w", err)
	}
	body, err := postJSON(ctx, c.httpClient, endpoint, c.apiKey, payload)
	if err != nil {
		return "", fmt.Errorf("llm complete: %w", err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("llm complete: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("llm complete: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("llm complete: empty choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		if refusal := strings.TrimSpace(completion.Choices[0].Message.Refusal); refusal != "" {
			c.logger.Warn("Model refused the request",
				logging.String(logging.FieldBackend, c.backend.String()),
				logging.String("refusal", refusal))
			return "", nil
		}
		return "", errors.New("llm complete: empty content")
	}
	return content, nil
}

// postJSON issues an authorized POST and returns the raw body. Any status
// of 300 or above is an error carrying the body text.
func postJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
