package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"bindery/internal/config"
	"bindery/internal/logging"
)

// Suggestion is the model's proposed completion of the four entry fields.
// Values are raw model output; the caller applies its own cleaning rules
// before merging.
type Suggestion struct {
	Author      string
	Title       string
	Series      string
	SeriesIndex string
}

// Suggester runs disambiguation prompts against the configured backend.
type Suggester struct {
	completer   Completer
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// New builds a Suggester for the configured backend. An unsupported
// backend name is a configuration error.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Suggester, error) {
	log := logging.NewComponentLogger(logger, "llm")
	options := options{}
	for _, opt := range opts {
		opt(&options)
	}
	completer := options.completer
	if completer == nil {
		built, err := newCompleter(cfg, log, options)
		if err != nil {
			return nil, err
		}
		completer = built
	}
	return &Suggester{
		completer:   completer,
		temperature: cfg.LLM.Temperature,
		maxTokens:   cfg.LLM.MaxTokens,
		logger:      log,
	}, nil
}

// Suggest asks the model to complete the entry's metadata. Transport
// failures, refusals, and unusable responses all degrade to no suggestion.
func (s *Suggester) Suggest(ctx context.Context, input PromptInput) (Suggestion, bool) {
	log := logging.WithContext(ctx, s.logger)
	content, err := s.completer.Complete(ctx, Request{
		System:      librarianSystemPrompt,
		User:        buildUserPrompt(input),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		JSONObject:  true,
	})
	if err != nil {
		logging.WarnWithContext(log, "Disambiguation request failed", "llm_request_error",
			logging.Error(err),
			logging.String(logging.FieldImpact, "entry keeps its current metadata"))
		return Suggestion{}, false
	}
	if content == "" {
		log.Warn("Model returned no usable content")
		return Suggestion{}, false
	}
	suggestion, err := parseSuggestion(content)
	if err != nil {
		logging.WarnWithContext(log, "Disambiguation response unusable", "llm_parse_error",
			logging.Error(err),
			logging.String(logging.FieldImpact, "entry keeps its current metadata"))
		return Suggestion{}, false
	}
	log.Info("Model suggestion parsed",
		logging.String("suggested_title", suggestion.Title),
		logging.String("suggested_series", suggestion.Series))
	return suggestion, true
}

// parseSuggestion slices the response from the first "{" to the last "}"
// to shed prose and code fences, then requires all four fields to be
// present. Values may be empty.
func parseSuggestion(content string) (Suggestion, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return Suggestion{}, errors.New("no JSON object in response")
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &fields); err != nil {
		return Suggestion{}, fmt.Errorf("decode response object: %w", err)
	}
	for _, key := range []string{"title", "author", "series", "series_index"} {
		if _, ok := fields[key]; !ok {
			return Suggestion{}, fmt.Errorf("response missing %q", key)
		}
	}
	return Suggestion{
		Author:      fieldString(fields["author"]),
		Title:       fieldString(fields["title"]),
		Series:      fieldString(fields["series"]),
		SeriesIndex: fieldString(fields["series_index"]),
	}, nil
}

// fieldString renders a decoded JSON value as entry field text. Models
// sometimes return the series index as a number.
func fieldString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
