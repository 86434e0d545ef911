package config

import (
	"fmt"
	"strings"
)

var allowedBackends = []string{"openai", "groq", "sambanova", "mistral", "ollama"}

var allowedLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	var problems []string

	problems = append(problems, c.validatePaths()...)
	problems = append(problems, c.validateScan()...)
	problems = append(problems, c.validateLookup()...)
	problems = append(problems, c.validateLLM()...)
	problems = append(problems, c.validateNotifications()...)
	problems = append(problems, c.validateLogging()...)

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validatePaths() []string {
	var problems []string
	if c.Paths.LibraryDir == "" {
		problems = append(problems, "paths.library_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		problems = append(problems, "paths.output_dir must be set")
	}
	if c.Paths.DataDir == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	return problems
}

func (c *Config) validateScan() []string {
	if len(c.Scan.AudioExtensions) == 0 {
		return []string{"scan.audio_extensions must list at least one extension"}
	}
	return nil
}

func (c *Config) validateLookup() []string {
	var problems []string
	if c.Lookup.OpenLibraryBaseURL == "" {
		problems = append(problems, "lookup.openlibrary_base_url must be set")
	}
	if c.Lookup.GoogleBooksBaseURL == "" {
		problems = append(problems, "lookup.googlebooks_base_url must be set")
	}
	if c.Lookup.RequestIntervalMS <= 0 {
		problems = append(problems, "lookup.request_interval_ms must be positive")
	}
	if c.Lookup.TimeoutSeconds <= 0 {
		problems = append(problems, "lookup.timeout_seconds must be positive")
	}
	if c.Lookup.CacheTTLHours <= 0 {
		problems = append(problems, "lookup.cache_ttl_hours must be positive")
	}
	return problems
}

func (c *Config) validateLLM() []string {
	var problems []string
	valid := false
	for _, backend := range allowedBackends {
		if c.LLM.Backend == backend {
			valid = true
			break
		}
	}
	if !valid {
		problems = append(problems, fmt.Sprintf("llm.backend must be one of %s", strings.Join(allowedBackends, ", ")))
	}
	if c.LLM.Model == "" {
		problems = append(problems, "llm.model must be set")
	}
	if c.LLM.Backend == "ollama" && c.LLM.OllamaURL == "" {
		problems = append(problems, "llm.ollama_url must be set for the ollama backend")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		problems = append(problems, "llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens <= 0 {
		problems = append(problems, "llm.max_tokens must be positive")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		problems = append(problems, "llm.timeout_seconds must be positive")
	}
	return problems
}

func (c *Config) validateNotifications() []string {
	if c.Notifications.NtfyTopic != "" && c.Notifications.RequestTimeout <= 0 {
		return []string{"notifications.request_timeout must be positive"}
	}
	return nil
}

func (c *Config) validateLogging() []string {
	var problems []string
	if _, ok := allowedLogFormats[c.Logging.Format]; !ok {
		problems = append(problems, "logging.format must be console or json")
	}
	if _, ok := allowedLogLevels[c.Logging.Level]; !ok {
		problems = append(problems, "logging.level must be debug, info, warn, or error")
	}
	return problems
}
