package config

import (
	"os"
	"strings"
)

// normalize expands paths and fills environment-derived values so validation
// sees the effective configuration.
func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeLookup()
	c.normalizeLLM()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []*string{
		&c.Paths.LibraryDir,
		&c.Paths.OutputDir,
		&c.Paths.DataDir,
		&c.Paths.LogDir,
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}
	if strings.TrimSpace(c.Lookup.CachePath) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Lookup.CachePath))
		if err != nil {
			return err
		}
		c.Lookup.CachePath = expanded
	}
	return nil
}

func (c *Config) normalizeScan() {
	normalized := make([]string, 0, len(c.Scan.AudioExtensions))
	seen := make(map[string]struct{}, len(c.Scan.AudioExtensions))
	for _, ext := range c.Scan.AudioExtensions {
		cleaned := strings.ToLower(strings.TrimSpace(ext))
		if cleaned == "" {
			continue
		}
		if !strings.HasPrefix(cleaned, ".") {
			cleaned = "." + cleaned
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		normalized = append(normalized, cleaned)
	}
	if len(normalized) == 0 {
		normalized = defaultAudioExtensions()
	}
	c.Scan.AudioExtensions = normalized
}

func (c *Config) normalizeLookup() {
	c.Lookup.OpenLibraryBaseURL = strings.TrimRight(strings.TrimSpace(c.Lookup.OpenLibraryBaseURL), "/")
	c.Lookup.GoogleBooksBaseURL = strings.TrimRight(strings.TrimSpace(c.Lookup.GoogleBooksBaseURL), "/")
}

// envKeyForBackend maps a backend to the conventional environment variable
// carrying its API key.
func envKeyForBackend(backend string) string {
	switch backend {
	case "openai":
		return "OPENAI_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	case "sambanova":
		return "SAMBANOVA_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	default:
		return ""
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.Backend = strings.ToLower(strings.TrimSpace(c.LLM.Backend))
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	c.LLM.OllamaURL = strings.TrimRight(strings.TrimSpace(c.LLM.OllamaURL), "/")

	if c.LLM.APIKey == "" {
		if envKey := envKeyForBackend(c.LLM.Backend); envKey != "" {
			c.LLM.APIKey = strings.TrimSpace(os.Getenv(envKey))
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
