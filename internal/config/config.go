package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"`
	OutputDir  string `toml:"output_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
}

// Scan contains configuration for directory discovery.
type Scan struct {
	AudioExtensions []string `toml:"audio_extensions"`
}

// Lookup contains configuration for the bibliographic provider clients.
type Lookup struct {
	OpenLibraryBaseURL string `toml:"openlibrary_base_url"`
	GoogleBooksBaseURL string `toml:"googlebooks_base_url"`
	RequestIntervalMS  int    `toml:"request_interval_ms"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	CachePath          string `toml:"cache_path"`
	CacheTTLHours      int    `toml:"cache_ttl_hours"`
}

// LLM contains connection settings for the disambiguation backend.
type LLM struct {
	Backend        string  `toml:"backend"`
	Model          string  `toml:"model"`
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	OllamaURL      string  `toml:"ollama_url"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Organize contains configuration for applying entries to the output layout.
type Organize struct {
	CopyMode bool `toml:"copy_mode"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bindery.
//
// Configuration sections by subsystem:
//   - Paths: scan root, output library, and state directories
//   - Scan: audio extensions picked up by discovery
//   - Lookup: provider endpoints, throttle, and cache settings
//   - LLM: disambiguation backend selection and credentials
//   - Organize: copy-versus-move behavior when applying entries
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Scan          Scan          `toml:"scan"`
	Lookup        Lookup        `toml:"lookup"`
	LLM           LLM           `toml:"llm"`
	Organize      Organize      `toml:"organize"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bindery/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bindery.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directories bindery writes to. The
// library directory is not created: a missing scan root is the operator's
// problem to notice, not something to silently conjure.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// EntriesPath returns the location of the entry store document.
func (c *Config) EntriesPath() string {
	return filepath.Join(c.Paths.DataDir, "entries.json")
}

// EntriesFallbackPath returns the location the store falls back to when the
// primary document is not writable.
func (c *Config) EntriesFallbackPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bindery-entries.json"
	}
	return filepath.Join(home, ".bindery-entries.json")
}

// StoreLockPath returns the flock path guarding the entry store.
func (c *Config) StoreLockPath() string {
	return filepath.Join(c.Paths.DataDir, "bindery.lock")
}

// LookupCachePath returns the location of the lookup cache document.
func (c *Config) LookupCachePath() string {
	if strings.TrimSpace(c.Lookup.CachePath) != "" {
		return c.Lookup.CachePath
	}
	return filepath.Join(c.Paths.DataDir, "lookup_cache.json")
}

// FFprobeBinary returns the ffprobe executable name used for tag reads.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
