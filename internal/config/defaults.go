package config

const (
	defaultLibraryDir = "~/audiobooks/inbox"
	defaultOutputDir  = "~/audiobooks/library"
	defaultDataDir    = "~/.local/share/bindery"
	defaultLogDir     = "~/.local/share/bindery/logs"

	defaultOpenLibraryBaseURL = "https://openlibrary.org"
	defaultGoogleBooksBaseURL = "https://www.googleapis.com/books/v1"
	defaultRequestIntervalMS  = 100
	defaultLookupTimeout      = 15
	defaultCacheTTLHours      = 24

	defaultLLMBackend     = "openai"
	defaultLLMModel       = "gpt-4o-mini"
	defaultLLMTemperature = 0.1
	defaultLLMMaxTokens   = 500
	defaultLLMTimeout     = 60

	defaultNotifyTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

func defaultAudioExtensions() []string {
	return []string{".m4b", ".mp3", ".m4a", ".flac", ".ogg", ".aac"}
}

// Default returns the baseline configuration used when no file overrides it.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			OutputDir:  defaultOutputDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
		},
		Scan: Scan{
			AudioExtensions: defaultAudioExtensions(),
		},
		Lookup: Lookup{
			OpenLibraryBaseURL: defaultOpenLibraryBaseURL,
			GoogleBooksBaseURL: defaultGoogleBooksBaseURL,
			RequestIntervalMS:  defaultRequestIntervalMS,
			TimeoutSeconds:     defaultLookupTimeout,
			CacheTTLHours:      defaultCacheTTLHours,
		},
		LLM: LLM{
			Backend:        defaultLLMBackend,
			Model:          defaultLLMModel,
			OllamaURL:      "http://localhost:11434",
			Temperature:    defaultLLMTemperature,
			MaxTokens:      defaultLLMMaxTokens,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Organize: Organize{
			CopyMode: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
