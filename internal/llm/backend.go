package llm

import (
	"fmt"
	"strings"
)

// Backend identifies a disambiguation model host.
type Backend string

const (
	BackendOpenAI    Backend = "openai"
	BackendGroq      Backend = "groq"
	BackendSambaNova Backend = "sambanova"
	BackendMistral   Backend = "mistral"
	BackendOllama    Backend = "ollama"
)

// Every backend except ollama speaks the OpenAI chat completion protocol
// behind its own base URL.
var chatBaseURLs = map[Backend]string{
	BackendOpenAI:    "https://api.openai.com/v1",
	BackendGroq:      "https://api.groq.com/openai/v1",
	BackendSambaNova: "https://api.sambanova.ai/v1",
	BackendMistral:   "https://api.mistral.ai/v1",
}

// ParseBackend validates a configured backend name.
func ParseBackend(raw string) (Backend, error) {
	backend := Backend(strings.ToLower(strings.TrimSpace(raw)))
	switch backend {
	case BackendOpenAI, BackendGroq, BackendSambaNova, BackendMistral, BackendOllama:
		return backend, nil
	default:
		return "", fmt.Errorf("unsupported llm backend %q", raw)
	}
}

func (b Backend) String() string { return string(b) }

// ChatBaseURL returns the default chat completion base for the backend,
// empty for ollama which speaks its own generate protocol.
func (b Backend) ChatBaseURL() string {
	return chatBaseURLs[b]
}
