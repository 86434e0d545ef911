package llm

import "testing"

func TestParseBackend(t *testing.T) {
	tests := []struct {
		raw     string
		want    Backend
		wantErr bool
	}{
		{raw: "openai", want: BackendOpenAI},
		{raw: "groq", want: BackendGroq},
		{raw: "sambanova", want: BackendSambaNova},
		{raw: "mistral", want: BackendMistral},
		{raw: "ollama", want: BackendOllama},
		{raw: " OpenAI ", want: BackendOpenAI},
		{raw: "GROQ", want: BackendGroq},
		{raw: "anthropic", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseBackend(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseBackend(%q) accepted an unsupported name", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBackend(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseBackend(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestChatBaseURLs(t *testing.T) {
	tests := []struct {
		backend Backend
		want    string
	}{
		{BackendOpenAI, "https://api.openai.com/v1"},
		{BackendGroq, "https://api.groq.com/openai/v1"},
		{BackendSambaNova, "https://api.sambanova.ai/v1"},
		{BackendMistral, "https://api.mistral.ai/v1"},
		{BackendOllama, ""},
	}
	for _, tt := range tests {
		if got := tt.backend.ChatBaseURL(); got != tt.want {
			t.Fatalf("ChatBaseURL(%s) = %q, want %q", tt.backend, got, tt.want)
		}
	}
}
