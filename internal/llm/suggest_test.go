package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bindery/internal/config"
	"bindery/internal/logging"
)

type fakeCompleter struct {
	content string
	err     error
	lastReq Request
	calls   int
}

func (f *fakeCompleter) Complete(_ context.Context, req Request) (string, error) {
	f.calls++
	f.lastReq = req
	return f.content, f.err
}

func newTestSuggester(t *testing.T, completer Completer) *Suggester {
	t.Helper()
	cfg := &config.Config{
		LLM: config.LLM{Backend: "openai", Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 500},
	}
	suggester, err := New(cfg, logging.NewNop(), WithCompleter(completer))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return suggester
}

func TestSuggestBuildsLibrarianExchange(t *testing.T) {
	fake := &fakeCompleter{content: `{"title":"Ghost of the Shadowfort","author":"T. C. Edge","series":"The Bladeborn Saga","series_index":"2"}`}
	suggester := newTestSuggester(t, fake)

	input := PromptInput{
		Path:        "Fantasy/Bladeborn",
		Files:       []string{"Book 2 - Ghost of the Shadowfort.m4b", "Book 3 - An Echo of Titans.m4b"},
		Title:       "Ghost of the Shadowfort",
		SeriesIndex: "2",
	}
	suggestion, ok := suggester.Suggest(context.Background(), input)
	if !ok {
		t.Fatal("expected a suggestion")
	}
	if suggestion.Series != "The Bladeborn Saga" || suggestion.Author != "T. C. Edge" {
		t.Fatalf("suggestion = %+v", suggestion)
	}

	if fake.lastReq.System != librarianSystemPrompt {
		t.Fatal("system prompt not the librarian persona")
	}
	if !fake.lastReq.JSONObject {
		t.Fatal("json response format not requested")
	}
	if fake.lastReq.Temperature != 0.1 || fake.lastReq.MaxTokens != 500 {
		t.Fatalf("request parameters = %+v", fake.lastReq)
	}
	user := fake.lastReq.User
	for _, want := range []string{
		"DIRECTORY CONTENTS:",
		"Path: Fantasy/Bladeborn",
		"- Book 2 - Ghost of the Shadowfort.m4b",
		"CURRENT METADATA:",
		"title: Ghost of the Shadowfort",
		"author: \n",
		"series_index: 2",
	} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, user)
		}
	}
	if strings.Index(user, "DIRECTORY CONTENTS:") > strings.Index(user, "CURRENT METADATA:") {
		t.Fatal("directory contents must precede metadata")
	}
}

func TestSuggestOmitsDirectorySectionWithoutFiles(t *testing.T) {
	fake := &fakeCompleter{content: `{"title":"t","author":"a","series":"s","series_index":"1"}`}
	suggester := newTestSuggester(t, fake)

	if _, ok := suggester.Suggest(context.Background(), PromptInput{Title: "t"}); !ok {
		t.Fatal("expected a suggestion")
	}
	if strings.Contains(fake.lastReq.User, "DIRECTORY CONTENTS:") {
		t.Fatal("directory section rendered without files")
	}
}

func TestSuggestDegradesOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
	}{
		{name: "transport error", err: errors.New("boom")},
		{name: "refusal empty content", content: ""},
		{name: "no json object", content: "I think this is The Wheel of Time."},
		{name: "missing key", content: `{"title":"t","author":"a","series":"s"}`},
		{name: "malformed json", content: `{"title": "t",`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggester := newTestSuggester(t, &fakeCompleter{content: tt.content, err: tt.err})
			if _, ok := suggester.Suggest(context.Background(), PromptInput{Title: "t"}); ok {
				t.Fatal("expected no suggestion")
			}
		})
	}
}

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Suggestion
		wantErr bool
	}{
		{
			name:    "plain object",
			content: `{"title":"Dune","author":"Frank Herbert","series":"Dune Chronicles","series_index":"1"}`,
			want:    Suggestion{Title: "Dune", Author: "Frank Herbert", Series: "Dune Chronicles", SeriesIndex: "1"},
		},
		{
			name: "code fenced",
			content: "```json\n" +
				`{"title":"Dune","author":"Frank Herbert","series":"","series_index":""}` +
				"\n```",
			want: Suggestion{Title: "Dune", Author: "Frank Herbert"},
		},
		{
			name:    "prose wrapped",
			content: `Here is my analysis: {"title":"Dune","author":"Frank Herbert","series":"Dune Chronicles","series_index":"1"} Hope that helps!`,
			want:    Suggestion{Title: "Dune", Author: "Frank Herbert", Series: "Dune Chronicles", SeriesIndex: "1"},
		},
		{
			name:    "numeric index",
			content: `{"title":"Dune","author":"Frank Herbert","series":"Dune Chronicles","series_index":2}`,
			want:    Suggestion{Title: "Dune", Author: "Frank Herbert", Series: "Dune Chronicles", SeriesIndex: "2"},
		},
		{
			name:    "null values",
			content: `{"title":"Dune","author":null,"series":null,"series_index":null}`,
			want:    Suggestion{Title: "Dune"},
		},
		{
			name:    "missing series_index",
			content: `{"title":"Dune","author":"Frank Herbert","series":"Dune Chronicles"}`,
			wantErr: true,
		},
		{
			name:    "no object at all",
			content: "The book is Dune by Frank Herbert.",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestion(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSuggestion: %v", err)
			}
			if got != tt.want {
				t.Fatalf("suggestion = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{LLM: config.LLM{Backend: "skynet"}}
	if _, err := New(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected a configuration error")
	}
}

func TestNewSelectsOllamaTransport(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLM{Backend: "ollama", Model: "llama3", OllamaURL: "http://localhost:11434"},
	}
	suggester, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := suggester.completer.(*ollamaClient); !ok {
		t.Fatalf("completer = %T, want *ollamaClient", suggester.completer)
	}
}

func TestNewSelectsChatTransportWithBackendBase(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLM{Backend: "groq", Model: "llama-3.1-70b", APIKey: "k"},
	}
	suggester, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chat, ok := suggester.completer.(*chatClient)
	if !ok {
		t.Fatalf("completer = %T, want *chatClient", suggester.completer)
	}
	if chat.baseURL != "https://api.groq.com/openai/v1" {
		t.Fatalf("baseURL = %q", chat.baseURL)
	}
}
