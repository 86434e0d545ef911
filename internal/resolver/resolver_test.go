package resolver

import (
	"context"
	"errors"
	"testing"

	"bindery/internal/extract"
	"bindery/internal/library"
	"bindery/internal/llm"
	"bindery/internal/logging"
	"bindery/internal/lookup"
	"bindery/internal/scanner"
	"bindery/internal/services"
	"bindery/internal/testsupport"
)

type fakeExtractor struct {
	evidence extract.Evidence
	calls    int
}

func (f *fakeExtractor) Extract(context.Context, string, []string) extract.Evidence {
	f.calls++
	return f.evidence
}

type fakeSearcher struct {
	match lookup.Match
	found bool
	calls int
}

func (f *fakeSearcher) Search(context.Context, lookup.Query) (lookup.Match, bool) {
	f.calls++
	return f.match, f.found
}

type fakeSuggester struct {
	suggestion llm.Suggestion
	ok         bool
	calls      int
	observe    func()
}

func (f *fakeSuggester) Suggest(context.Context, llm.PromptInput) (llm.Suggestion, bool) {
	f.calls++
	if f.observe != nil {
		f.observe()
	}
	return f.suggestion, f.ok
}

type fakePlacer struct {
	targetDir string
	err       error
}

func (f *fakePlacer) Apply(context.Context, library.Entry) (string, error) {
	return f.targetDir, f.err
}

type fakeDiscoverer struct {
	discoveries []scanner.Discovery
	err         error
}

func (f *fakeDiscoverer) Scan(context.Context) ([]scanner.Discovery, error) {
	return f.discoveries, f.err
}

func openTestStore(t *testing.T) *library.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func seedEntry(t *testing.T, store *library.Store, entry library.Entry) {
	t.Helper()
	if entry.PrimaryPath == "" {
		entry.PrimaryPath = "/in/" + entry.ID
	}
	if err := store.Upsert(entry); err != nil {
		t.Fatalf("Upsert(%s): %v", entry.ID, err)
	}
}

func TestResolveMergesTagEvidence(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{ID: "Mistborn/book.m4b"})

	extractor := &fakeExtractor{evidence: extract.Evidence{
		Author:      "Brandon Sanderson",
		Title:       "Mistborn - Book 1",
		Series:      "Mistborn",
		SeriesIndex: "1",
		FromTags:    true,
	}}
	r := New(Dependencies{Store: store, Extractor: extractor, Logger: logging.NewNop()})

	entry, err := r.Resolve(context.Background(), "Mistborn/book.m4b")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if entry.Author != "Brandon Sanderson" || entry.Title != "Mistborn - Book 1" {
		t.Fatalf("unexpected merge: %+v", entry)
	}
	if entry.Series != "Mistborn" || entry.SeriesIndex != "1" {
		t.Fatalf("series not merged: %+v", entry)
	}
	if entry.Source != library.SourceMetadata {
		t.Fatalf("source = %q, want metadata", entry.Source)
	}
	if entry.Status != library.StatusPending {
		t.Fatalf("status = %q, want pending", entry.Status)
	}
}

func TestResolveEscalatesToLookupForMissingFields(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{ID: "Dune/book.m4b"})

	extractor := &fakeExtractor{evidence: extract.Evidence{Title: "Dune", FromTags: true}}
	searcher := &fakeSearcher{
		match: lookup.Match{
			Author:      "Frank Herbert",
			Title:       "Dune (Deluxe Edition)",
			Series:      "Dune Chronicles",
			SeriesIndex: "1",
			Provider:    "openlibrary",
		},
		found: true,
	}
	r := New(Dependencies{Store: store, Extractor: extractor, Lookup: searcher, Logger: logging.NewNop()})

	entry, err := r.Resolve(context.Background(), "Dune/book.m4b")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if searcher.calls != 1 {
		t.Fatalf("lookup calls = %d, want 1", searcher.calls)
	}
	if entry.Author != "Frank Herbert" {
		t.Fatalf("author not filled: %+v", entry)
	}
	if entry.Title != "Dune" {
		t.Fatalf("existing title overwritten: got %q", entry.Title)
	}
	if entry.Source != library.SourceAPI {
		t.Fatalf("source = %q, want api", entry.Source)
	}
}

func TestResolveIdempotentOnCompleteEntry(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{
		ID:          "Icarus/book.m4b",
		Author:      "Timothy Zahn",
		Title:       "The Icarus Plot",
		Series:      "The Icarus Saga",
		SeriesIndex: "1",
		Source:      library.SourceAPI,
		LLMFields:   []string{library.FieldSeries},
	})

	extractor := &fakeExtractor{evidence: extract.Evidence{Author: "Somebody Else", FromTags: true}}
	searcher := &fakeSearcher{found: true, match: lookup.Match{Author: "Somebody Else"}}
	r := New(Dependencies{Store: store, Extractor: extractor, Lookup: searcher, Logger: logging.NewNop()})

	before, _ := store.Get("Icarus/book.m4b")
	after, err := r.Resolve(context.Background(), "Icarus/book.m4b")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if extractor.calls != 0 || searcher.calls != 0 {
		t.Fatalf("collaborators invoked on a complete entry: extract=%d lookup=%d", extractor.calls, searcher.calls)
	}
	if after.Author != before.Author || after.Title != before.Title ||
		after.Series != before.Series || after.SeriesIndex != before.SeriesIndex {
		t.Fatalf("fields changed: before=%+v after=%+v", before, after)
	}
	if after.Source != before.Source || len(after.LLMFields) != len(before.LLMFields) {
		t.Fatalf("provenance changed: before=%+v after=%+v", before, after)
	}
}

func TestResolveSkipsLookupWithoutSignal(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{ID: "mystery/book.m4b"})

	extractor := &fakeExtractor{evidence: extract.Evidence{}}
	searcher := &fakeSearcher{found: true, match: lookup.Match{Title: "Guess"}}
	r := New(Dependencies{Store: store, Extractor: extractor, Lookup: searcher, Logger: logging.NewNop()})

	if _, err := r.Resolve(context.Background(), "mystery/book.m4b"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if searcher.calls != 0 {
		t.Fatal("lookup queried with neither title nor author")
	}
}

func TestResolveUnknownEntry(t *testing.T) {
	store := openTestStore(t)
	r := New(Dependencies{Store: store, Logger: logging.NewNop()})

	_, err := r.Resolve(context.Background(), "missing/book.m4b")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestDisambiguateForcesRiskyBeforeDispatch(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{
		ID:     "Shadowfort/book.m4b",
		Title:  "Ghost of the Shadowfort",
		Status: library.StatusApproved,
	})

	suggester := &fakeSuggester{
		suggestion: llm.Suggestion{
			Author:      "Ryan Cahill",
			Title:       "Ghost of the Shadowfort",
			Series:      "Bladeborn",
			SeriesIndex: "2",
		},
		ok: true,
	}
	suggester.observe = func() {
		inflight, _ := store.Get("Shadowfort/book.m4b")
		if inflight.Status != library.StatusRisky {
			t.Errorf("status during dispatch = %q, want risky", inflight.Status)
		}
	}
	r := New(Dependencies{Store: store, Suggester: suggester, Logger: logging.NewNop()})

	entry, err := r.Disambiguate(context.Background(), "Shadowfort/book.m4b")
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if entry.Status != library.StatusRisky {
		t.Fatalf("status after merge = %q, want risky", entry.Status)
	}
	if entry.Author != "Ryan Cahill" || entry.Series != "Bladeborn" || entry.SeriesIndex != "2" {
		t.Fatalf("suggestion not merged: %+v", entry)
	}
	if entry.Source != library.SourceLLM {
		t.Fatalf("source = %q, want llm", entry.Source)
	}
	for _, name := range []string{library.FieldAuthor, library.FieldSeries, library.FieldSeriesIndex} {
		if !entry.IsLLMField(name) {
			t.Fatalf("field %s not marked LLM-sourced: %v", name, entry.LLMFields)
		}
	}
	if entry.IsLLMField(library.FieldTitle) {
		t.Fatal("title was already populated yet joined LLMFields")
	}
}

func TestDisambiguateCleansSentinelValues(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{ID: "standalone/book.m4b", Title: "Just A Title"})

	suggester := &fakeSuggester{
		suggestion: llm.Suggestion{
			Author:      "T. Kingfisher",
			Series:      "None",
			SeriesIndex: "unknown",
		},
		ok: true,
	}
	r := New(Dependencies{Store: store, Suggester: suggester, Logger: logging.NewNop()})

	entry, err := r.Disambiguate(context.Background(), "standalone/book.m4b")
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if entry.Series != "" || entry.SeriesIndex != "" {
		t.Fatalf("sentinel values stored: %+v", entry)
	}
	if entry.IsLLMField(library.FieldSeries) || entry.IsLLMField(library.FieldSeriesIndex) {
		t.Fatalf("cleaned-empty fields joined LLMFields: %v", entry.LLMFields)
	}
	if !entry.IsLLMField(library.FieldAuthor) {
		t.Fatalf("author fill not marked: %v", entry.LLMFields)
	}

	// A cleaned-empty field must not block a later fill attempt.
	suggester.suggestion = llm.Suggestion{Author: "T. Kingfisher", Series: "The Twisted Ones", SeriesIndex: "1"}
	entry, err = r.Disambiguate(context.Background(), "standalone/book.m4b")
	if err != nil {
		t.Fatalf("second Disambiguate: %v", err)
	}
	if entry.Series != "The Twisted Ones" || entry.SeriesIndex != "1" {
		t.Fatalf("later fill blocked: %+v", entry)
	}
}

func TestDisambiguateFailureLeavesMetadataUntouched(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{
		ID:     "Icarus/book.m4b",
		Title:  "The Icarus Plot",
		Status: library.StatusPending,
	})

	suggester := &fakeSuggester{ok: false}
	r := New(Dependencies{Store: store, Suggester: suggester, Logger: logging.NewNop()})

	entry, err := r.Disambiguate(context.Background(), "Icarus/book.m4b")
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if entry.Title != "The Icarus Plot" || entry.Author != "" {
		t.Fatalf("metadata changed on failure: %+v", entry)
	}
	if entry.Status != library.StatusRisky {
		t.Fatalf("status = %q, want risky (optimistic pre-dispatch transition)", entry.Status)
	}
	if len(entry.LLMFields) != 0 {
		t.Fatalf("LLMFields recorded without a merge: %v", entry.LLMFields)
	}
}

func TestDisambiguateWithoutBackend(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{ID: "Icarus/book.m4b"})
	r := New(Dependencies{Store: store, Logger: logging.NewNop()})

	_, err := r.Disambiguate(context.Background(), "Icarus/book.m4b")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestApplyRecordsAppliedPath(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{
		ID:     "Icarus/book.m4b",
		Author: "Timothy Zahn",
		Title:  "The Icarus Plot",
		Status: library.StatusApproved,
	})

	placer := &fakePlacer{targetDir: "/library/Timothy Zahn/The Icarus Plot"}
	r := New(Dependencies{Store: store, Placer: placer, Logger: logging.NewNop()})

	entry, err := r.Apply(context.Background(), "Icarus/book.m4b")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if entry.Status != library.StatusApplied {
		t.Fatalf("status = %q, want applied", entry.Status)
	}
	if entry.AppliedPath != placer.targetDir {
		t.Fatalf("applied path = %q, want %q", entry.AppliedPath, placer.targetDir)
	}
}

func TestApplyFailureLeavesStatus(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{ID: "Icarus/book.m4b", Status: library.StatusApproved})

	placer := &fakePlacer{err: errors.New("disk full")}
	r := New(Dependencies{Store: store, Placer: placer, Logger: logging.NewNop()})

	if _, err := r.Apply(context.Background(), "Icarus/book.m4b"); err == nil {
		t.Fatal("expected placement error")
	}
	entry, _ := store.Get("Icarus/book.m4b")
	if entry.Status != library.StatusApproved || entry.AppliedPath != "" {
		t.Fatalf("entry mutated on failed placement: %+v", entry)
	}
}

func TestEditClearsLLMMarker(t *testing.T) {
	store := openTestStore(t)
	seedEntry(t, store, library.Entry{
		ID:        "Icarus/book.m4b",
		Series:    "Wrong Series",
		LLMFields: []string{library.FieldSeries},
	})

	r := New(Dependencies{Store: store, Logger: logging.NewNop()})
	entry, err := r.Edit("Icarus/book.m4b", map[string]string{library.FieldSeries: "The Icarus Saga"})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if entry.Series != "The Icarus Saga" {
		t.Fatalf("series = %q", entry.Series)
	}
	if entry.IsLLMField(library.FieldSeries) {
		t.Fatal("operator edit left the LLM marker in place")
	}

	if _, err := r.Edit("Icarus/book.m4b", map[string]string{"narrator": "x"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCleanLLMValue(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"none literal", library.FieldSeries, "None", ""},
		{"unknown literal", library.FieldAuthor, "UNKNOWN", ""},
		{"kept value", library.FieldTitle, " Dune ", "Dune"},
		{"negative index", library.FieldSeriesIndex, "-1", ""},
		{"non-numeric index", library.FieldSeriesIndex, "two", ""},
		{"valid index", library.FieldSeriesIndex, "02", "2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanLLMValue(tc.field, tc.value); got != tc.want {
				t.Fatalf("CleanLLMValue(%s, %q) = %q, want %q", tc.field, tc.value, got, tc.want)
			}
		})
	}
}
