package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"bindery/internal/extract"
	"bindery/internal/library"
	"bindery/internal/llm"
	"bindery/internal/logging"
	"bindery/internal/lookup"
	"bindery/internal/notifications"
	"bindery/internal/scanner"
	"bindery/internal/services"
)

// Extractor produces tag evidence for one on-disk item.
type Extractor interface {
	Extract(ctx context.Context, primaryPath string, siblingPaths []string) extract.Evidence
}

// Searcher resolves evidence against bibliographic providers.
type Searcher interface {
	Search(ctx context.Context, query lookup.Query) (lookup.Match, bool)
}

// Suggester runs the LLM disambiguation prompt.
type Suggester interface {
	Suggest(ctx context.Context, input llm.PromptInput) (llm.Suggestion, bool)
}

// Placer executes the final file placement for an entry.
type Placer interface {
	Apply(ctx context.Context, entry library.Entry) (string, error)
}

// Discoverer yields grouped on-disk items beneath the scan root.
type Discoverer interface {
	Scan(ctx context.Context) ([]scanner.Discovery, error)
}

// Dependencies carries the collaborators a Resolver sequences. Store is
// required; Suggester, Placer, and Discoverer may be nil when the hosting
// command does not exercise them.
type Dependencies struct {
	Store     *library.Store
	Extractor Extractor
	Lookup    Searcher
	Suggester Suggester
	Placer    Placer
	Discover  Discoverer
	Notifier  notifications.Service
	Logger    *slog.Logger
}

// Resolver is the synchronous resolution orchestrator. Every operation is a
// blocking read-modify-write against the entry store; provider and model
// failures degrade to "no result" and never abort the entry.
type Resolver struct {
	store     *library.Store
	extractor Extractor
	lookup    Searcher
	suggester Suggester
	placer    Placer
	discover  Discoverer
	notifier  notifications.Service
	logger    *slog.Logger
}

// New constructs a Resolver from its collaborators.
func New(deps Dependencies) *Resolver {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Resolver{
		store:     deps.Store,
		extractor: deps.Extractor,
		lookup:    deps.Lookup,
		suggester: deps.Suggester,
		placer:    deps.Placer,
		discover:  deps.Discover,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(deps.Logger, "resolver"),
	}
}

// Resolve runs the non-LLM pipeline for one entry: tag evidence first, then
// provider lookup when required fields are still missing and the entry
// carries enough signal to query. Fields only fill when empty, so a fully
// populated entry passes through untouched without any network traffic.
func (r *Resolver) Resolve(ctx context.Context, id string) (library.Entry, error) {
	ctx = services.WithEntryID(ctx, id)
	log := logging.WithContext(ctx, r.logger)

	entry, ok := r.store.Get(id)
	if !ok {
		return library.Entry{}, services.Wrap(services.ErrNotFound, "resolver", "resolve", fmt.Sprintf("entry %q not found", id), nil)
	}
	if entry.Complete() {
		log.Debug("Entry already fully populated, skipping resolution")
		return entry, nil
	}

	if r.extractor != nil {
		evidence := r.extractor.Extract(ctx, entry.PrimaryPath, entry.AdditionalFiles)
		values := fieldValues{
			library.FieldAuthor:      evidence.Author,
			library.FieldTitle:       evidence.Title,
			library.FieldSeries:      evidence.Series,
			library.FieldSeriesIndex: evidence.SeriesIndex,
		}
		updated, err := r.store.Update(id, func(e *library.Entry) {
			if values.fill(e) && evidence.FromTags {
				e.Source = library.SourceMetadata
			}
		})
		if err != nil {
			return library.Entry{}, err
		}
		entry = updated
	}

	if entry.Complete() {
		return entry, nil
	}
	if strings.TrimSpace(entry.Title) == "" && strings.TrimSpace(entry.Author) == "" {
		log.Debug("Skipping provider lookup without title or author evidence")
		return entry, nil
	}
	if r.lookup == nil {
		return entry, nil
	}

	match, found := r.lookup.Search(ctx, lookup.Query{
		Author:      entry.Author,
		Title:       entry.Title,
		Series:      entry.Series,
		SeriesIndex: entry.SeriesIndex,
	})
	if !found {
		return entry, nil
	}

	values := fieldValues{
		library.FieldAuthor:      match.Author,
		library.FieldTitle:       match.Title,
		library.FieldSeries:      match.Series,
		library.FieldSeriesIndex: match.SeriesIndex,
	}
	updated, err := r.store.Update(id, func(e *library.Entry) {
		if values.fill(e) {
			e.Source = library.SourceAPI
		}
	})
	if err != nil {
		return library.Entry{}, err
	}
	return updated, nil
}

// Disambiguate escalates one entry to the LLM. The entry is forced risky
// and persisted before the model is asked, so the record already signals
// "unverified" while the request is in flight, and forced risky again after
// a merge regardless of its prior status. A model failure leaves the entry
// risky with its metadata untouched.
func (r *Resolver) Disambiguate(ctx context.Context, id string) (library.Entry, error) {
	ctx = services.WithEntryID(ctx, id)
	log := logging.WithContext(ctx, r.logger)

	if r.suggester == nil {
		return library.Entry{}, services.Wrap(services.ErrConfiguration, "resolver", "disambiguate", "no LLM backend configured", nil)
	}
	entry, ok := r.store.Get(id)
	if !ok {
		return library.Entry{}, services.Wrap(services.ErrNotFound, "resolver", "disambiguate", fmt.Sprintf("entry %q not found", id), nil)
	}

	entry, err := r.store.SetStatus(id, library.StatusRisky)
	if err != nil {
		return library.Entry{}, err
	}

	suggestion, ok := r.suggester.Suggest(ctx, promptInput(entry))
	if !ok {
		log.Info("Disambiguation produced no usable suggestion",
			logging.String(logging.FieldStatus, string(entry.Status)))
		return entry, nil
	}

	values := fieldValues{
		library.FieldAuthor:      suggestion.Author,
		library.FieldTitle:       suggestion.Title,
		library.FieldSeries:      suggestion.Series,
		library.FieldSeriesIndex: suggestion.SeriesIndex,
	}
	updated, err := r.store.Update(id, func(e *library.Entry) {
		for _, name := range library.FieldNames() {
			if e.FillField(name, CleanLLMValue(name, values[name])) {
				e.MarkLLMField(name)
				e.Source = library.SourceLLM
			}
		}
		e.Status = library.StatusRisky
	})
	if err != nil {
		return library.Entry{}, err
	}
	log.Info("Disambiguation merged",
		logging.Any("llm_fields", updated.LLMFields),
		logging.String(logging.FieldStatus, string(updated.Status)))
	return updated, nil
}

// Approve marks an entry verified by the operator.
func (r *Resolver) Approve(id string) (library.Entry, error) {
	return r.store.SetStatus(id, library.StatusApproved)
}

// Reject marks an entry refused by the operator.
func (r *Resolver) Reject(id string) (library.Entry, error) {
	return r.store.SetStatus(id, library.StatusRejected)
}

// Apply hands an entry to the placement executor and, on success, records
// the applied path and terminal status in one persisted mutation.
func (r *Resolver) Apply(ctx context.Context, id string) (library.Entry, error) {
	ctx = services.WithEntryID(ctx, id)
	log := logging.WithContext(ctx, r.logger)

	if r.placer == nil {
		return library.Entry{}, services.Wrap(services.ErrConfiguration, "resolver", "apply", "no placement executor configured", nil)
	}
	entry, ok := r.store.Get(id)
	if !ok {
		return library.Entry{}, services.Wrap(services.ErrNotFound, "resolver", "apply", fmt.Sprintf("entry %q not found", id), nil)
	}

	targetDir, err := r.placer.Apply(ctx, entry)
	if err != nil {
		return library.Entry{}, err
	}
	applied, err := r.store.SetApplied(id, targetDir)
	if err != nil {
		return library.Entry{}, err
	}
	log.Info("Entry applied", logging.String("target_dir", targetDir))
	if notifyErr := r.notifier.NotifyEntryApplied(ctx, applied.Title, targetDir); notifyErr != nil {
		log.Warn("Applied notification failed", logging.Error(notifyErr))
	}
	return applied, nil
}

// Entries returns every stored entry in stored order along with the derived
// shared-folder risky flags for display.
func (r *Resolver) Entries() ([]library.Entry, map[string]struct{}) {
	entries := r.store.All()
	return entries, library.FlagRisky(entries)
}

// Entry returns one stored entry.
func (r *Resolver) Entry(id string) (library.Entry, bool) {
	return r.store.Get(id)
}

// Edit applies operator field edits and persists them. Edited fields shed
// their LLM-sourced marker.
func (r *Resolver) Edit(id string, fields map[string]string) (library.Entry, error) {
	for name := range fields {
		switch name {
		case library.FieldAuthor, library.FieldTitle, library.FieldSeries, library.FieldSeriesIndex:
		default:
			return library.Entry{}, services.Wrap(services.ErrValidation, "resolver", "edit", fmt.Sprintf("unknown field %q", name), nil)
		}
	}
	return r.store.Update(id, func(e *library.Entry) {
		for name, value := range fields {
			e.SetField(name, value)
		}
	})
}

// fieldValues maps metadata field names to candidate values from one
// evidence source.
type fieldValues map[string]string

// fill merges the values into the entry under the fill-only-if-empty rule,
// walking fields in display order. Reports whether any field was written.
func (v fieldValues) fill(e *library.Entry) bool {
	wrote := false
	for _, name := range library.FieldNames() {
		if e.FillField(name, v[name]) {
			wrote = true
		}
	}
	return wrote
}

// CleanLLMValue normalizes one model-returned field value before merge:
// the literals "none" and "unknown" (any case) clean to empty, and a
// series index must parse as a non-negative integer or it cleans to empty.
// A value that cleans to empty is not a fill and never joins LLMFields.
func CleanLLMValue(name, value string) string {
	cleaned := strings.TrimSpace(value)
	switch strings.ToLower(cleaned) {
	case "", "none", "unknown":
		return ""
	}
	if name == library.FieldSeriesIndex {
		return library.NormalizeSeriesIndex(cleaned)
	}
	return cleaned
}

// promptInput renders an entry for the disambiguation prompt: its folder
// context and file listing so the model can infer series order from
// sibling names, plus the metadata recovered so far.
func promptInput(entry library.Entry) llm.PromptInput {
	files := make([]string, 0, 1+len(entry.AdditionalFiles))
	files = append(files, filepath.Base(entry.PrimaryPath))
	for _, extra := range entry.AdditionalFiles {
		files = append(files, filepath.Base(extra))
	}
	return llm.PromptInput{
		Path:        filepath.ToSlash(filepath.Dir(entry.ID)),
		Files:       files,
		Title:       entry.Title,
		Author:      entry.Author,
		Series:      entry.Series,
		SeriesIndex: entry.SeriesIndex,
	}
}
