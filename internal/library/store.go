package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"bindery/internal/logging"
	"bindery/internal/services"
)

// StoreOptions configures an entry store.
type StoreOptions struct {
	// Path is the primary entries document location.
	Path string
	// FallbackPath is tried once when the primary location cannot be
	// written; once used, later writes stick to it.
	FallbackPath string
	// LockPath guards the document against a second process. Empty disables
	// locking.
	LockPath string
	Logger   *slog.Logger
	// Now is the clock used for entry timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Store is the durable record of all entries. It loads the full document at
// open and rewrites it after every mutation, so a crash between operations
// loses at most the in-flight one.
type Store struct {
	path          string
	fallbackPath  string
	lock          *flock.Flock
	logger        *slog.Logger
	now           func() time.Time
	mu            sync.RWMutex
	entries       map[string]Entry
	usingFallback bool
}

// OpenStore loads (or initializes) the entries document.
func OpenStore(opts StoreOptions) (*Store, error) {
	if opts.Path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "library", "open store", "entries path is required", nil)
	}
	store := &Store{
		path:         opts.Path,
		fallbackPath: opts.FallbackPath,
		logger:       logging.NewComponentLogger(opts.Logger, "library"),
		now:          opts.Now,
		entries:      make(map[string]Entry),
	}
	if store.now == nil {
		store.now = time.Now
	}

	if opts.LockPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LockPath), 0o755); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "library", "open store", "create lock directory", err)
		}
		store.lock = flock.New(opts.LockPath)
		held, err := store.lock.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, "library", "open store", "acquire store lock", err)
		}
		if !held {
			return nil, services.Wrap(services.ErrPersistence, "library", "open store", "another bindery process holds the store lock", nil)
		}
	}

	store.load()
	return store, nil
}

// Close releases the store lock.
func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// load reads the document into memory. A missing file is a fresh start; a
// corrupt one is moved aside and logged, never fatal.
func (s *Store) load() {
	for _, path := range s.loadPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logging.WarnWithContext(s.logger, "Could not read entries document", "store_load_failed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "starting with an empty library"))
			}
			continue
		}
		if len(data) == 0 {
			return
		}

		var decoded map[string]Entry
		if err := json.Unmarshal(data, &decoded); err != nil {
			backup := path + ".corrupt"
			if renameErr := os.Rename(path, backup); renameErr == nil {
				logging.WarnWithContext(s.logger, "Entries document is corrupt, moved aside", "store_corrupt",
					logging.String("path", path),
					logging.String("backup", backup),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "inspect the backup to recover entries"),
					logging.String(logging.FieldImpact, "starting with an empty library"))
			}
			continue
		}

		for id, entry := range decoded {
			entry.ID = id
			if entry.Status == "" {
				entry.Status = StatusPending
			}
			if entry.Source == "" {
				entry.Source = SourceNone
			}
			s.entries[id] = entry
		}
		s.logger.Debug("Loaded entries document",
			logging.String("path", path),
			logging.Int("entry_count", len(s.entries)))
		return
	}
}

func (s *Store) loadPaths() []string {
	paths := []string{s.path}
	if s.fallbackPath != "" && s.fallbackPath != s.path {
		paths = append(paths, s.fallbackPath)
	}
	return paths
}

// save rewrites the whole document. A failed primary write is retried once
// against the fallback location, which then sticks for the rest of the
// process so data is never silently dropped.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPersistence, "library", "save entries", "encode entries document", err)
	}

	target := s.path
	if s.usingFallback {
		target = s.fallbackPath
	}

	if err := writeAtomic(target, data); err != nil {
		if s.usingFallback || s.fallbackPath == "" || s.fallbackPath == target {
			return services.Wrap(services.ErrPersistence, "library", "save entries", "write entries document", err)
		}
		logging.WarnWithContext(s.logger, "Primary entries location not writable, using fallback", "store_fallback",
			logging.String("path", target),
			logging.String("fallback", s.fallbackPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix permissions on the data directory"),
			logging.String(logging.FieldImpact, "entries persist to the fallback location"))
		if fallbackErr := writeAtomic(s.fallbackPath, data); fallbackErr != nil {
			return services.Wrap(services.ErrPersistence, "library", "save entries", "write entries document to fallback", fallbackErr)
		}
		s.usingFallback = true
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Upsert inserts or replaces an entry and persists immediately. Creation
// timestamps survive updates; lifecycle defaults apply to new entries.
func (s *Store) Upsert(entry Entry) error {
	if entry.ID == "" {
		return services.Wrap(services.ErrValidation, "library", "upsert", "entry id is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.entries[entry.ID]; ok {
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.Status == "" {
		entry.Status = StatusPending
	}
	if entry.Source == "" {
		entry.Source = SourceNone
	}
	entry.SeriesIndex = NormalizeSeriesIndex(entry.SeriesIndex)

	s.entries[entry.ID] = entry.Clone()
	return s.save()
}

// Update applies mutate to the stored entry and persists immediately.
func (s *Store) Update(id string, mutate func(*Entry)) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[id]
	if !ok {
		return Entry{}, services.Wrap(services.ErrNotFound, "library", "update", fmt.Sprintf("entry %q not found", id), nil)
	}

	entry := existing.Clone()
	mutate(&entry)
	entry.ID = id
	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = s.now()
	entry.SeriesIndex = NormalizeSeriesIndex(entry.SeriesIndex)

	s.entries[id] = entry.Clone()
	if err := s.save(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// SetStatus transitions an entry's lifecycle status.
func (s *Store) SetStatus(id string, status Status) (Entry, error) {
	return s.Update(id, func(entry *Entry) {
		entry.Status = status
	})
}

// SetApplied records a successful file placement: status applied plus the
// resulting path, in one persisted mutation.
func (s *Store) SetApplied(id, appliedPath string) (Entry, error) {
	return s.Update(id, func(entry *Entry) {
		entry.Status = StatusApplied
		entry.AppliedPath = appliedPath
	})
}

// Get returns a copy of the entry with the given id.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	return entry.Clone(), true
}

// All returns copies of every entry sorted by id. This is the stored order
// batch operations walk.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry.Clone())
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Path returns the location entries are currently persisted to.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usingFallback {
		return s.fallbackPath
	}
	return s.path
}
