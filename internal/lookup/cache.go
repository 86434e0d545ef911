package lookup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bindery/internal/logging"
)

// cacheRecord is one cached lookup outcome. Found distinguishes a cached
// match from a cached miss; both count as answers until the record expires.
type cacheRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Found     bool      `json:"found"`
	Match     Match     `json:"match"`
}

// Cache persists lookup outcomes keyed by query fingerprint so repeated
// resolutions of the same evidence stay off the network. Records expire
// after the configured TTL and are dropped lazily, on load and on hit.
// An empty path disables the cache entirely.
type Cache struct {
	path   string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	records map[string]cacheRecord
}

// NewCache loads the cache at path, evicting records older than ttl. A
// missing or unreadable file yields an empty cache rather than an error.
func NewCache(path string, ttl time.Duration, logger *slog.Logger) *Cache {
	cache := &Cache{
		path:    path,
		ttl:     ttl,
		logger:  logging.NewComponentLogger(logger, "lookup-cache"),
		now:     time.Now,
		records: make(map[string]cacheRecord),
	}
	if path == "" {
		return cache
	}
	cache.load()
	return cache
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("Failed to read lookup cache, starting empty", logging.Error(err), logging.String("path", c.path))
		}
		return
	}
	var records map[string]cacheRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.Warn("Lookup cache is corrupt, starting empty", logging.Error(err), logging.String("path", c.path))
		return
	}
	cutoff := c.now().Add(-c.ttl)
	for fingerprint, record := range records {
		if record.Timestamp.Before(cutoff) {
			continue
		}
		c.records[fingerprint] = record
	}
	if dropped := len(records) - len(c.records); dropped > 0 {
		c.logger.Debug("Evicted expired lookup cache records", logging.Int("dropped", dropped))
	}
}

// Lookup returns the live record for the fingerprint. Expired records are
// removed and reported as misses.
func (c *Cache) Lookup(fingerprint string) (Match, bool, bool) {
	if c == nil || c.path == "" {
		return Match{}, false, false
	}
	c.mu.RLock()
	record, ok := c.records[fingerprint]
	c.mu.RUnlock()
	if !ok {
		return Match{}, false, false
	}
	if record.Timestamp.Before(c.now().Add(-c.ttl)) {
		c.mu.Lock()
		delete(c.records, fingerprint)
		c.mu.Unlock()
		return Match{}, false, false
	}
	return record.Match, record.Found, true
}

// Store records the outcome for the fingerprint and rewrites the cache
// file. Misses are recorded with found=false so exhausted searches are not
// repeated until the record expires.
func (c *Cache) Store(fingerprint string, match Match, found bool) error {
	if c == nil || c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[fingerprint] = cacheRecord{
		Timestamp: c.now(),
		Found:     found,
		Match:     match,
	}
	return c.save()
}

// Clear drops every record and removes the cache file.
func (c *Cache) Clear() error {
	if c == nil || c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string]cacheRecord)
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lookup cache: %w", err)
	}
	return nil
}

// Len reports the number of live records.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Path returns the backing file path, empty when the cache is disabled.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

func (c *Cache) save() error {
	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal lookup cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create lookup cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write lookup cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace lookup cache: %w", err)
	}
	return nil
}
