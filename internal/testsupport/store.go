package testsupport

import (
	"testing"

	"bindery/internal/config"
	"bindery/internal/library"
	"bindery/internal/logging"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.OpenStore(library.StoreOptions{
		Path:         cfg.EntriesPath(),
		FallbackPath: cfg.EntriesFallbackPath(),
		Logger:       logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("library.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
