package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bindery/internal/config"
	"bindery/internal/library"
	"bindery/internal/logging"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LibraryDir = filepath.Join(base, "inbox")
	cfgVal.Paths.OutputDir = filepath.Join(base, "library")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Format = "json"

	if err := os.MkdirAll(cfgVal.Paths.LibraryDir, 0o755); err != nil {
		t.Fatalf("mkdir inbox: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, &cfgVal)

	return &cliTestEnv{cfg: &cfgVal, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// seedEntries writes entries straight into the store document and releases
// the lock so a subsequent CLI invocation can take it.
func seedEntries(t *testing.T, env *cliTestEnv, entries ...library.Entry) {
	t.Helper()
	store, err := library.OpenStore(library.StoreOptions{
		Path:   env.cfg.EntriesPath(),
		Logger: logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	for _, entry := range entries {
		if entry.PrimaryPath == "" {
			entry.PrimaryPath = filepath.Join(env.cfg.Paths.LibraryDir, filepath.FromSlash(entry.ID))
		}
		if err := store.Upsert(entry); err != nil {
			t.Fatalf("Upsert(%s): %v", entry.ID, err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	full := append([]string{"--config", env.configPath}, args...)
	cmd.SetArgs(full)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !bytes.Contains([]byte(output), []byte(want)) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}
