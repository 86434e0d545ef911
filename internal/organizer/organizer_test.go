package organizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bindery/internal/config"
	"bindery/internal/library"
	"bindery/internal/logging"
	"bindery/internal/testsupport"
)

func newTestOrganizer(t *testing.T, copyMode bool) (*Organizer, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, func(c *config.Config) {
		c.Organize.CopyMode = copyMode
	})
	return New(cfg, logging.NewNop()), cfg.Paths.OutputDir
}

func writeAudioFile(t *testing.T, path string) {
	t.Helper()
	testsupport.WriteFile(t, path, 64)
}

func TestSanitizeComponent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`Who Goes There?`, "Who Goes There_"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  .Trimmed. ", "Trimmed"},
		{"...", ""},
		{"Plain Title", "Plain Title"},
	}
	for _, tc := range cases {
		if got := SanitizeComponent(tc.in); got != tc.want {
			t.Errorf("SanitizeComponent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTargetLayout(t *testing.T) {
	cases := []struct {
		name  string
		entry library.Entry
		want  string
	}{
		{
			name: "series with index",
			entry: library.Entry{
				Author: "Timothy Zahn", Title: "The Icarus Plot",
				Series: "The Icarus Saga", SeriesIndex: "1",
			},
			want: filepath.Join("Timothy Zahn", "The Icarus Saga 01 - The Icarus Plot"),
		},
		{
			name: "series without index",
			entry: library.Entry{
				Author: "Frank Herbert", Title: "Dune", Series: "Dune Chronicles",
			},
			want: filepath.Join("Frank Herbert", "Dune Chronicles - Dune"),
		},
		{
			name:  "bare title",
			entry: library.Entry{Author: "T. Kingfisher", Title: "The Twisted Ones"},
			want:  filepath.Join("T. Kingfisher", "The Twisted Ones"),
		},
		{
			name:  "unknown placeholders",
			entry: library.Entry{},
			want:  filepath.Join("Unknown Author", "Unknown Title"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TargetLayout(tc.entry); got != tc.want {
				t.Fatalf("TargetLayout = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestApplyCopyModeKeepsSource(t *testing.T) {
	org, outputDir := newTestOrganizer(t, true)
	inputDir := t.TempDir()
	primary := filepath.Join(inputDir, "Icarus", "book.m4b")
	extra := filepath.Join(inputDir, "Icarus", "bonus.mp3")
	writeAudioFile(t, primary)
	writeAudioFile(t, extra)

	entry := library.Entry{
		ID:              "Icarus/book.m4b",
		Author:          "Timothy Zahn",
		Title:           "The Icarus Plot",
		PrimaryPath:     primary,
		AdditionalFiles: []string{extra},
	}

	targetDir, err := org.Apply(context.Background(), entry)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := filepath.Join(outputDir, "Timothy Zahn", "The Icarus Plot")
	if targetDir != want {
		t.Fatalf("target dir = %q, want %q", targetDir, want)
	}
	for _, name := range []string{"book.m4b", "bonus.mp3"} {
		if _, err := os.Stat(filepath.Join(targetDir, name)); err != nil {
			t.Fatalf("placed file %s missing: %v", name, err)
		}
	}
	if _, err := os.Stat(primary); err != nil {
		t.Fatalf("copy mode removed the source: %v", err)
	}
}

func TestApplyMoveModeRemovesSource(t *testing.T) {
	org, _ := newTestOrganizer(t, false)
	primary := filepath.Join(t.TempDir(), "Dune", "book.m4b")
	writeAudioFile(t, primary)

	entry := library.Entry{
		ID:          "Dune/book.m4b",
		Author:      "Frank Herbert",
		Title:       "Dune",
		PrimaryPath: primary,
	}

	targetDir, err := org.Apply(context.Background(), entry)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetDir, "book.m4b")); err != nil {
		t.Fatalf("moved file missing: %v", err)
	}
	if _, err := os.Stat(primary); !os.IsNotExist(err) {
		t.Fatalf("move mode left the source behind: %v", err)
	}
}

func TestApplyMissingPrimaryFails(t *testing.T) {
	org, _ := newTestOrganizer(t, true)
	entry := library.Entry{
		ID:          "gone/book.m4b",
		Title:       "Gone",
		PrimaryPath: filepath.Join(t.TempDir(), "gone", "book.m4b"),
	}
	if _, err := org.Apply(context.Background(), entry); err == nil {
		t.Fatal("expected error for missing primary file")
	}
}

func TestApplyContinuesPastAdditionalFileFailure(t *testing.T) {
	org, _ := newTestOrganizer(t, true)
	inputDir := t.TempDir()
	primary := filepath.Join(inputDir, "Saga", "part1.mp3")
	good := filepath.Join(inputDir, "Saga", "part3.mp3")
	writeAudioFile(t, primary)
	writeAudioFile(t, good)
	missing := filepath.Join(inputDir, "Saga", "part2.mp3")

	entry := library.Entry{
		ID:              "Saga/part1.mp3",
		Author:          "Somebody",
		Title:           "Saga",
		PrimaryPath:     primary,
		AdditionalFiles: []string{missing, good},
	}

	targetDir, err := org.Apply(context.Background(), entry)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetDir, "part3.mp3")); err != nil {
		t.Fatalf("later additional file not placed: %v", err)
	}
}
