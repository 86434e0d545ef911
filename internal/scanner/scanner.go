// Package scanner walks the scan root and groups discovered audio files into
// per-book items for the resolution pipeline.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"bindery/internal/logging"
)

// Discovery is one grouped on-disk item: a primary audio file plus any
// sibling audio files that belong to the same book.
type Discovery struct {
	ID              string
	PrimaryPath     string
	AdditionalFiles []string
	FolderStructure string
}

// Scanner discovers audiobook folders beneath a scan root.
type Scanner struct {
	root       string
	extensions map[string]struct{}
	logger     *slog.Logger
}

// New constructs a Scanner for the given root. Extensions are matched
// case-insensitively and must include the leading dot.
func New(root string, extensions []string, logger *slog.Logger) *Scanner {
	lookup := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		cleaned := strings.ToLower(strings.TrimSpace(ext))
		if cleaned == "" {
			continue
		}
		lookup[cleaned] = struct{}{}
	}
	return &Scanner{
		root:       filepath.Clean(root),
		extensions: lookup,
		logger:     logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks the root and returns one Discovery per folder grouping, in
// stable lexical walk order. Audio files directly in the root are skipped.
// Folders sharing a parent directory collapse into one grouping keyed by
// that parent; otherwise each folder is its own grouping.
func (s *Scanner) Scan(ctx context.Context) ([]Discovery, error) {
	audioByDir := make(map[string][]string)
	var dirs []string

	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := s.extensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			return nil
		}
		dir := filepath.Dir(path)
		if dir == s.root {
			s.logger.Warn("Skipping audio file directly in scan root",
				logging.String("path", path),
				logging.String(logging.FieldEventType, "root_file_skipped"),
				logging.String(logging.FieldErrorHint, "move the file into its own folder"),
				logging.String(logging.FieldImpact, "file is not tracked"))
			return nil
		}
		if _, seen := audioByDir[dir]; !seen {
			dirs = append(dirs, dir)
		}
		audioByDir[dir] = append(audioByDir[dir], entry.Name())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.root, err)
	}

	type member struct {
		path      string
		structure string
	}
	groups := make(map[string][]member)
	var groupKeys []string

	for _, dir := range dirs {
		names := audioByDir[dir]
		sort.Strings(names)

		groupKey := filepath.Dir(dir)
		if groupKey == s.root {
			groupKey = dir
		}
		if _, seen := groups[groupKey]; !seen {
			groupKeys = append(groupKeys, groupKey)
		}

		structure := s.folderStructure(dir, names)
		for _, name := range names {
			groups[groupKey] = append(groups[groupKey], member{
				path:      filepath.Join(dir, name),
				structure: structure,
			})
		}
	}

	discoveries := make([]Discovery, 0, len(groupKeys))
	for _, key := range groupKeys {
		members := groups[key]
		primary := members[0]

		id, err := s.relativeID(primary.path)
		if err != nil {
			s.logger.Warn("Skipping item outside scan root",
				logging.String("path", primary.path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "item_skipped"),
				logging.String(logging.FieldErrorHint, "verify the scan root configuration"),
				logging.String(logging.FieldImpact, "item is not tracked"))
			continue
		}

		discovery := Discovery{
			ID:              id,
			PrimaryPath:     primary.path,
			FolderStructure: primary.structure,
		}
		for _, extra := range members[1:] {
			discovery.AdditionalFiles = append(discovery.AdditionalFiles, extra.path)
		}
		discoveries = append(discoveries, discovery)
	}

	s.logger.Debug("Scan complete",
		logging.String("root", s.root),
		logging.Int("items", len(discoveries)))
	return discoveries, nil
}

// folderStructure renders the relative containing directory followed by its
// audio file names, two-space indented, for operator display.
func (s *Scanner) folderStructure(dir string, names []string) string {
	rel, err := filepath.Rel(s.root, dir)
	if err != nil || rel == "." {
		return strings.Join(names, "\n")
	}
	lines := make([]string, 0, len(names)+1)
	lines = append(lines, filepath.ToSlash(rel))
	for _, name := range names {
		lines = append(lines, "  "+name)
	}
	return strings.Join(lines, "\n")
}

func (s *Scanner) relativeID(path string) (string, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s escapes scan root", path)
	}
	return filepath.ToSlash(rel), nil
}
