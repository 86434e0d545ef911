package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"log/slog"

	"bindery/internal/config"
	"bindery/internal/library"
	"bindery/internal/logging"
	"bindery/internal/services"
)

const (
	unknownAuthor = "Unknown Author"
	unknownTitle  = "Unknown Title"
)

// Organizer copies or moves an entry's audio files into the output layout.
type Organizer struct {
	outputDir string
	copyMode  bool
	logger    *slog.Logger
}

// New constructs an Organizer from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	return &Organizer{
		outputDir: cfg.Paths.OutputDir,
		copyMode:  cfg.Organize.CopyMode,
		logger:    logging.NewComponentLogger(logger, "organizer"),
	}
}

// Apply places the entry's primary file and every additional file into the
// target directory and returns that directory. The primary file is
// required; a failure on an additional file is logged and the remaining
// files still transfer.
func (o *Organizer) Apply(ctx context.Context, entry library.Entry) (string, error) {
	logger := logging.WithContext(ctx, o.logger)

	if strings.TrimSpace(entry.PrimaryPath) == "" {
		return "", services.Wrap(services.ErrValidation, "organizer", "apply", "entry has no primary file recorded", nil)
	}
	if _, err := os.Stat(entry.PrimaryPath); err != nil {
		return "", services.Wrap(services.ErrValidation, "organizer", "apply", "primary file is not readable", err)
	}

	targetDir := filepath.Join(o.outputDir, TargetLayout(entry))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrPersistence, "organizer", "apply", "create target directory", err)
	}
	logger.Info("Placing entry files",
		logging.String("target_dir", targetDir),
		logging.Bool("copy_mode", o.copyMode),
		logging.Int("additional_files", len(entry.AdditionalFiles)))

	if err := o.transfer(entry.PrimaryPath, targetDir); err != nil {
		return "", services.Wrap(services.ErrPersistence, "organizer", "apply", "place primary file", err)
	}
	for _, extra := range entry.AdditionalFiles {
		if err := o.transfer(extra, targetDir); err != nil {
			logging.WarnWithContext(logger, "Failed to place additional file", "placement_file_failed",
				logging.String("path", extra),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "move the file by hand"),
				logging.String(logging.FieldImpact, "remaining files still transfer"))
		}
	}
	return targetDir, nil
}

// TargetLayout renders the relative library path for an entry:
// author/"series NN - title", dropping the series segment pieces that are
// missing and substituting Unknown placeholders for empty author or title.
func TargetLayout(entry library.Entry) string {
	author := SanitizeComponent(entry.Author)
	if author == "" {
		author = unknownAuthor
	}
	title := SanitizeComponent(entry.Title)
	if title == "" {
		title = unknownTitle
	}

	folder := title
	if seriesName := SanitizeComponent(entry.Series); seriesName != "" {
		if index, err := strconv.Atoi(entry.SeriesIndex); err == nil {
			folder = fmt.Sprintf("%s %02d - %s", seriesName, index, title)
		} else {
			folder = fmt.Sprintf("%s - %s", seriesName, title)
		}
	}
	return filepath.Join(author, folder)
}

// SanitizeComponent strips characters that are unsafe in directory names
// and trims leading/trailing dots and spaces.
func SanitizeComponent(component string) string {
	var b strings.Builder
	for _, r := range component {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ". ")
}

func (o *Organizer) transfer(src, targetDir string) error {
	dst := filepath.Join(targetDir, filepath.Base(src))
	if o.copyMode {
		return copyFile(src, dst)
	}
	return moveFile(src, dst)
}

// moveFile renames src into place, falling back to copy-and-remove when the
// output library lives on a different filesystem.
func moveFile(src, dst string) error {
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(renameErr, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return fmt.Errorf("move file: %w", renameErr)
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// copyFile copies src to dst preserving the modification time, verifying
// the copied size against the source.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()

	written, err := out.ReadFrom(in)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copy contents: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("flush destination: %w", err)
	}
	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}

	if err := os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return fmt.Errorf("preserve modification time: %w", err)
	}
	return nil
}
