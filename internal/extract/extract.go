// Package extract turns one on-disk audiobook item into a first-pass
// metadata guess from embedded tags and series inference. No network I/O.
package extract

import (
	"context"
	"log/slog"

	"bindery/internal/logging"
	"bindery/internal/series"
	"bindery/internal/tags"
)

// Evidence is the tag-derived metadata guess for one item. Any field may be
// empty; FromTags records whether at least one tag value was recovered.
type Evidence struct {
	Author      string
	Title       string
	Series      string
	SeriesIndex string
	FromTags    bool
}

// Extractor reads embedded tags and applies series inference.
type Extractor struct {
	reader tags.Reader
	logger *slog.Logger
}

// New constructs an Extractor backed by the provided tag reader.
func New(reader tags.Reader, logger *slog.Logger) *Extractor {
	return &Extractor{
		reader: reader,
		logger: logging.NewComponentLogger(logger, "extract"),
	}
}

// Extract reads tags from the primary file, borrowing an album tag from
// sibling files when the primary yields no title. Tag read failures degrade
// to an empty result rather than propagating.
func (e *Extractor) Extract(ctx context.Context, primaryPath string, siblingPaths []string) Evidence {
	log := logging.WithContext(ctx, e.logger)

	primary, err := e.reader.Read(ctx, primaryPath)
	if err != nil {
		logging.WarnWithContext(log, "Tag read failed, continuing without tag evidence", "tag_read_failed",
			logging.String("path", primaryPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "item starts with empty metadata"))
		primary = tags.Tags{}
	}

	author := primary.Author()
	album := primary.Album()
	title := album
	if title == "" {
		title = primary.Title()
	}

	// Audiobook releases store the book title at album level; a missing
	// title on the primary file is usually recoverable from a sibling track.
	if title == "" {
		for _, siblingPath := range siblingPaths {
			sibling, err := e.reader.Read(ctx, siblingPath)
			if err != nil {
				log.Debug("Sibling tag read failed", logging.String("path", siblingPath), logging.Error(err))
				continue
			}
			if siblingAlbum := sibling.Album(); siblingAlbum != "" {
				album = siblingAlbum
				title = siblingAlbum
				break
			}
		}
	}

	seriesName, seriesIndex := series.Infer(album)
	if seriesName == "" {
		seriesName, seriesIndex = series.Infer(title)
	}

	evidence := Evidence{
		Author:      author,
		Title:       title,
		Series:      seriesName,
		SeriesIndex: seriesIndex,
		FromTags:    author != "" || title != "" || album != "",
	}

	log.Debug("Extracted tag evidence",
		logging.String("path", primaryPath),
		logging.String("author", evidence.Author),
		logging.String("title", evidence.Title),
		logging.String("series", evidence.Series),
		logging.Bool("from_tags", evidence.FromTags))
	return evidence
}
