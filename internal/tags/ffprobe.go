package tags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var commandContext = exec.CommandContext

// Reader reads embedded metadata tags from an audio file.
type Reader interface {
	Read(ctx context.Context, path string) (Tags, error)
}

// Option configures the ffprobe reader.
type Option func(*FFprobeReader)

// WithBinary overrides the default ffprobe binary name.
func WithBinary(binary string) Option {
	return func(r *FFprobeReader) {
		if strings.TrimSpace(binary) != "" {
			r.binary = binary
		}
	}
}

// FFprobeReader reads container-level tags by shelling out to ffprobe, which
// decodes both MP4 metadata atoms and ID3 frames behind one JSON surface.
type FFprobeReader struct {
	binary string
}

// NewFFprobeReader constructs a reader using defaults.
func NewFFprobeReader(opts ...Option) *FFprobeReader {
	reader := &FFprobeReader{binary: "ffprobe"}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Read executes ffprobe against the provided path and decodes the container
// tags from the JSON response.
func (r *FFprobeReader) Read(ctx context.Context, path string) (Tags, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("tags read: empty path")
	}

	cmd := commandContext(ctx, r.binary, "-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe read: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var payload struct {
		Format struct {
			Tags map[string]string `json:"tags"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &payload); err != nil {
		return nil, fmt.Errorf("ffprobe parse: %w", err)
	}
	return fromRaw(payload.Format.Tags), nil
}

var _ Reader = (*FFprobeReader)(nil)
