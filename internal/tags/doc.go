// Package tags reads embedded metadata from audiobook audio files.
//
// The ffprobe-backed reader is the production implementation; the Reader
// interface exists so the evidence extractor can be exercised without a
// media toolchain on the test host.
package tags
