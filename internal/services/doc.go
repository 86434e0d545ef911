// Package services defines shared utilities consumed by the resolution
// pipeline components and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp entry IDs and batch run identifiers for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper so failures carry their
//     component and operation while remaining classifiable (configuration
//     errors abort startup, everything else degrades per entry).
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across components.
package services
