// Package library holds the entry store: the durable record of every
// discovered book, its resolved metadata, provenance, and lifecycle status.
//
// The store is the single source of truth for the resolution pipeline and
// the review surface. Every mutation persists synchronously, so previously
// confirmed state survives a crash. Shared-folder conflict detection is a
// derived view computed at presentation time, never stored.
package library
