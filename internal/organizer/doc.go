// Package organizer places approved entries into the output library using
// an author/series/title-derived directory layout.
package organizer
