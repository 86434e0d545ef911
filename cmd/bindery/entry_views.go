package main

import (
	"fmt"
	"path"
	"strconv"

	"bindery/internal/library"
	"bindery/internal/scanner"
)

// formatIndex renders a numeric series index zero-padded for display, and
// anything else verbatim.
func formatIndex(index string) string {
	if index == "" {
		return ""
	}
	if parsed, err := strconv.Atoi(index); err == nil {
		return fmt.Sprintf("%02d", parsed)
	}
	return index
}

// fieldCell renders one metadata value for a table cell, starring values
// the LLM wrote so unverified data is visible at a glance. Untitled entries
// fall back to a name derived from their folder so rows stay identifiable.
func fieldCell(entry library.Entry, name string) string {
	value := entry.Field(name)
	switch {
	case name == library.FieldSeriesIndex:
		value = formatIndex(value)
	case name == library.FieldTitle && value == "":
		return scanner.DisplayTitle(path.Dir(entry.ID))
	}
	if value != "" && entry.IsLLMField(name) {
		return value + " *"
	}
	return value
}

// statusCell renders the display status, folding in the shared-folder
// conflict flag and coloring for terminals.
func statusCell(entry library.Entry, flagged map[string]struct{}, colorize bool) string {
	status := library.DisplayStatus(entry, flagged)
	label := string(status)
	if _, shared := flagged[entry.ID]; shared && entry.Status != library.StatusRisky {
		label += " (shared folder)"
	}
	if !colorize {
		return label
	}
	switch status {
	case library.StatusApproved:
		return ansiGreen + label + ansiReset
	case library.StatusRejected:
		return ansiRed + label + ansiReset
	case library.StatusRisky:
		return ansiYellow + label + ansiReset
	case library.StatusApplied:
		return ansiBlue + label + ansiReset
	default:
		return label
	}
}

func buildEntryRows(entries []library.Entry, flagged map[string]struct{}, colorize bool) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.ID,
			fieldCell(entry, library.FieldAuthor),
			fieldCell(entry, library.FieldSeries),
			fieldCell(entry, library.FieldSeriesIndex),
			fieldCell(entry, library.FieldTitle),
			string(entry.Source),
			statusCell(entry, flagged, colorize),
		})
	}
	return rows
}

var entryTableHeaders = []string{"ID", "Author", "Series", "Index", "Title", "Source", "Status"}

var entryTableAligns = []columnAlignment{
	alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft,
}
