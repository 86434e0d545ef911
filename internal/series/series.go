// Package series infers series names and ordinals from free-form text such
// as album tags, folder names, and provider response fields.
package series

import (
	"regexp"
	"strings"
)

// Ordered by specificity. The dash form covers the common
// "Series Name - Book 1" release naming, the hash form bare "#1" suffixes,
// and the paren form "(Book 1)" style annotations.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(.*?)\s*[,-]\s*(?:Book|Volume|Part|#)?\s*(\d+)`),
	regexp.MustCompile(`(?i)(.*?)\s*#(\d+)`),
	regexp.MustCompile(`(?i)(.*?)\s*\((?:Book|Volume|Part)?\s*(\d+)\)`),
}

var ordinal = regexp.MustCompile(`(?i)(?:book|volume)\s*(\d+)`)

// Infer extracts a series name and index from text. Patterns are tried in
// order and the first match wins: group one, trimmed, is the series name and
// group two is the index as a literal numeral. Text without a recognizable
// pattern yields two empty strings.
func Infer(text string) (name, index string) {
	if text == "" {
		return "", ""
	}
	for _, pattern := range patterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return strings.TrimSpace(match[1]), match[2]
		}
	}
	return "", ""
}

// OrdinalIndex mines a bare series ordinal ("book 2", "Volume 12") out of
// prose fields like provider subtitles and work subjects. Returns the first
// numeral found, or an empty string.
func OrdinalIndex(text string) string {
	if text == "" {
		return ""
	}
	if match := ordinal.FindStringSubmatch(text); match != nil {
		return match[1]
	}
	return ""
}
