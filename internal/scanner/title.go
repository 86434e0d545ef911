package scanner

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTitle derives a presentable fallback title from an item's folder
// name, for rows where neither tags nor providers supplied one.
func DisplayTitle(dir string) string {
	if dir == "" {
		return "Unknown Title"
	}
	base := filepath.Base(filepath.ToSlash(dir))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Unknown Title"
	}
	return cases.Title(language.Und).String(title)
}
