package library

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Source identifies which evidence path last wrote a record as a whole.
type Source string

const (
	SourceNone     Source = "none"
	SourceMetadata Source = "metadata"
	SourceAPI      Source = "api"
	SourceLLM      Source = "llm"
)

// ParseSource validates a stored source value.
func ParseSource(value string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(value))) {
	case SourceNone:
		return SourceNone, nil
	case SourceMetadata:
		return SourceMetadata, nil
	case SourceAPI:
		return SourceAPI, nil
	case SourceLLM:
		return SourceLLM, nil
	}
	return SourceNone, fmt.Errorf("unknown source %q", value)
}

// Status is the entry lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRisky    Status = "risky"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusApplied  Status = "applied"
)

// ParseStatus validates a stored status value.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusRisky:
		return StatusRisky, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusApplied:
		return StatusApplied, nil
	}
	return StatusPending, fmt.Errorf("unknown status %q", value)
}

// Metadata field names shared by Field, SetField, FillField, and LLMFields.
const (
	FieldAuthor      = "author"
	FieldTitle       = "title"
	FieldSeries      = "series"
	FieldSeriesIndex = "series_index"
)

// FieldNames returns the four resolvable metadata fields in display order.
func FieldNames() []string {
	return []string{FieldAuthor, FieldTitle, FieldSeries, FieldSeriesIndex}
}

// Entry is one resolved book candidate corresponding to one source folder
// grouping. The ID is the primary file's path relative to the scan root,
// slash-normalized.
type Entry struct {
	ID              string    `json:"id"`
	Author          string    `json:"author"`
	Title           string    `json:"title"`
	Series          string    `json:"series"`
	SeriesIndex     string    `json:"series_index"`
	Source          Source    `json:"source"`
	LLMFields       []string  `json:"llm_fields,omitempty"`
	Status          Status    `json:"status"`
	FolderStructure string    `json:"folder_structure,omitempty"`
	PrimaryPath     string    `json:"primary_path"`
	AdditionalFiles []string  `json:"additional_files,omitempty"`
	AppliedPath     string    `json:"applied_path,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Field returns the value of a named metadata field, or an empty string for
// an unknown name.
func (e *Entry) Field(name string) string {
	switch name {
	case FieldAuthor:
		return e.Author
	case FieldTitle:
		return e.Title
	case FieldSeries:
		return e.Series
	case FieldSeriesIndex:
		return e.SeriesIndex
	}
	return ""
}

// SetField writes a metadata field as an operator edit. The name is dropped
// from LLMFields: operators own their edits, so the unverified marker no
// longer applies. Returns false for an unknown field name.
func (e *Entry) SetField(name, value string) bool {
	value = strings.TrimSpace(value)
	switch name {
	case FieldAuthor:
		e.Author = value
	case FieldTitle:
		e.Title = value
	case FieldSeries:
		e.Series = value
	case FieldSeriesIndex:
		e.SeriesIndex = NormalizeSeriesIndex(value)
	default:
		return false
	}
	e.clearLLMField(name)
	return true
}

// FillField writes a metadata field only when the current value is empty.
// The value is trimmed, and for the series index normalized; a value that
// cleans to empty does not count as a fill. Reports whether a write happened.
func (e *Entry) FillField(name, value string) bool {
	value = strings.TrimSpace(value)
	if name == FieldSeriesIndex {
		value = NormalizeSeriesIndex(value)
	}
	if value == "" || e.Field(name) != "" {
		return false
	}
	switch name {
	case FieldAuthor:
		e.Author = value
	case FieldTitle:
		e.Title = value
	case FieldSeries:
		e.Series = value
	case FieldSeriesIndex:
		e.SeriesIndex = value
	default:
		return false
	}
	return true
}

// MarkLLMField records that a field's current value came from the LLM path.
func (e *Entry) MarkLLMField(name string) {
	for _, existing := range e.LLMFields {
		if existing == name {
			return
		}
	}
	e.LLMFields = append(e.LLMFields, name)
}

// IsLLMField reports whether the field's current value is LLM-sourced.
func (e *Entry) IsLLMField(name string) bool {
	for _, existing := range e.LLMFields {
		if existing == name {
			return true
		}
	}
	return false
}

func (e *Entry) clearLLMField(name string) {
	for i, existing := range e.LLMFields {
		if existing == name {
			e.LLMFields = append(e.LLMFields[:i], e.LLMFields[i+1:]...)
			return
		}
	}
}

// MissingFields returns the metadata fields that are still empty, in display
// order.
func (e *Entry) MissingFields() []string {
	var missing []string
	for _, name := range FieldNames() {
		if e.Field(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Complete reports whether all four metadata fields are populated.
func (e *Entry) Complete() bool {
	return len(e.MissingFields()) == 0
}

// Clone returns a deep copy so callers can mutate without aliasing stored
// slices.
func (e Entry) Clone() Entry {
	clone := e
	if e.LLMFields != nil {
		clone.LLMFields = append([]string(nil), e.LLMFields...)
	}
	if e.AdditionalFiles != nil {
		clone.AdditionalFiles = append([]string(nil), e.AdditionalFiles...)
	}
	return clone
}

// NormalizeSeriesIndex coerces a series index to either an empty string or
// the canonical text of a non-negative integer. Anything else is invalid and
// normalizes to empty rather than being stored malformed.
func NormalizeSeriesIndex(value string) string {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return ""
	}
	parsed, err := strconv.Atoi(cleaned)
	if err != nil || parsed < 0 {
		return ""
	}
	return strconv.Itoa(parsed)
}
