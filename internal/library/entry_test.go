package library

import (
	"testing"
)

func TestNormalizeSeriesIndex(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{value: "1", want: "1"},
		{value: " 7 ", want: "7"},
		{value: "01", want: "1"},
		{value: "0", want: "0"},
		{value: "", want: ""},
		{value: "-1", want: ""},
		{value: "three", want: ""},
		{value: "1.5", want: ""},
	}
	for _, tc := range tests {
		if got := NormalizeSeriesIndex(tc.value); got != tc.want {
			t.Errorf("NormalizeSeriesIndex(%q) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestFillFieldOnlyWritesEmpty(t *testing.T) {
	entry := Entry{Title: "Dune"}

	if entry.FillField(FieldTitle, "Dune Messiah") {
		t.Fatal("FillField overwrote a populated field")
	}
	if entry.Title != "Dune" {
		t.Fatalf("Title = %q, want existing value preserved", entry.Title)
	}

	if !entry.FillField(FieldAuthor, "Frank Herbert") {
		t.Fatal("FillField refused to fill an empty field")
	}
	if entry.Author != "Frank Herbert" {
		t.Fatalf("Author = %q", entry.Author)
	}
}

func TestFillFieldRejectsInvalidSeriesIndex(t *testing.T) {
	entry := Entry{}

	if entry.FillField(FieldSeriesIndex, "not-a-number") {
		t.Fatal("FillField accepted a non-numeric series index")
	}
	if entry.SeriesIndex != "" {
		t.Fatalf("SeriesIndex = %q, want empty", entry.SeriesIndex)
	}
	if !entry.FillField(FieldSeriesIndex, "2") {
		t.Fatal("FillField refused a valid series index")
	}
}

func TestFillFieldEmptyValueDoesNotBlockLaterFill(t *testing.T) {
	entry := Entry{}

	if entry.FillField(FieldSeries, "  ") {
		t.Fatal("FillField reported a write for a blank value")
	}
	if !entry.FillField(FieldSeries, "Mistborn") {
		t.Fatal("later fill attempt was blocked")
	}
}

func TestSetFieldClearsLLMMarker(t *testing.T) {
	entry := Entry{Author: "guess", LLMFields: []string{FieldAuthor, FieldSeries}}

	if !entry.SetField(FieldAuthor, "Frank Herbert") {
		t.Fatal("SetField rejected a known field")
	}
	if entry.IsLLMField(FieldAuthor) {
		t.Fatal("manual edit left the LLM marker in place")
	}
	if !entry.IsLLMField(FieldSeries) {
		t.Fatal("unrelated LLM marker was dropped")
	}
}

func TestSetFieldUnknownName(t *testing.T) {
	entry := Entry{}
	if entry.SetField("narrator", "whoever") {
		t.Fatal("SetField accepted an unknown field name")
	}
}

func TestSetFieldNormalizesSeriesIndex(t *testing.T) {
	entry := Entry{}
	entry.SetField(FieldSeriesIndex, "banana")
	if entry.SeriesIndex != "" {
		t.Fatalf("SeriesIndex = %q, want coerced empty", entry.SeriesIndex)
	}
}

func TestMarkLLMFieldIsIdempotent(t *testing.T) {
	entry := Entry{}
	entry.MarkLLMField(FieldTitle)
	entry.MarkLLMField(FieldTitle)
	if len(entry.LLMFields) != 1 {
		t.Fatalf("LLMFields = %v, want single marker", entry.LLMFields)
	}
}

func TestMissingFieldsAndComplete(t *testing.T) {
	entry := Entry{Author: "Frank Herbert", Title: "Dune"}

	missing := entry.MissingFields()
	if len(missing) != 2 || missing[0] != FieldSeries || missing[1] != FieldSeriesIndex {
		t.Fatalf("MissingFields = %v", missing)
	}
	if entry.Complete() {
		t.Fatal("Complete reported true with empty fields")
	}

	entry.Series = "Dune Chronicles"
	entry.SeriesIndex = "1"
	if !entry.Complete() {
		t.Fatal("Complete reported false with all fields populated")
	}
}

func TestParseStatusAndSource(t *testing.T) {
	if status, err := ParseStatus(" Approved "); err != nil || status != StatusApproved {
		t.Fatalf("ParseStatus = (%v, %v)", status, err)
	}
	if _, err := ParseStatus("shipped"); err == nil {
		t.Fatal("ParseStatus accepted an unknown status")
	}
	if source, err := ParseSource("LLM"); err != nil || source != SourceLLM {
		t.Fatalf("ParseSource = (%v, %v)", source, err)
	}
	if _, err := ParseSource("psychic"); err == nil {
		t.Fatal("ParseSource accepted an unknown source")
	}
}

func TestCloneDoesNotAliasSlices(t *testing.T) {
	entry := Entry{LLMFields: []string{FieldAuthor}, AdditionalFiles: []string{"/a"}}
	clone := entry.Clone()
	clone.LLMFields[0] = FieldTitle
	clone.AdditionalFiles[0] = "/b"

	if entry.LLMFields[0] != FieldAuthor || entry.AdditionalFiles[0] != "/a" {
		t.Fatal("Clone shares slice storage with the original")
	}
}
