package lookup

import "encoding/json"

// Query carries the evidence an entry has accumulated so far. Providers use
// the populated fields to search and to corroborate candidates.
type Query struct {
	Author      string `json:"author"`
	Title       string `json:"title"`
	Series      string `json:"series"`
	SeriesIndex string `json:"series_index"`
}

// Fingerprint returns the canonical cache key for the query: the JSON
// serialization of its sorted field map. Queries carrying the same evidence
// always produce the same fingerprint.
func (q Query) Fingerprint() string {
	fields := map[string]string{
		"author":       q.Author,
		"title":        q.Title,
		"series":       q.Series,
		"series_index": q.SeriesIndex,
	}
	data, err := json.Marshal(fields)
	if err != nil {
		// A map of strings cannot fail to marshal; guard anyway.
		return ""
	}
	return string(data)
}

// Match is one accepted provider result, normalized to the entry field
// shape.
type Match struct {
	Author      string `json:"author"`
	Title       string `json:"title"`
	Series      string `json:"series"`
	SeriesIndex string `json:"series_index"`
	Provider    string `json:"provider"`
}
