package library

import "path"

// ConflictKey returns the folder grouping an entry id belongs to: the
// containing folder's parent, or the containing folder itself when the
// parent is the scan root. Mirrors the scanner's grouping rule.
func ConflictKey(id string) string {
	containing := path.Dir(id)
	parent := path.Dir(containing)
	if parent == "." || parent == "/" {
		return containing
	}
	return parent
}

// FlagRisky derives the set of entry ids that should present as risky
// because they share a source folder grouping with another active entry.
//
// Approved entries are human-verified and applied entries' files have
// already moved, so neither is flagged nor counted as a sharer: approving
// all but one of a folder's entries un-flags the last one. The result is a
// presentation-time view, never stored, and never overwrites a stored
// status.
func FlagRisky(entries []Entry) map[string]struct{} {
	pool := make(map[string][]string)
	for _, entry := range entries {
		if entry.Status == StatusApproved || entry.Status == StatusApplied {
			continue
		}
		key := ConflictKey(entry.ID)
		pool[key] = append(pool[key], entry.ID)
	}

	flagged := make(map[string]struct{})
	for _, ids := range pool {
		if len(ids) < 2 {
			continue
		}
		for _, id := range ids {
			flagged[id] = struct{}{}
		}
	}
	return flagged
}

// DisplayStatus returns the status an entry should present with, folding in
// the shared-folder flag.
func DisplayStatus(entry Entry, flagged map[string]struct{}) Status {
	if _, shared := flagged[entry.ID]; shared {
		return StatusRisky
	}
	return entry.Status
}
