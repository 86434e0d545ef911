package tags

import (
	"sort"
	"strings"
)

// Normalized tag keys. ffprobe reports MP4 container atoms and ID3 frames
// under these names for the formats bindery handles.
const (
	KeyArtist = "artist"
	KeyTitle  = "title"
	KeyAlbum  = "album"
)

// Tags holds the metadata tags read from one audio file, keyed by normalized
// name. Key presence is preserved so callers can tell a missing tag apart
// from one stored with an empty value.
type Tags map[string]string

// Lookup reports the value for a normalized key and whether the key was
// present in the file at all.
func (t Tags) Lookup(key string) (string, bool) {
	value, ok := t[normalizeKey(key)]
	return value, ok
}

// Author returns the artist-equivalent tag, or an empty string.
func (t Tags) Author() string {
	return t[KeyArtist]
}

// Title returns the track-title tag, or an empty string.
func (t Tags) Title() string {
	return t[KeyTitle]
}

// Album returns the album tag, or an empty string. Audiobook releases
// conventionally carry the book title here.
func (t Tags) Album() string {
	return t[KeyAlbum]
}

// normalizeKey folds the container-specific tag spellings into the canonical
// names: MP4 atoms (©ART, ©nam, ©alb) and ID3 frames (TPE1, TIT2, TALB) both
// collapse onto artist/title/album.
func normalizeKey(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.TrimPrefix(cleaned, "©")
	cleaned = strings.TrimPrefix(cleaned, "\xa9")
	switch cleaned {
	case "artist", "art", "tpe1", "author", "album_artist":
		return KeyArtist
	case "title", "nam", "tit2":
		return KeyTitle
	case "album", "alb", "talb":
		return KeyAlbum
	}
	return cleaned
}

// fromRaw builds a Tags map from a raw decoder payload. Raw keys are visited
// in sorted order so collisions between spellings resolve deterministically;
// the first spelling wins.
func fromRaw(raw map[string]string) Tags {
	if len(raw) == 0 {
		return Tags{}
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make(Tags, len(raw))
	for _, key := range keys {
		normalized := normalizeKey(key)
		if _, exists := result[normalized]; exists {
			continue
		}
		result[normalized] = strings.TrimSpace(raw[key])
	}
	return result
}
