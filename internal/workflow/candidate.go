package workflow

import (
	"autoqueue/internal/catalog"
)

// Album titles that are meaningless as albums; whole-album expansion
// skips them.
var bannedAlbums = map[string]struct{}{
	"ep":                 {},
	"greatest hits":      {},
	"the greatest hits":  {},
	"demo":               {},
	"the best of":        {},
	"the very best of":   {},
	"live":               {},
	"demos":              {},
	"self titled":        {},
	"untitled album":     {},
	"[non-album tracks]": {},
	"single":             {},
	"singles":            {},
	`7"`:                 {},
	"covers":             {},
	"album":              {},
	`split 7"`:           {},
	"s/t":                {},
}

// candidate is one similarity hit moving through resolution, scoring,
// and picking. Exactly one of filename, artist+title, or artist is set
// by the producing stage; song is attached during catalog resolution.
type candidate struct {
	score    float64
	filename string
	artist   string
	title    string
	song     *catalog.Song
	reasons  []string
}

func (c *candidate) describe() string {
	switch {
	case c.artist != "" && c.title != "":
		return c.artist + " - " + c.title
	case c.artist != "":
		return c.artist
	default:
		return c.filename
	}
}

// tagScore measures tag overlap between a song and a reference tag set,
// as the shared fraction of the smaller set.
func tagScore(song *catalog.Song, tags map[string]struct{}) float64 {
	if len(tags) == 0 {
		return 0
	}
	songTags := song.NonGeoTags()
	if len(songTags) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(songTags))
	shared := 0
	for _, tag := range songTags {
		if _, seen := unique[tag]; seen {
			continue
		}
		unique[tag] = struct{}{}
		if _, ok := tags[tag]; ok {
			shared++
		}
	}
	smaller := len(unique)
	if len(tags) < smaller {
		smaller = len(tags)
	}
	return float64(shared) / float64(smaller)
}
