package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Tag namespace prefixes used by player adapters.
const (
	geohashTagPrefix = "geohash:"
	artistTagPrefix  = "artist:"
	albumTagPrefix   = "album:"
)

var folder = cases.Fold()

// Fold lowercases a string using full Unicode case folding, so that
// artist, title, and tag comparisons behave for non-ASCII names.
func Fold(s string) string {
	return folder.String(s)
}

// Song is a read-only view of a playable item supplied by the player
// adapter. Filename uniquely identifies the item within one catalog.
//
// Rating is in [0,1], Playcount and PlayFrequency are non-negative;
// a value of -1 means the player does not know.
type Song struct {
	Filename      string
	Artists       []string
	Title         string
	Album         string
	AlbumArtist   string
	AlbumID       string
	DiscNumber    int
	TrackNumber   int
	Year          int
	Duration      int
	Tags          []string
	Rating        float64
	Playcount     int
	PlayFrequency float64
}

// Artist returns the song's primary artist, or "" when unknown.
func (s *Song) Artist() string {
	if len(s.Artists) == 0 {
		return ""
	}
	return s.Artists[0]
}

// ArtistNames returns all artist names, case folded and trimmed.
func (s *Song) ArtistNames() []string {
	names := make([]string, 0, len(s.Artists))
	for _, artist := range s.Artists {
		names = append(names, Fold(strings.TrimSpace(artist)))
	}
	return names
}

// NonGeoTags returns all tags except location geohash tags.
func (s *Song) NonGeoTags() []string {
	var tags []string
	for _, tag := range s.Tags {
		if strings.HasPrefix(tag, geohashTagPrefix) {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// Geohashes returns the song's location tags with the namespace stripped.
func (s *Song) Geohashes() []string {
	var hashes []string
	for _, tag := range s.Tags {
		if rest, ok := strings.CutPrefix(tag, geohashTagPrefix); ok && rest != "" {
			hashes = append(hashes, rest)
		}
	}
	return hashes
}

// StrippedTags returns non-geo tags with artist:/album: namespaces removed.
func (s *Song) StrippedTags() []string {
	var tags []string
	for _, tag := range s.NonGeoTags() {
		if rest, ok := strings.CutPrefix(tag, artistTagPrefix); ok {
			tags = append(tags, rest)
			continue
		}
		if rest, ok := strings.CutPrefix(tag, albumTagPrefix); ok {
			tags = append(tags, rest)
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// RatingOrDefault returns the song's rating, or fallback when unknown.
func (s *Song) RatingOrDefault(fallback float64) float64 {
	if s.Rating < 0 {
		return fallback
	}
	return s.Rating
}

// PlayFrequencyOrDefault returns the play frequency, or fallback when unknown.
func (s *Song) PlayFrequencyOrDefault(fallback float64) float64 {
	if s.PlayFrequency < 0 {
		return fallback
	}
	return s.PlayFrequency
}

// HasArtist reports whether name matches any of the song's artists,
// ignoring case and surrounding whitespace.
func (s *Song) HasArtist(name string) bool {
	folded := Fold(strings.TrimSpace(name))
	for _, artist := range s.ArtistNames() {
		if artist == folded {
			return true
		}
	}
	return false
}
