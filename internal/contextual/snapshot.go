package contextual

import (
	"strings"
	"time"

	"autoqueue/internal/catalog"
	"autoqueue/internal/config"
)

// Birthday is one configured birthday, parsed from "name: YYYY-MM-DD".
type Birthday struct {
	Name  string
	Year  int
	Month time.Month
	Day   int
}

// Age at the snapshot moment, by calendar year.
func (b Birthday) Age(now time.Time) int {
	return now.Year() - b.Year
}

// Snapshot freezes everything the predicate engine looks at. It is
// built once per queueing decision so every candidate in that decision
// is judged against the same moment.
type Snapshot struct {
	Now                time.Time
	SouthernHemisphere bool
	Locations          []string
	Geohash            string
	Birthdays          []Birthday
	WeatherTags        []string
	ExtraTags          []string
	LastSong           *catalog.Song
	NearbyArtists      []string

	// PreviousTerms are tags carried over from recently queued songs,
	// weighted by how often they recurred.
	PreviousTerms []string
}

// NewSnapshot captures the context configuration at the given moment.
// lastSong and nearbyArtists come from the orchestrator's live state.
func NewSnapshot(cfg config.Context, now time.Time, lastSong *catalog.Song, nearbyArtists []string) *Snapshot {
	snap := &Snapshot{
		Now:                now,
		SouthernHemisphere: cfg.SouthernHemisphere,
		Geohash:            cfg.Geohash,
		WeatherTags:        lowered(cfg.WeatherTags),
		ExtraTags:          lowered(splitList(cfg.Extra)),
		LastSong:           lastSong,
		NearbyArtists:      nearbyArtists,
	}
	for _, location := range strings.Split(cfg.Location, ",") {
		location = strings.ToLower(strings.TrimSpace(location))
		if location != "" {
			snap.Locations = append(snap.Locations, location)
		}
	}
	for _, entry := range splitList(cfg.Birthdays) {
		if birthday, ok := parseBirthday(entry); ok {
			snap.Birthdays = append(snap.Birthdays, birthday)
		}
	}
	return snap
}

func splitList(value string) []string {
	var out []string
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func parseBirthday(entry string) (Birthday, bool) {
	name, date, found := strings.Cut(entry, ":")
	if !found {
		return Birthday{}, false
	}
	date = strings.ReplaceAll(strings.TrimSpace(date), "/", "-")
	parsed, err := time.Parse("2006-1-2", date)
	if err != nil {
		return Birthday{}, false
	}
	return Birthday{
		Name:  strings.ToLower(strings.TrimSpace(name)),
		Year:  parsed.Year(),
		Month: parsed.Month(),
		Day:   parsed.Day(),
	}, true
}

func lowered(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
