package contextual

import (
	"fmt"
	"regexp"
	"strings"

	"autoqueue/internal/catalog"
)

// Penalty multipliers for exclusive predicates whose moment has passed.
// Broad windows (a whole month, a weekday) penalize gently; pinpoint
// moments like holidays penalize hard.
const (
	penaltyHoliday = 2.0
	penaltySeason  = 1.25
	penaltyMonth   = 1 + 1.0/12
	penaltyWeekday = 1 + 1.0/7
)

// Predicate judges one contextual aspect of a candidate song.
//
// A predicate whose terms appear in a song and whose moment is now
// rewards the song (lower score is better). An exclusive predicate
// whose terms appear while its moment is not now penalizes the song.
type Predicate interface {
	Name() string
	AppliesToSong(song *catalog.Song, exclusive bool) bool
	AppliesInContext(snap *Snapshot) bool
	Reward(score float64, song *catalog.Song) float64
	Penalize(score float64) float64
}

// rule is the term-matching predicate base. Terms match song titles on
// word boundaries and non-geo tags as whole strings, tolerating simple
// plural forms ("bell" matches "bells" and "belles").
//
// Term classes: terms drive both reward and penalty; nonExclusiveTerms
// only ever reward; tagOnlyTerms avoid false title hits for ambiguous
// words ("may", "march", "fall").
type rule struct {
	name              string
	terms             []string
	nonExclusiveTerms []string
	tagOnlyTerms      []string
	tagPatterns       []string
	penalty           float64
	inContext         func(*Snapshot) bool

	titleExclusive []*regexp.Regexp
	titleAll       []*regexp.Regexp
	tagExclusive   []*regexp.Regexp
	tagAll         []*regexp.Regexp
}

func pluralPattern(term string) string {
	return regexp.QuoteMeta(term) + "(e?s)?"
}

func titleSearch(term string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + pluralPattern(term) + `\b`)
}

func tagSearch(term string) *regexp.Regexp {
	return regexp.MustCompile(`^` + pluralPattern(term) + `$`)
}

func (r *rule) compile() *rule {
	for _, term := range r.terms {
		r.titleExclusive = append(r.titleExclusive, titleSearch(term))
		r.tagExclusive = append(r.tagExclusive, tagSearch(term))
	}
	for _, term := range r.tagOnlyTerms {
		r.tagExclusive = append(r.tagExclusive, tagSearch(term))
	}
	for _, pattern := range r.tagPatterns {
		r.tagExclusive = append(r.tagExclusive, regexp.MustCompile(`^`+pattern+`$`))
	}
	r.titleAll = append([]*regexp.Regexp{}, r.titleExclusive...)
	r.tagAll = append([]*regexp.Regexp{}, r.tagExclusive...)
	for _, term := range r.nonExclusiveTerms {
		r.titleAll = append(r.titleAll, titleSearch(term))
		r.tagAll = append(r.tagAll, tagSearch(term))
	}
	return r
}

func (r *rule) Name() string { return r.name }

func (r *rule) AppliesToSong(song *catalog.Song, exclusive bool) bool {
	titleSearches, tagSearches := r.titleAll, r.tagAll
	if exclusive {
		titleSearches, tagSearches = r.titleExclusive, r.tagExclusive
	}

	title := strings.ToLower(song.Title)
	for _, search := range titleSearches {
		if search.MatchString(title) {
			return true
		}
	}
	for _, search := range tagSearches {
		for _, tag := range song.NonGeoTags() {
			if search.MatchString(strings.ToLower(tag)) {
				return true
			}
		}
	}
	return false
}

func (r *rule) AppliesInContext(snap *Snapshot) bool {
	if r.inContext == nil {
		return true
	}
	return r.inContext(snap)
}

func (r *rule) Reward(score float64, _ *catalog.Song) float64 {
	return score / 2
}

func (r *rule) Penalize(score float64) float64 {
	if r.penalty == 0 {
		return score
	}
	return score * r.penalty
}

// artistRule rewards songs by an artist heard nearby, falling back to
// term matching on the artist name.
type artistRule struct {
	rule
	artist string
}

func newArtistRule(artist string) *artistRule {
	p := &artistRule{artist: artist}
	p.rule = rule{name: "artist:" + artist, terms: []string{strings.ToLower(artist)}}
	p.rule.compile()
	return p
}

func (p *artistRule) AppliesToSong(song *catalog.Song, exclusive bool) bool {
	if song.HasArtist(p.artist) {
		return true
	}
	return p.rule.AppliesToSong(song, exclusive)
}

// tagsRule rewards songs sharing tags with the previous song,
// proportionally to the Jaccard-like overlap of the two tag sets.
type tagsRule struct {
	tags map[string]struct{}
}

func newTagsRule(tags []string) *tagsRule {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return &tagsRule{tags: set}
}

func (p *tagsRule) Name() string { return "shared-tags" }

func (p *tagsRule) AppliesToSong(song *catalog.Song, _ bool) bool {
	for _, tag := range song.NonGeoTags() {
		if _, ok := p.tags[tag]; ok {
			return true
		}
	}
	return false
}

func (p *tagsRule) AppliesInContext(*Snapshot) bool { return true }

func (p *tagsRule) Reward(score float64, song *catalog.Song) float64 {
	songTags := song.NonGeoTags()
	intersection := 0
	union := len(p.tags)
	for _, tag := range songTags {
		if _, ok := p.tags[tag]; ok {
			intersection++
		} else {
			union++
		}
	}
	overlap := float64(intersection) / float64(union+1)
	return score / (1 + overlap)
}

func (p *tagsRule) Penalize(score float64) float64 { return score }

// geohashRule rewards songs geotagged near the listener or the previous
// song. Reward strength doubles with every extra character of shared
// geohash prefix.
type geohashRule struct {
	name     string
	geohashes []string
}

func newGeohashRule(name string, geohashes []string) *geohashRule {
	return &geohashRule{name: name, geohashes: geohashes}
}

func (p *geohashRule) Name() string { return p.name }

func (p *geohashRule) AppliesToSong(song *catalog.Song, _ bool) bool {
	for _, mine := range p.geohashes {
		if len(mine) < 2 {
			continue
		}
		for _, other := range song.Geohashes() {
			if strings.HasPrefix(other, mine[:2]) {
				return true
			}
		}
	}
	return false
}

func (p *geohashRule) AppliesInContext(*Snapshot) bool { return true }

func (p *geohashRule) Reward(score float64, song *catalog.Song) float64 {
	longest := 0
	for _, mine := range p.geohashes {
		for _, other := range song.Geohashes() {
			if common := commonPrefix(mine, other); common > longest {
				longest = common
			}
		}
	}
	if longest < 2 {
		return score
	}
	// The first shared character only confirms the same macro-region.
	return score / float64(int(1)<<(longest-1))
}

func (p *geohashRule) Penalize(score float64) float64 { return score }

func commonPrefix(a, b string) int {
	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}
	for i := 0; i < limit; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return limit
}

// songYearRule rewards songs released in the given year. December is
// for retrospection.
type songYearRule struct {
	rule
	year int
}

func newSongYearRule(year int) *songYearRule {
	p := &songYearRule{year: year}
	p.rule = rule{name: fmt.Sprintf("songs-of-%d", year)}
	p.rule.compile()
	return p
}

func (p *songYearRule) AppliesToSong(song *catalog.Song, _ bool) bool {
	return song.Year == p.year
}

// birthdayRule rewards songs from a loved one's birth year around their
// birthday, and penalizes explicit birthday-dated songs off the day.
type birthdayRule struct {
	rule
	birthday Birthday
}

func newBirthdayRule(birthday Birthday) *birthdayRule {
	p := &birthdayRule{birthday: birthday}
	p.rule = rule{
		name:              "birthday:" + birthday.Name,
		nonExclusiveTerms: []string{fmt.Sprintf("%d", birthday.Year)},
		tagPatterns:       []string{fmt.Sprintf("%02d-%02d", birthday.Month, birthday.Day)},
		penalty:           penaltyHoliday,
		inContext: func(snap *Snapshot) bool {
			return snap.Now.Month() == birthday.Month && snap.Now.Day() == birthday.Day
		},
	}
	p.rule.compile()
	return p
}

func (p *birthdayRule) AppliesToSong(song *catalog.Song, exclusive bool) bool {
	if !exclusive && song.Year == p.birthday.Year {
		return true
	}
	return p.rule.AppliesToSong(song, exclusive)
}
