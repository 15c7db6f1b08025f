package contextual

import (
	"fmt"
	"time"
)

// isoWeekday matches the convention where Monday is 1 and Sunday is 7.
func isoWeekday(t time.Time) int {
	weekday := int(t.Weekday())
	if weekday == 0 {
		return 7
	}
	return weekday
}

func onDate(month time.Month, day int) func(*Snapshot) bool {
	return func(snap *Snapshot) bool {
		return snap.Now.Month() == month && snap.Now.Day() == day
	}
}

func inMonth(month time.Month) func(*Snapshot) bool {
	return func(snap *Snapshot) bool {
		return snap.Now.Month() == month
	}
}

// onWeekday treats the small hours as part of the evening before, so a
// Friday-night session is still Friday at two in the morning.
func onWeekday(day int) func(*Snapshot) bool {
	return func(snap *Snapshot) bool {
		weekday, hour := isoWeekday(snap.Now), snap.Now.Hour()
		if weekday == day && hour >= 4 {
			return true
		}
		return weekday == day%7+1 && hour < 4
	}
}

func inHours(from, until int) func(*Snapshot) bool {
	return func(snap *Snapshot) bool {
		hour := snap.Now.Hour()
		return hour >= from && hour < until
	}
}

func atEasterOffset(days int) func(*Snapshot) bool {
	return func(snap *Snapshot) bool {
		return daysFromEaster(snap.Now) == days
	}
}

// Season boundaries are the conventional 21sts; the southern hemisphere
// swaps the windows half a year.
func inSeason(startMonth, endMonth time.Month) func(*Snapshot) bool {
	return func(snap *Snapshot) bool {
		start, end := startMonth, endMonth
		if snap.SouthernHemisphere {
			start = time.Month((int(start)+5)%12 + 1)
			end = time.Month((int(end)+5)%12 + 1)
		}
		// The winter window wraps the year boundary.
		winter := start == time.December
		now := snap.Now
		from := time.Date(now.Year(), start, 21, 0, 0, 0, 0, now.Location())
		until := time.Date(now.Year(), end, 21, 0, 0, 0, 0, now.Location())
		if winter {
			return !now.Before(from) || !now.After(until)
		}
		return !now.Before(from) && !now.After(until)
	}
}

func month(name string, m time.Month) *rule {
	return (&rule{name: name, terms: []string{name}, penalty: penaltyMonth, inContext: inMonth(m)}).compile()
}

func tagOnlyMonth(name string, m time.Month) *rule {
	return (&rule{name: name, tagOnlyTerms: []string{name}, penalty: penaltyMonth, inContext: inMonth(m)}).compile()
}

func weekday(name string, day int) *rule {
	return (&rule{name: name, terms: []string{name}, penalty: penaltyWeekday, inContext: onWeekday(day)}).compile()
}

func season(name string, startMonth, endMonth time.Month, terms, tagOnly []string) *rule {
	return (&rule{
		name:         name,
		terms:        terms,
		tagOnlyTerms: tagOnly,
		penalty:      penaltySeason,
		inContext:    inSeason(startMonth, endMonth),
	}).compile()
}

func holiday(name string, terms, nonExclusive []string, inContext func(*Snapshot) bool) *rule {
	return (&rule{
		name:              name,
		terms:             terms,
		nonExclusiveTerms: nonExclusive,
		penalty:           penaltyHoliday,
		inContext:         inContext,
	}).compile()
}

// dateHoliday pins a holiday to a calendar date and also matches the
// bare MM-DD tag form.
func dateHoliday(name string, m time.Month, day int, terms, nonExclusive []string) *rule {
	return (&rule{
		name:              name,
		terms:             terms,
		nonExclusiveTerms: nonExclusive,
		tagPatterns:       []string{fmt.Sprintf("%02d-%02d", m, day)},
		penalty:           penaltyHoliday,
		inContext:         onDate(m, day),
	}).compile()
}

// staticRules is the calendar-driven predicate set, applied to every
// decision in declaration order.
func staticRules() []Predicate {
	return []Predicate{
		holiday("christmas",
			[]string{"christmas", "santa claus", "xmas"},
			[]string{"reindeer", "sled", "santa", "snow", "bell", "jesus", "eggnoc",
				"mistletoe", "carol", "nativity", "mary", "joseph", "manger"},
			func(snap *Snapshot) bool {
				return snap.Now.Month() == time.December && snap.Now.Day() >= 20 && snap.Now.Day() <= 29
			}),
		holiday("kwanzaa", []string{"kwanzaa"}, nil,
			func(snap *Snapshot) bool {
				now := snap.Now
				return (now.Month() == time.December && now.Day() >= 26) ||
					(now.Month() == time.January && now.Day() == 1)
			}),
		holiday("new year", []string{"new year"}, nil,
			func(snap *Snapshot) bool {
				now := snap.Now
				return (now.Month() == time.December && now.Day() >= 27) ||
					(now.Month() == time.January && now.Day() <= 7)
			}),
		holiday("halloween",
			[]string{"halloween", "hallowe'en", "all hallow's"},
			[]string{"haunt", "haunting", "haunted", "ghost", "monster", "horror", "devil",
				"witch", "pumkin", "bone", "skeleton", "ghosts", "zombie", "werewolf",
				"werewolves", "vampire", "evil", "scare", "scary", "scaring", "fear",
				"fright", "blood", "bat", "dracula", "spider", "costume", "satan",
				"hell", "undead", "dead", "death", "grave"},
			func(snap *Snapshot) bool {
				now := snap.Now
				return (now.Month() == time.October && now.Day() >= 25) ||
					(now.Month() == time.November && now.Day() < 2)
			}),
		holiday("easter", []string{"easter"},
			[]string{"egg", "bunny", "bunnies", "rabbit"},
			func(snap *Snapshot) bool {
				offset := daysFromEaster(snap.Now)
				return offset > -5 && offset < 5
			}),
		holiday("mardi gras", []string{"mardi gras", "shrove tuesday", "fat tuesday"}, nil, atEasterOffset(-47)),
		holiday("ash wednesday", []string{"ash wednesday"}, []string{"ash"}, atEasterOffset(-46)),
		holiday("palm sunday", []string{"palm sunday"}, []string{"palms"}, atEasterOffset(-7)),
		holiday("maundy thursday", []string{"maundy thursday"}, nil, atEasterOffset(-3)),
		holiday("good friday", []string{"good friday"}, nil, atEasterOffset(-2)),
		holiday("ascension", []string{"ascension"}, nil, atEasterOffset(39)),
		holiday("pentecost", []string{"pentecost"}, nil, atEasterOffset(49)),
		holiday("whit monday", []string{"whit monday"}, nil, atEasterOffset(50)),
		holiday("all saints", []string{"all saints"}, nil, atEasterOffset(56)),
		dateHoliday("veterans day", time.November, 11,
			[]string{"armistice day", "veterans day"},
			[]string{"peace", "armistice", "veteran"}),
		dateHoliday("assumption", time.August, 15, []string{"assumption"}, nil),
		dateHoliday("independence day", time.July, 4,
			[]string{"independence day"},
			[]string{"independence", "united states", "independant", "usa", "u.s.a."}),
		dateHoliday("groundhog day", time.February, 2, []string{"groundhog day"}, []string{"groundhog"}),
		dateHoliday("valentine", time.February, 14, []string{"valentine"}, []string{"heart", "love"}),
		dateHoliday("april fools", time.April, 1, []string{"april fool"}, []string{"prank", "joke", "fool", "hoax"}),
		dateHoliday("cinco de mayo", time.May, 5, []string{"cinco de mayo"}, []string{"mexico"}),
		holiday("solstice", []string{"solstice"}, nil,
			func(snap *Snapshot) bool {
				now := snap.Now
				return now.Day() == 21 && (now.Month() == time.June || now.Month() == time.December)
			}),
		holiday("friday the 13th", []string{"friday the 13th"}, []string{"bad luck", "superstition"},
			func(snap *Snapshot) bool {
				return snap.Now.Day() == 13 && isoWeekday(snap.Now) == 5
			}),
		month("january", time.January),
		month("february", time.February),
		tagOnlyMonth("march", time.March),
		month("april", time.April),
		tagOnlyMonth("may", time.May),
		month("june", time.June),
		month("july", time.July),
		month("august", time.August),
		month("september", time.September),
		month("october", time.October),
		month("november", time.November),
		month("december", time.December),
		weekday("monday", 1),
		weekday("tuesday", 2),
		weekday("wednesday", 3),
		weekday("thursday", 4),
		weekday("friday", 5),
		weekday("saturday", 6),
		weekday("sunday", 7),
		holiday("weekend", []string{"weekend"}, nil,
			func(snap *Snapshot) bool {
				weekday, hour := isoWeekday(snap.Now), snap.Now.Hour()
				return weekday == 6 || weekday == 7 || (weekday == 5 && hour >= 17)
			}),
		season("spring", time.March, time.June, []string{"spring", "springtime"}, nil),
		season("summer", time.June, time.September, []string{"summer", "summertime"}, nil),
		season("autumn", time.September, time.December, []string{"autumn"}, []string{"fall"}),
		season("winter", time.December, time.March, []string{"winter", "wintertime"}, nil),
		holiday("evening", []string{"evening"}, nil, inHours(18, 21)),
		holiday("morning", []string{"morning"}, nil, inHours(4, 12)),
		holiday("afternoon", []string{"afternoon"}, nil, inHours(12, 18)),
		holiday("night", []string{"night"}, nil,
			func(snap *Snapshot) bool {
				hour := snap.Now.Hour()
				return hour >= 21 || hour < 4
			}),
	}
}

// buildPredicates assembles the full predicate list for one snapshot:
// the static calendar set plus the rules derived from configuration and
// the listening session.
func buildPredicates(snap *Snapshot) []Predicate {
	predicates := staticRules()

	predicates = append(predicates,
		(&rule{
			name:         "current-year",
			tagOnlyTerms: []string{fmt.Sprintf("%d", snap.Now.Year())},
		}).compile(),
		(&rule{
			name:        "today",
			tagPatterns: []string{fmt.Sprintf("%02d-%02d", snap.Now.Month(), snap.Now.Day())},
			penalty:     penaltyHoliday,
			inContext:   onDate(snap.Now.Month(), snap.Now.Day()),
		}).compile(),
	)

	if snap.Now.Month() == time.December {
		predicates = append(predicates, newSongYearRule(snap.Now.Year()))
	}
	for _, location := range snap.Locations {
		predicates = append(predicates,
			(&rule{name: "location:" + location, terms: []string{location}}).compile())
	}
	if snap.Geohash != "" {
		predicates = append(predicates, newGeohashRule("here", []string{snap.Geohash}))
	}
	for _, tag := range snap.WeatherTags {
		predicates = append(predicates,
			(&rule{name: "weather:" + tag, terms: []string{tag}}).compile())
	}
	for _, birthday := range snap.Birthdays {
		predicates = append(predicates, newBirthdayRule(birthday))
	}
	for _, tag := range snap.ExtraTags {
		predicates = append(predicates,
			(&rule{name: "extra:" + tag, terms: []string{tag}}).compile())
	}
	if snap.LastSong != nil {
		predicates = append(predicates, newTagsRule(snap.LastSong.NonGeoTags()))
		if geohashes := snap.LastSong.Geohashes(); len(geohashes) > 0 {
			predicates = append(predicates, newGeohashRule("last-song-location", geohashes))
		}
	}
	for _, artist := range snap.NearbyArtists {
		predicates = append(predicates, newArtistRule(artist))
	}
	if len(snap.PreviousTerms) > 0 {
		predicates = append(predicates, newTagsRule(snap.PreviousTerms))
	}
	return predicates
}
