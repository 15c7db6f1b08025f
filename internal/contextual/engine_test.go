package contextual_test

import (
	"math"
	"testing"
	"time"

	"autoqueue/internal/catalog"
	"autoqueue/internal/config"
	"autoqueue/internal/contextual"
)

func adjust(t *testing.T, cfg config.Context, now time.Time, lastSong *catalog.Song, song catalog.Song, score float64) (float64, []string) {
	t.Helper()
	snap := contextual.NewSnapshot(cfg, now, lastSong, nil)
	engine := contextual.NewEngine(snap, nil)
	return engine.AdjustScore(&song, score)
}

func almost(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestChristmasSongRewardedInSeason(t *testing.T) {
	christmasDay := time.Date(2025, 12, 25, 12, 0, 0, 0, time.UTC)
	song := catalog.Song{Title: "Christmas Bells"}

	score, reasons := adjust(t, config.Context{}, christmasDay, nil, song, 100)
	if !almost(score, 50) {
		t.Fatalf("expected 50, got %f (reasons %v)", score, reasons)
	}
}

func TestChristmasSongPenalizedInJuly(t *testing.T) {
	july := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	song := catalog.Song{Title: "Christmas Bells"}

	score, reasons := adjust(t, config.Context{}, july, nil, song, 100)
	if !almost(score, 200) {
		t.Fatalf("expected 200, got %f (reasons %v)", score, reasons)
	}
}

func TestNonExclusiveTermsNeverPenalize(t *testing.T) {
	christmasDay := time.Date(2025, 12, 25, 12, 0, 0, 0, time.UTC)
	july := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	// "bells" only matches the plural-tolerant non-exclusive term "bell".
	song := catalog.Song{Title: "Silver Bells"}

	score, reasons := adjust(t, config.Context{}, christmasDay, nil, song, 100)
	if !almost(score, 50) {
		t.Fatalf("expected seasonal reward 50, got %f (reasons %v)", score, reasons)
	}
	score, reasons = adjust(t, config.Context{}, july, nil, song, 100)
	if !almost(score, 100) {
		t.Fatalf("expected no off-season penalty, got %f (reasons %v)", score, reasons)
	}
}

func TestTagOnlyTermsIgnoreTitles(t *testing.T) {
	july := time.Date(2025, 7, 8, 14, 0, 0, 0, time.UTC)

	titled := catalog.Song{Title: "Maybe May"}
	score, reasons := adjust(t, config.Context{}, july, nil, titled, 100)
	if !almost(score, 100) {
		t.Fatalf("title should not trigger tag-only month, got %f (reasons %v)", score, reasons)
	}

	tagged := catalog.Song{Title: "untitled", Tags: []string{"may"}}
	score, reasons = adjust(t, config.Context{}, july, nil, tagged, 100)
	if !almost(score, 100*(1+1.0/12)) {
		t.Fatalf("expected month penalty, got %f (reasons %v)", score, reasons)
	}
}

func TestSharedTagsRewardScalesWithOverlap(t *testing.T) {
	now := time.Date(2025, 7, 8, 14, 0, 0, 0, time.UTC)
	lastSong := &catalog.Song{Title: "previous", Tags: []string{"ambient", "drone"}}
	song := catalog.Song{Title: "untitled", Tags: []string{"ambient", "piano"}}

	// Overlap 1 of union 3: factor 1 + 1/(3+1).
	score, reasons := adjust(t, config.Context{}, now, lastSong, song, 100)
	if !almost(score, 80) {
		t.Fatalf("expected 80, got %f (reasons %v)", score, reasons)
	}
}

func TestGeohashRewardGrowsWithSharedPrefix(t *testing.T) {
	now := time.Date(2025, 7, 8, 14, 0, 0, 0, time.UTC)
	cfg := config.Context{Geohash: "u173zy"}
	song := catalog.Song{Title: "untitled", Tags: []string{"geohash:u173ab"}}

	// Four shared characters: factor 2^3.
	score, reasons := adjust(t, cfg, now, nil, song, 100)
	if !almost(score, 12.5) {
		t.Fatalf("expected 12.5, got %f (reasons %v)", score, reasons)
	}
}

func TestWeekdayGraceWindowWrapsSundayIntoMonday(t *testing.T) {
	song := catalog.Song{Title: "Sunday"}

	// 2025-07-07 is a Monday; before 04:00 it still counts as Sunday
	// night.
	lateNight := time.Date(2025, 7, 7, 2, 0, 0, 0, time.UTC)
	score, reasons := adjust(t, config.Context{}, lateNight, nil, song, 100)
	if !almost(score, 50) {
		t.Fatalf("expected night-owl reward, got %f (reasons %v)", score, reasons)
	}

	noon := time.Date(2025, 7, 7, 12, 0, 0, 0, time.UTC)
	score, reasons = adjust(t, config.Context{}, noon, nil, song, 100)
	if !almost(score, 100*(1+1.0/7)) {
		t.Fatalf("expected weekday penalty, got %f (reasons %v)", score, reasons)
	}
}

func TestBirthdayYearRewardOnTheDay(t *testing.T) {
	cfg := config.Context{Birthdays: "alice: 1990-03-15"}

	theDay := time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)
	song := catalog.Song{Title: "untitled", Year: 1990}
	score, reasons := adjust(t, cfg, theDay, nil, song, 100)
	if !almost(score, 50) {
		t.Fatalf("expected birth-year reward, got %f (reasons %v)", score, reasons)
	}

	offDay := time.Date(2025, 7, 8, 14, 0, 0, 0, time.UTC)
	dated := catalog.Song{Title: "untitled", Tags: []string{"03-15"}}
	score, reasons = adjust(t, cfg, offDay, nil, dated, 100)
	if !almost(score, 200) {
		t.Fatalf("expected off-day penalty, got %f (reasons %v)", score, reasons)
	}
}

func TestAdjustScoreIsDeterministic(t *testing.T) {
	now := time.Date(2025, 12, 25, 23, 30, 0, 0, time.UTC)
	cfg := config.Context{Location: "reykjavik", Geohash: "gcip"}
	song := catalog.Song{Title: "Christmas Night in Reykjavik", Tags: []string{"winter"}, Year: 2025}

	snap := contextual.NewSnapshot(cfg, now, nil, nil)
	engine := contextual.NewEngine(snap, nil)

	first, firstReasons := engine.AdjustScore(&song, 100)
	second, secondReasons := engine.AdjustScore(&song, 100)
	if first != second {
		t.Fatalf("scores differ: %f vs %f", first, second)
	}
	if len(firstReasons) != len(secondReasons) {
		t.Fatalf("reasons differ: %v vs %v", firstReasons, secondReasons)
	}

	fresh, _ := contextual.NewEngine(contextual.NewSnapshot(cfg, now, nil, nil), nil).AdjustScore(&song, 100)
	if fresh != first {
		t.Fatalf("fresh engine disagrees: %f vs %f", fresh, first)
	}
}
