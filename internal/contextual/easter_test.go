package contextual

import (
	"testing"
	"time"
)

func TestEasterDates(t *testing.T) {
	known := map[int]time.Time{
		2014: time.Date(2014, 4, 20, 0, 0, 0, 0, time.UTC),
		2015: time.Date(2015, 4, 5, 0, 0, 0, 0, time.UTC),
		2016: time.Date(2016, 3, 27, 0, 0, 0, 0, time.UTC),
		2017: time.Date(2017, 4, 16, 0, 0, 0, 0, time.UTC),
		2018: time.Date(2018, 4, 1, 0, 0, 0, 0, time.UTC),
		2019: time.Date(2019, 4, 21, 0, 0, 0, 0, time.UTC),
		2020: time.Date(2020, 4, 12, 0, 0, 0, 0, time.UTC),
		2021: time.Date(2021, 4, 4, 0, 0, 0, 0, time.UTC),
		2022: time.Date(2022, 4, 17, 0, 0, 0, 0, time.UTC),
	}
	for year, want := range known {
		if got := easterFor(year); !got.Equal(want) {
			t.Errorf("easter %d: got %s, want %s", year, got.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}
}

func TestDaysFromEaster(t *testing.T) {
	goodFriday := time.Date(2019, 4, 19, 15, 30, 0, 0, time.UTC)
	if got := daysFromEaster(goodFriday); got != -2 {
		t.Fatalf("expected -2 days, got %d", got)
	}
	pentecost := time.Date(2019, 6, 9, 0, 0, 0, 0, time.UTC)
	if got := daysFromEaster(pentecost); got != 49 {
		t.Fatalf("expected 49 days, got %d", got)
	}
}
