package contextual

import "time"

// easterFor computes Gregorian Easter Sunday using the anonymous
// Meeus/Jones/Butcher algorithm, valid for any Gregorian year.
func easterFor(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// daysFromEaster is the whole-day offset of a moment from that year's
// Easter Sunday. Negative before Easter.
func daysFromEaster(now time.Time) int {
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(date.Sub(easterFor(now.Year())).Hours() / 24)
}
