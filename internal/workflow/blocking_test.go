package workflow

import (
	"testing"
	"time"
)

func TestBlockingExpires(t *testing.T) {
	now := time.Date(2025, 7, 8, 12, 0, 0, 0, time.UTC)
	blocking := NewBlocking(24 * time.Hour)
	blocking.now = func() time.Time { return now }

	blocking.Block("Nina Simone")
	if _, ok := blocking.Blocked(nil)["nina simone"]; !ok {
		t.Fatal("expected artist to be blocked")
	}

	now = now.Add(23 * time.Hour)
	blocking.Unblock()
	if _, ok := blocking.Blocked(nil)["nina simone"]; !ok {
		t.Fatal("hold expired too early")
	}

	now = now.Add(2 * time.Hour)
	blocking.Unblock()
	if _, ok := blocking.Blocked(nil)["nina simone"]; ok {
		t.Fatal("expected hold to expire")
	}
}

func TestBlockingIncludesQueueArtists(t *testing.T) {
	blocking := NewBlocking(time.Hour)
	blocked := blocking.Blocked([]string{"Queued Artist"})
	if _, ok := blocked["queued artist"]; !ok {
		t.Fatal("expected queued artist to count as blocked")
	}
}

func TestRequestsFIFO(t *testing.T) {
	requests := NewRequests()
	requests.Add("/m/a.flac")
	requests.Add("/m/b.flac")
	requests.Add("/m/a.flac")

	if !requests.Has("/m/a.flac") || !requests.Has("/m/b.flac") {
		t.Fatal("expected both requests present")
	}
	requests.Pop("/m/a.flac")
	all := requests.All()
	if len(all) != 2 || all[0] != "/m/b.flac" || all[1] != "/m/a.flac" {
		t.Fatalf("expected single occurrence removed in order, got %v", all)
	}
}

func TestTagScore(t *testing.T) {
	song := sampleSong("/m/x.flac", "x", "artist", "jazz", "piano", "cool")
	tags := map[string]struct{}{"jazz": {}, "piano": {}}
	if got := tagScore(&song, tags); got != 1 {
		t.Fatalf("expected full overlap of smaller set, got %f", got)
	}
	if got := tagScore(&song, map[string]struct{}{"metal": {}}); got != 0 {
		t.Fatalf("expected zero overlap, got %f", got)
	}
	if got := tagScore(&song, nil); got != 0 {
		t.Fatalf("expected zero score without reference tags, got %f", got)
	}
}
