package catalog_test

import (
	"context"
	"testing"

	"autoqueue/internal/catalog"
)

func TestTagNamespaces(t *testing.T) {
	song := catalog.Song{
		Filename: "/music/a.flac",
		Tags:     []string{"rock", "artist:sleater-kinney", "album:dig me out", "geohash:u173zy"},
	}

	nonGeo := song.NonGeoTags()
	if len(nonGeo) != 3 {
		t.Fatalf("expected 3 non-geo tags, got %v", nonGeo)
	}
	hashes := song.Geohashes()
	if len(hashes) != 1 || hashes[0] != "u173zy" {
		t.Fatalf("expected stripped geohash, got %v", hashes)
	}
	stripped := song.StrippedTags()
	want := map[string]bool{"rock": true, "sleater-kinney": true, "dig me out": true}
	for _, tag := range stripped {
		if !want[tag] {
			t.Fatalf("unexpected stripped tag %q in %v", tag, stripped)
		}
	}
}

func TestRatingDefaults(t *testing.T) {
	song := catalog.Song{Rating: -1, PlayFrequency: -1}
	if got := song.RatingOrDefault(0.5); got != 0.5 {
		t.Fatalf("expected fallback rating, got %f", got)
	}
	song.Rating = 0.9
	if got := song.RatingOrDefault(0.5); got != 0.9 {
		t.Fatalf("expected known rating, got %f", got)
	}
	if got := song.PlayFrequencyOrDefault(1); got != 1 {
		t.Fatalf("expected fallback frequency, got %f", got)
	}
}

func TestHasArtistFoldsCase(t *testing.T) {
	song := catalog.Song{Artists: []string{"Sigur Rós", "múm"}}
	if !song.HasArtist("sigur rós") {
		t.Fatal("expected case-folded artist match")
	}
	if song.HasArtist("björk") {
		t.Fatal("unexpected artist match")
	}
}

func TestLibrarySearchByTags(t *testing.T) {
	lib := catalog.NewLibrary(
		catalog.Song{Filename: "/m/1.flac", Title: "one", Artists: []string{"a"}, Tags: []string{"jazz"}},
		catalog.Song{Filename: "/m/2.flac", Title: "two", Artists: []string{"b"}, Tags: []string{"artist:coltrane"}},
		catalog.Song{Filename: "/m/3.flac", Title: "three", Artists: []string{"c"}, Tags: []string{"rock"}},
	)

	results, err := lib.Search(context.Background(), catalog.ByTags("jazz", "coltrane"))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 tag matches, got %d", len(results))
	}
}

func TestLibrarySearchByAlbum(t *testing.T) {
	lib := catalog.NewLibrary(
		catalog.Song{Filename: "/m/1.flac", Album: "Blue", AlbumArtist: "Joni Mitchell", TrackNumber: 1},
		catalog.Song{Filename: "/m/2.flac", Album: "Blue", AlbumArtist: "Joni Mitchell", TrackNumber: 2},
		catalog.Song{Filename: "/m/3.flac", Album: "Blue Train", AlbumArtist: "John Coltrane", TrackNumber: 1},
	)

	results, err := lib.Search(context.Background(), catalog.ByAlbum("blue", "joni mitchell", ""))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 album members, got %d", len(results))
	}
}

func TestLibraryQueue(t *testing.T) {
	lib := catalog.NewLibrary()
	ctx := context.Background()

	if err := lib.Enqueue(ctx, catalog.Song{Filename: "/m/1.flac", Duration: 180}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	length, err := lib.QueueLength(ctx)
	if err != nil || length != 180 {
		t.Fatalf("expected queue length 180, got %d (%v)", length, err)
	}
	queued, err := lib.SongsInQueue(ctx)
	if err != nil || len(queued) != 1 || queued[0].Filename != "/m/1.flac" {
		t.Fatalf("unexpected queue contents: %v (%v)", queued, err)
	}
}
