package workflow

import (
	"context"
	"testing"
	"time"

	"autoqueue/internal/catalog"
	"autoqueue/internal/config"
	"autoqueue/internal/similarity"
)

type fakeClient struct {
	neighbours map[string][]similarity.Neighbour
	tracks     map[string][]similarity.TrackMatch
	artists    []similarity.ArtistMatch
	analyzed   []string
	removed    []string
}

func (f *fakeClient) AnalyzeTrack(_ context.Context, filename string, _ bool, _ []string) error {
	f.analyzed = append(f.analyzed, filename)
	return nil
}

func (f *fakeClient) OrderedAcousticTracks(_ context.Context, filename string) ([]similarity.Neighbour, error) {
	return f.neighbours[filename], nil
}

func (f *fakeClient) OrderedSimilarTracks(_ context.Context, artist, title string) ([]similarity.TrackMatch, error) {
	return f.tracks[artist+" - "+title], nil
}

func (f *fakeClient) OrderedSimilarArtists(_ context.Context, _ []string) ([]similarity.ArtistMatch, error) {
	return f.artists, nil
}

func (f *fakeClient) BestRequest(_ context.Context, _ string, requests []string) (string, error) {
	return requests[0], nil
}

func (f *fakeClient) RemoveTrackByFilename(_ context.Context, filename string) error {
	f.removed = append(f.removed, filename)
	return nil
}

func sampleSong(filename, title, artist string, tags ...string) catalog.Song {
	return catalog.Song{
		Filename:      filename,
		Title:         title,
		Artists:       []string{artist},
		Tags:          tags,
		Duration:      300,
		Rating:        1,
		PlayFrequency: 0,
	}
}

func newTestManager(t *testing.T, library *catalog.Library, client *fakeClient, mutate func(*config.Config)) *Manager {
	t.Helper()
	cfg := config.Default()
	cfg.Queue.DesiredLength = 1
	if mutate != nil {
		mutate(&cfg)
	}
	quietTuesday := time.Date(2025, 7, 8, 14, 0, 0, 0, time.UTC)
	return NewManager(&cfg, library, client, nil,
		WithClock(func() time.Time { return quietTuesday }),
		WithRand(func() float64 { return 0 }),
	)
}

func queueFilenames(t *testing.T, library *catalog.Library) []string {
	t.Helper()
	queued, err := library.SongsInQueue(context.Background())
	if err != nil {
		t.Fatalf("queue contents: %v", err)
	}
	filenames := make([]string, 0, len(queued))
	for _, song := range queued {
		filenames = append(filenames, song.Filename)
	}
	return filenames
}

func TestCascadeExhaustionLeavesIdle(t *testing.T) {
	library := catalog.NewLibrary()
	client := &fakeClient{}
	manager := newTestManager(t, library, client, nil)

	manager.OnSongStarted(context.Background(), sampleSong("/m/a.flac", "one", "a"))

	if manager.Running() {
		t.Fatal("expected manager idle after exhausted cascade")
	}
	if queued := queueFilenames(t, library); len(queued) != 0 {
		t.Fatalf("expected empty queue, got %v", queued)
	}
}

func TestAcousticNeighbourQueued(t *testing.T) {
	library := catalog.NewLibrary(
		sampleSong("/m/b.flac", "two", "b"),
		sampleSong("/m/c.flac", "three", "c"),
	)
	client := &fakeClient{neighbours: map[string][]similarity.Neighbour{
		"/m/a.flac": {
			{Distance: 1000, Filename: "/m/b.flac"},
			{Distance: 2000, Filename: "/m/c.flac"},
		},
	}}
	manager := newTestManager(t, library, client, nil)

	manager.OnSongStarted(context.Background(), sampleSong("/m/a.flac", "one", "a"))

	queued := queueFilenames(t, library)
	if len(queued) != 1 || queued[0] != "/m/b.flac" {
		t.Fatalf("expected closest neighbour queued, got %v", queued)
	}
	if len(client.analyzed) == 0 {
		t.Fatal("expected seed analysis requests")
	}
}

func TestCatalogMissInvalidatesRecord(t *testing.T) {
	library := catalog.NewLibrary(sampleSong("/m/b.flac", "two", "b"))
	client := &fakeClient{neighbours: map[string][]similarity.Neighbour{
		"/m/a.flac": {
			{Distance: 1000, Filename: "/m/ghost.flac"},
			{Distance: 2000, Filename: "/m/b.flac"},
		},
	}}
	manager := newTestManager(t, library, client, nil)

	manager.OnSongStarted(context.Background(), sampleSong("/m/a.flac", "one", "a"))

	found := false
	for _, filename := range client.removed {
		if filename == "/m/ghost.flac" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected stale record invalidated, removed=%v", client.removed)
	}
	if queued := queueFilenames(t, library); len(queued) != 1 || queued[0] != "/m/b.flac" {
		t.Fatalf("expected surviving neighbour queued, got %v", queued)
	}
}

func TestRequestBypassesBlockedArtist(t *testing.T) {
	library := catalog.NewLibrary(sampleSong("/m/r.flac", "requested", "Blocked Artist"))
	client := &fakeClient{}
	manager := newTestManager(t, library, client, nil)
	manager.blocked.Block("Blocked Artist")
	manager.Requests().Add("/m/r.flac")

	manager.OnSongStarted(context.Background(), sampleSong("/m/a.flac", "one", "a"))

	if queued := queueFilenames(t, library); len(queued) != 1 || queued[0] != "/m/r.flac" {
		t.Fatalf("expected request queued despite block, got %v", queued)
	}
}

func TestBlockedArtistSkipped(t *testing.T) {
	library := catalog.NewLibrary(
		sampleSong("/m/b.flac", "two", "Blocked Artist"),
		sampleSong("/m/c.flac", "three", "c"),
	)
	client := &fakeClient{neighbours: map[string][]similarity.Neighbour{
		"/m/a.flac": {
			{Distance: 1000, Filename: "/m/b.flac"},
			{Distance: 2000, Filename: "/m/c.flac"},
		},
	}}
	manager := newTestManager(t, library, client, nil)
	manager.OnSongEnded(context.Background(), sampleSong("/m/x.flac", "gone", "Blocked Artist"), false)

	manager.OnSongStarted(context.Background(), sampleSong("/m/a.flac", "one", "a"))

	if queued := queueFilenames(t, library); len(queued) != 1 || queued[0] != "/m/c.flac" {
		t.Fatalf("expected blocked artist skipped, got %v", queued)
	}
}

func TestSkippedSongDoesNotBlock(t *testing.T) {
	library := catalog.NewLibrary()
	manager := newTestManager(t, library, &fakeClient{}, nil)

	manager.OnSongEnded(context.Background(), sampleSong("/m/x.flac", "gone", "Skipped Artist"), true)

	if _, ok := manager.blocked.Blocked(nil)["skipped artist"]; ok {
		t.Fatal("skipped songs must not block their artists")
	}
}

func TestFavorNewGateSkipsFamiliar(t *testing.T) {
	familiar := sampleSong("/m/b.flac", "two", "b")
	familiar.Rating = 0.5
	familiar.PlayFrequency = 0.9
	library := catalog.NewLibrary(familiar, sampleSong("/m/c.flac", "three", "c"))
	client := &fakeClient{neighbours: map[string][]similarity.Neighbour{
		"/m/a.flac": {
			{Distance: 1000, Filename: "/m/b.flac"},
			{Distance: 2000, Filename: "/m/c.flac"},
		},
	}}
	manager := newTestManager(t, library, client, nil)

	manager.OnSongStarted(context.Background(), sampleSong("/m/a.flac", "one", "a"))

	if queued := queueFilenames(t, library); len(queued) != 1 || queued[0] != "/m/c.flac" {
		t.Fatalf("expected heavily played song skipped, got %v", queued)
	}
}

func TestSimilarTracksStage(t *testing.T) {
	library := catalog.NewLibrary(sampleSong("/m/b.flac", "two", "b"))
	client := &fakeClient{tracks: map[string][]similarity.TrackMatch{
		"a - one": {{Score: 90, Artist: "b", Title: "two"}},
	}}
	manager := newTestManager(t, library, client, nil)

	manager.OnSongStarted(context.Background(), sampleSong("/m/a.flac", "one", "a"))

	if queued := queueFilenames(t, library); len(queued) != 1 || queued[0] != "/m/b.flac" {
		t.Fatalf("expected similar track queued, got %v", queued)
	}
}

func TestTagFallbackStage(t *testing.T) {
	library := catalog.NewLibrary(
		sampleSong("/m/b.flac", "two", "b", "jazz", "piano"),
		sampleSong("/m/c.flac", "three", "c", "metal"),
	)
	client := &fakeClient{}
	manager := newTestManager(t, library, client, nil)

	manager.OnSongStarted(context.Background(), sampleSong("/m/a.flac", "one", "a", "jazz", "piano"))

	if queued := queueFilenames(t, library); len(queued) != 1 || queued[0] != "/m/b.flac" {
		t.Fatalf("expected best tag overlap queued, got %v", queued)
	}
}

func TestAlbumExpansion(t *testing.T) {
	opener := sampleSong("/m/t1.flac", "opener", "band")
	opener.Album, opener.AlbumArtist, opener.TrackNumber = "Blue", "band", 1
	second := sampleSong("/m/t2.flac", "second", "band")
	second.Album, second.AlbumArtist, second.TrackNumber = "Blue", "band", 2
	third := sampleSong("/m/t3.flac", "third", "band")
	third.Album, third.AlbumArtist, third.TrackNumber = "Blue", "band", 3

	library := catalog.NewLibrary(opener, second, third)
	client := &fakeClient{neighbours: map[string][]similarity.Neighbour{
		"/m/a.flac": {{Distance: 1000, Filename: "/m/t1.flac"}},
	}}
	manager := newTestManager(t, library, client, nil)

	manager.OnSongStarted(context.Background(), sampleSong("/m/a.flac", "one", "a"))

	queued := queueFilenames(t, library)
	want := []string{"/m/t1.flac", "/m/t2.flac", "/m/t3.flac"}
	if len(queued) != len(want) {
		t.Fatalf("expected whole album queued, got %v", queued)
	}
	for i := range want {
		if queued[i] != want[i] {
			t.Fatalf("expected album order %v, got %v", want, queued)
		}
	}
}

func TestOnRemovedInvalidatesAndDropsRequests(t *testing.T) {
	library := catalog.NewLibrary()
	client := &fakeClient{}
	manager := newTestManager(t, library, client, nil)
	manager.Requests().Add("/m/gone.flac")

	manager.OnRemoved(context.Background(), []catalog.Song{{Filename: "/m/gone.flac"}})

	if len(client.removed) != 1 || client.removed[0] != "/m/gone.flac" {
		t.Fatalf("expected similarity invalidation, got %v", client.removed)
	}
	if manager.Requests().Has("/m/gone.flac") {
		t.Fatal("expected request dropped")
	}
}
