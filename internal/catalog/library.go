package catalog

import (
	"context"
	"sync"
)

// Library is an in-memory Player implementation. It backs tests and the
// demo player; real deployments wrap the host player's own catalog.
type Library struct {
	mu    sync.RWMutex
	songs []Song
	queue []Song
}

// NewLibrary returns a Library seeded with the given songs.
func NewLibrary(songs ...Song) *Library {
	lib := &Library{}
	lib.Add(songs...)
	return lib
}

// Add registers songs with the library.
func (l *Library) Add(songs ...Song) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.songs = append(l.songs, songs...)
}

// Remove drops a song by filename from the library.
func (l *Library) Remove(filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.songs[:0]
	for _, song := range l.songs {
		if song.Filename != filename {
			kept = append(kept, song)
		}
	}
	l.songs = kept
}

// Search implements Player.
func (l *Library) Search(_ context.Context, query Query) ([]Song, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var results []Song
	for _, song := range l.songs {
		if matchesQuery(&song, query) {
			results = append(results, song)
		}
	}
	return results, nil
}

// Enqueue implements Player.
func (l *Library) Enqueue(_ context.Context, song Song) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, song)
	return nil
}

// QueueLength implements Player. The length is the queue's remaining
// playback time in seconds.
func (l *Library) QueueLength(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	total := 0
	for _, song := range l.queue {
		total += song.Duration
	}
	return total, nil
}

// SongsInQueue implements Player.
func (l *Library) SongsInQueue(_ context.Context) ([]Song, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	queue := make([]Song, len(l.queue))
	copy(queue, l.queue)
	return queue, nil
}

// PopQueue removes and returns the head of the queue, or nil when empty.
func (l *Library) PopQueue() *Song {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	head := l.queue[0]
	l.queue = l.queue[1:]
	return &head
}

// ClearQueue empties the playback queue.
func (l *Library) ClearQueue() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = nil
}

func matchesQuery(song *Song, query Query) bool {
	switch query.Kind {
	case QueryFilenames:
		for _, filename := range query.Filenames {
			if song.Filename == filename {
				return true
			}
		}
	case QueryTrack:
		return Fold(song.Title) == Fold(query.Title) && song.HasArtist(query.Artist)
	case QueryArtist:
		return song.HasArtist(query.Artist)
	case QueryTags:
		tagSet := make(map[string]struct{}, len(song.Tags))
		for _, tag := range song.Tags {
			tagSet[Fold(tag)] = struct{}{}
		}
		for _, tag := range query.Tags {
			folded := Fold(tag)
			if _, ok := tagSet[folded]; ok {
				return true
			}
			if _, ok := tagSet[artistTagPrefix+folded]; ok {
				return true
			}
			if _, ok := tagSet[albumTagPrefix+folded]; ok {
				return true
			}
		}
	case QueryAlbum:
		if query.AlbumID != "" && song.AlbumID == query.AlbumID {
			return true
		}
		if query.Album == "" || Fold(song.Album) != Fold(query.Album) {
			return false
		}
		if query.AlbumArtist != "" && song.AlbumArtist != "" {
			return Fold(song.AlbumArtist) == Fold(query.AlbumArtist)
		}
		return true
	}
	return false
}

// Satisfies reports whether a song answers the search criteria a
// similarity result was resolved with. Used by the orchestrator to pair
// raw similarity hits with live catalog entries.
func Satisfies(song *Song, query Query) bool {
	return matchesQuery(song, query)
}
