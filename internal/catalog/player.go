package catalog

import "context"

// QueryKind selects which search primitive a Query exercises.
type QueryKind int

const (
	QueryFilenames QueryKind = iota
	QueryTrack
	QueryArtist
	QueryTags
	QueryAlbum
)

// Query describes a catalog search. Construct values with the ByX helpers.
type Query struct {
	Kind        QueryKind
	Filenames   []string
	Artist      string
	Title       string
	Tags        []string
	Album       string
	AlbumArtist string
	AlbumID     string
}

// ByFilenames searches for songs with any of the given filenames.
func ByFilenames(filenames ...string) Query {
	return Query{Kind: QueryFilenames, Filenames: filenames}
}

// ByTrack searches for songs with this exact artist and title.
func ByTrack(artist, title string) Query {
	return Query{Kind: QueryTrack, Artist: artist, Title: title}
}

// ByArtist searches for songs by this artist.
func ByArtist(artist string) Query {
	return Query{Kind: QueryArtist, Artist: artist}
}

// ByTags searches for songs carrying any of these tags, including the
// namespaced artist:/album: forms.
func ByTags(tags ...string) Query {
	return Query{Kind: QueryTags, Tags: tags}
}

// ByAlbum searches for the members of an album, preferring the release id.
func ByAlbum(album, albumArtist, albumID string) Query {
	return Query{Kind: QueryAlbum, Album: album, AlbumArtist: albumArtist, AlbumID: albumID}
}

// Player is the catalog adapter contract. Search is pure and read-only;
// Enqueue mutates the live playback queue. QueueLength reports the
// queue's remaining playback time in seconds.
type Player interface {
	Search(ctx context.Context, query Query) ([]Song, error)
	Enqueue(ctx context.Context, song Song) error
	QueueLength(ctx context.Context) (int, error)
	SongsInQueue(ctx context.Context) ([]Song, error)
}
