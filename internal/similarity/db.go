package similarity

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TrackMatch is one provider or cached track similarity edge.
type TrackMatch struct {
	Score  int
	Artist string
	Title  string
}

// ArtistMatch is one provider or cached artist similarity edge.
type ArtistMatch struct {
	Score int
	Name  string
}

// Neighbour is one acoustic distance edge from a reference track.
type Neighbour struct {
	Distance int
	Filename string
}

type artistRecord struct {
	id      int64
	updated time.Time
}

type trackRecord struct {
	id      int64
	updated time.Time
}

type fingerprintRecord struct {
	id       int64
	filename string
	features []float64
}

// DB wraps the serialized store with the typed statements the service
// layer uses. All timestamps are stored as RFC 3339 UTC strings.
type DB struct {
	store *Store
	now   func() time.Time
}

// NewDB wraps an open store.
func NewDB(store *Store) *DB {
	return &DB{store: store, now: time.Now}
}

// Close releases the underlying store.
func (d *DB) Close() error { return d.store.Close() }

func (d *DB) timestamp() string {
	return d.now().UTC().Format(time.RFC3339Nano)
}

// artistByName returns the artist record, creating it with a zero-epoch
// update stamp when missing so the first lookup always counts as stale.
func (d *DB) artistByName(ctx context.Context, name string) (artistRecord, error) {
	name = strings.ToLower(name)
	for attempt := 0; attempt < 2; attempt++ {
		rows, err := d.store.Submit(ctx, PriorityInteractive,
			"SELECT id, updated FROM artists WHERE name = ?", name)
		if err != nil {
			return artistRecord{}, err
		}
		if len(rows) > 0 {
			return artistRecord{id: asInt64(rows[0][0]), updated: asTime(rows[0][1])}, nil
		}
		_, err = d.store.Submit(ctx, PriorityInteractive,
			"INSERT OR IGNORE INTO artists (name, updated) VALUES (?, ?)",
			name, staleTimestamp)
		if err != nil {
			return artistRecord{}, err
		}
	}
	return artistRecord{}, fmt.Errorf("artist %q: %w", name, ErrNotFound)
}

// trackByArtistTitle returns the track record, creating the artist and
// track rows when missing.
func (d *DB) trackByArtistTitle(ctx context.Context, artist, title string) (trackRecord, error) {
	rec, err := d.artistByName(ctx, artist)
	if err != nil {
		return trackRecord{}, err
	}
	title = strings.ToLower(title)
	for attempt := 0; attempt < 2; attempt++ {
		rows, err := d.store.Submit(ctx, PriorityInteractive,
			"SELECT id, updated FROM tracks WHERE artist_id = ? AND title = ?", rec.id, title)
		if err != nil {
			return trackRecord{}, err
		}
		if len(rows) > 0 {
			return trackRecord{id: asInt64(rows[0][0]), updated: asTime(rows[0][1])}, nil
		}
		_, err = d.store.Submit(ctx, PriorityInteractive,
			"INSERT OR IGNORE INTO tracks (artist_id, title, updated) VALUES (?, ?, ?)",
			rec.id, title, staleTimestamp)
		if err != nil {
			return trackRecord{}, err
		}
	}
	return trackRecord{}, fmt.Errorf("track %q/%q: %w", artist, title, ErrNotFound)
}

func (d *DB) similarTracks(ctx context.Context, trackID int64) ([]TrackMatch, error) {
	rows, err := d.store.Submit(ctx, PriorityMatch, `
SELECT track_similarity.match, artists.name, tracks.title
FROM track_similarity
JOIN tracks ON tracks.id = track_similarity.track_2
JOIN artists ON artists.id = tracks.artist_id
WHERE track_similarity.track_1 = ?
ORDER BY track_similarity.match DESC`, trackID)
	if err != nil {
		return nil, err
	}
	matches := make([]TrackMatch, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, TrackMatch{
			Score:  int(asInt64(row[0])),
			Artist: asString(row[1]),
			Title:  asString(row[2]),
		})
	}
	return matches, nil
}

func (d *DB) similarArtists(ctx context.Context, artistID int64) ([]ArtistMatch, error) {
	rows, err := d.store.Submit(ctx, PriorityMatch, `
SELECT artist_similarity.match, artists.name
FROM artist_similarity
JOIN artists ON artists.id = artist_similarity.artist_2
WHERE artist_similarity.artist_1 = ?
ORDER BY artist_similarity.match DESC`, artistID)
	if err != nil {
		return nil, err
	}
	matches := make([]ArtistMatch, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, ArtistMatch{
			Score: int(asInt64(row[0])),
			Name:  asString(row[1]),
		})
	}
	return matches, nil
}

// replaceTrackMatches rewrites the cached edges for a track and renews
// its update stamp.
func (d *DB) replaceTrackMatches(ctx context.Context, trackID int64, matches []TrackMatch) error {
	_, err := d.store.Submit(ctx, PriorityWrite,
		"DELETE FROM track_similarity WHERE track_1 = ?", trackID)
	if err != nil {
		return err
	}
	for _, match := range matches {
		other, err := d.trackByArtistTitle(ctx, match.Artist, match.Title)
		if err != nil {
			return err
		}
		_, err = d.store.Submit(ctx, PriorityWrite,
			"INSERT INTO track_similarity (track_1, track_2, match) VALUES (?, ?, ?)",
			trackID, other.id, match.Score)
		if err != nil {
			return err
		}
	}
	_, err = d.store.Submit(ctx, PriorityWrite,
		"UPDATE tracks SET updated = ? WHERE id = ?", d.timestamp(), trackID)
	return err
}

func (d *DB) replaceArtistMatches(ctx context.Context, artistID int64, matches []ArtistMatch) error {
	_, err := d.store.Submit(ctx, PriorityWrite,
		"DELETE FROM artist_similarity WHERE artist_1 = ?", artistID)
	if err != nil {
		return err
	}
	for _, match := range matches {
		other, err := d.artistByName(ctx, match.Name)
		if err != nil {
			return err
		}
		_, err = d.store.Submit(ctx, PriorityWrite,
			"INSERT INTO artist_similarity (artist_1, artist_2, match) VALUES (?, ?, ?)",
			artistID, other.id, match.Score)
		if err != nil {
			return err
		}
	}
	_, err = d.store.Submit(ctx, PriorityWrite,
		"UPDATE artists SET updated = ? WHERE id = ?", d.timestamp(), artistID)
	return err
}

// fingerprintByFilename loads a stored fingerprint, if any.
func (d *DB) fingerprintByFilename(ctx context.Context, filename string) (fingerprintRecord, bool, error) {
	rows, err := d.store.Submit(ctx, PriorityInteractive,
		"SELECT id, features FROM fingerprints WHERE filename = ?", filename)
	if err != nil {
		return fingerprintRecord{}, false, err
	}
	if len(rows) == 0 {
		return fingerprintRecord{}, false, nil
	}
	features, err := decodeFeatures(asBytes(rows[0][1]))
	if err != nil {
		return fingerprintRecord{}, false, err
	}
	return fingerprintRecord{
		id:       asInt64(rows[0][0]),
		filename: filename,
		features: features,
	}, true, nil
}

// insertFingerprint stores a feature vector and returns the new row id.
func (d *DB) insertFingerprint(ctx context.Context, filename string, features []float64) (int64, error) {
	_, err := d.store.Submit(ctx, PriorityWrite,
		"INSERT OR REPLACE INTO fingerprints (filename, features) VALUES (?, ?)",
		filename, encodeFeatures(features))
	if err != nil {
		return 0, err
	}
	rec, ok, err := d.fingerprintByFilename(ctx, filename)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("fingerprint %q: %w", filename, ErrNotFound)
	}
	return rec.id, nil
}

// allFingerprints streams every stored fingerprint except the excluded
// filenames.
func (d *DB) allFingerprints(ctx context.Context, exclude map[string]struct{}) ([]fingerprintRecord, error) {
	rows, err := d.store.Submit(ctx, PriorityDefault,
		"SELECT id, filename, features FROM fingerprints")
	if err != nil {
		return nil, err
	}
	records := make([]fingerprintRecord, 0, len(rows))
	for _, row := range rows {
		filename := asString(row[1])
		if _, skip := exclude[filename]; skip {
			continue
		}
		features, err := decodeFeatures(asBytes(row[2]))
		if err != nil {
			return nil, err
		}
		records = append(records, fingerprintRecord{
			id:       asInt64(row[0]),
			filename: filename,
			features: features,
		})
	}
	return records, nil
}

// hasNeighbours reports whether a track already carries a full set of
// outgoing distance edges that other tracks also point back into. A track
// that nothing references yet still needs a scan so its edges reach the
// rest of the catalog.
func (d *DB) hasNeighbours(ctx context.Context, fingerprintID int64, neighbours int) (bool, error) {
	rows, err := d.store.Submit(ctx, PriorityInteractive,
		"SELECT COUNT(*) FROM distances WHERE track_1 = ?", fingerprintID)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 || int(asInt64(rows[0][0])) < neighbours {
		return false, nil
	}
	rows, err = d.store.Submit(ctx, PriorityInteractive,
		"SELECT COUNT(*) FROM distances WHERE track_2 = ?", fingerprintID)
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && asInt64(rows[0][0]) > 0, nil
}

// replaceNeighbours rewrites the outgoing distance edges for a track.
func (d *DB) replaceNeighbours(ctx context.Context, fingerprintID int64, edges []neighbourEdge) error {
	_, err := d.store.Submit(ctx, PriorityWrite,
		"DELETE FROM distances WHERE track_1 = ?", fingerprintID)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		_, err = d.store.Submit(ctx, PriorityWrite,
			"INSERT INTO distances (track_1, track_2, distance) VALUES (?, ?, ?)",
			fingerprintID, edge.id, edge.distance)
		if err != nil {
			return err
		}
	}
	return nil
}

// addReverseNeighbour records an incoming edge from another track, then
// trims that track's edge list back down to its budget.
func (d *DB) addReverseNeighbour(ctx context.Context, fromID, toID int64, distance, neighbours int) error {
	_, err := d.store.Submit(ctx, PriorityWrite,
		"INSERT INTO distances (track_1, track_2, distance) VALUES (?, ?, ?)",
		fromID, toID, distance)
	if err != nil {
		return err
	}
	_, err = d.store.Submit(ctx, PriorityWrite, `
DELETE FROM distances WHERE track_1 = ? AND ROWID NOT IN (
    SELECT ROWID FROM distances WHERE track_1 = ? ORDER BY distance ASC LIMIT ?)`,
		fromID, fromID, neighbours)
	return err
}

// orderedNeighbours returns a track's distance edges, closest first.
func (d *DB) orderedNeighbours(ctx context.Context, fingerprintID int64) ([]Neighbour, error) {
	rows, err := d.store.Submit(ctx, PriorityMatch, `
SELECT distances.distance, fingerprints.filename
FROM distances
JOIN fingerprints ON fingerprints.id = distances.track_2
WHERE distances.track_1 = ?
ORDER BY distances.distance ASC`, fingerprintID)
	if err != nil {
		return nil, err
	}
	neighbours := make([]Neighbour, 0, len(rows))
	for _, row := range rows {
		neighbours = append(neighbours, Neighbour{
			Distance: int(asInt64(row[0])),
			Filename: asString(row[1]),
		})
	}
	return neighbours, nil
}

// worstNeighbourDistance returns the largest stored distance for a track
// and the number of edges it has.
func (d *DB) worstNeighbourDistance(ctx context.Context, fingerprintID int64) (int, int, error) {
	rows, err := d.store.Submit(ctx, PriorityInteractive,
		"SELECT COUNT(*), COALESCE(MAX(distance), 0) FROM distances WHERE track_1 = ?",
		fingerprintID)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return int(asInt64(rows[0][1])), int(asInt64(rows[0][0])), nil
}

// removeFingerprint drops a fingerprint and its distance edges in both
// directions.
func (d *DB) removeFingerprint(ctx context.Context, filename string) error {
	rec, ok, err := d.fingerprintByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	statements := []struct {
		query string
		args  []any
	}{
		{"DELETE FROM distances WHERE track_1 = ?", []any{rec.id}},
		{"DELETE FROM distances WHERE track_2 = ?", []any{rec.id}},
		{"DELETE FROM fingerprints WHERE id = ?", []any{rec.id}},
	}
	for _, stmt := range statements {
		if _, err := d.store.Submit(ctx, PriorityWrite, stmt.query, stmt.args...); err != nil {
			return err
		}
	}
	return nil
}

// removeTrack drops a cached track and its similarity edges, then prunes
// the artist if no tracks remain.
func (d *DB) removeTrack(ctx context.Context, artist, title string) error {
	rec, err := d.artistByName(ctx, artist)
	if err != nil {
		return err
	}
	title = strings.ToLower(title)
	rows, err := d.store.Submit(ctx, PriorityInteractive,
		"SELECT id FROM tracks WHERE artist_id = ? AND title = ?", rec.id, title)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	trackID := asInt64(rows[0][0])
	statements := []struct {
		query string
		args  []any
	}{
		{"DELETE FROM track_similarity WHERE track_1 = ?", []any{trackID}},
		{"DELETE FROM track_similarity WHERE track_2 = ?", []any{trackID}},
		{"DELETE FROM tracks WHERE id = ?", []any{trackID}},
	}
	for _, stmt := range statements {
		if _, err := d.store.Submit(ctx, PriorityWrite, stmt.query, stmt.args...); err != nil {
			return err
		}
	}
	return d.pruneArtist(ctx, rec.id)
}

// removeArtist drops a cached artist, its tracks, and its similarity
// edges.
func (d *DB) removeArtist(ctx context.Context, name string) error {
	rec, err := d.artistByName(ctx, name)
	if err != nil {
		return err
	}
	statements := []struct {
		query string
		args  []any
	}{
		{"DELETE FROM artist_similarity WHERE artist_1 = ?", []any{rec.id}},
		{"DELETE FROM artist_similarity WHERE artist_2 = ?", []any{rec.id}},
		{"DELETE FROM tracks WHERE artist_id = ?", []any{rec.id}},
		{"DELETE FROM artists WHERE id = ?", []any{rec.id}},
	}
	for _, stmt := range statements {
		if _, err := d.store.Submit(ctx, PriorityWrite, stmt.query, stmt.args...); err != nil {
			return err
		}
	}
	return nil
}

// pruneArtist deletes the artist row when it no longer owns any tracks.
func (d *DB) pruneArtist(ctx context.Context, artistID int64) error {
	rows, err := d.store.Submit(ctx, PriorityInteractive,
		"SELECT COUNT(*) FROM tracks WHERE artist_id = ?", artistID)
	if err != nil {
		return err
	}
	if len(rows) > 0 && asInt64(rows[0][0]) > 0 {
		return nil
	}
	_, err = d.store.Submit(ctx, PriorityWrite,
		"DELETE FROM artists WHERE id = ?", artistID)
	return err
}
