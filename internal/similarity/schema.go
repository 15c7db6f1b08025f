package similarity

const schema = `
CREATE TABLE IF NOT EXISTS artists (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    updated TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tracks (
    id INTEGER PRIMARY KEY,
    artist_id INTEGER NOT NULL REFERENCES artists (id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    updated TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tracks_artist_title ON tracks (artist_id, title);

CREATE TABLE IF NOT EXISTS artist_similarity (
    artist_1 INTEGER NOT NULL,
    artist_2 INTEGER NOT NULL,
    match INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artist_similarity_1 ON artist_similarity (artist_1);
CREATE INDEX IF NOT EXISTS idx_artist_similarity_2 ON artist_similarity (artist_2);

CREATE TABLE IF NOT EXISTS track_similarity (
    track_1 INTEGER NOT NULL,
    track_2 INTEGER NOT NULL,
    match INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_track_similarity_1 ON track_similarity (track_1);
CREATE INDEX IF NOT EXISTS idx_track_similarity_2 ON track_similarity (track_2);

CREATE TABLE IF NOT EXISTS fingerprints (
    id INTEGER PRIMARY KEY,
    filename TEXT NOT NULL UNIQUE,
    features BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS distances (
    track_1 INTEGER NOT NULL REFERENCES fingerprints (id) ON DELETE CASCADE,
    track_2 INTEGER NOT NULL REFERENCES fingerprints (id) ON DELETE CASCADE,
    distance INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_distances_1 ON distances (track_1);
CREATE INDEX IF NOT EXISTS idx_distances_2 ON distances (track_2);
`
