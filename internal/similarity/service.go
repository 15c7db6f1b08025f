package similarity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"autoqueue/internal/config"
	"autoqueue/internal/logging"
)

// Service is the similarity cache facade. It owns the serialized store
// and coordinates acoustic analysis, cached provider lookups, and
// invalidation. All methods are safe for concurrent use.
type Service struct {
	db         *DB
	analyzer   Analyzer
	source     MatchSource
	neighbours int
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// ServiceOption configures optional Service behavior.
type ServiceOption func(*Service)

// WithClock substitutes the time source, for tests. It governs both TTL
// freshness checks and the update stamps written to the store.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
		s.db.now = now
	}
}

// NewService wires a Service over an open store. analyzer and source may
// be nil when acoustic analysis or external lookups are unavailable; the
// corresponding operations then degrade to cached data only.
func NewService(store *Store, analyzer Analyzer, source MatchSource, cfg *config.Config, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		db:         NewDB(store),
		analyzer:   analyzer,
		source:     source,
		neighbours: cfg.Acoustic.Neighbours,
		ttl:        time.Duration(cfg.Provider.CacheDays) * 24 * time.Hour,
		logger:     logging.NewComponentLogger(logger, "similarity"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying store.
func (s *Service) Close() error { return s.db.Close() }

func (s *Service) fresh(updated time.Time) bool {
	return s.now().Sub(updated) < s.ttl
}

// AnalyzeTrack ensures a fingerprint exists for filename and, when
// neighbours is requested, that its nearest-neighbour edges are
// computed. Already analyzed tracks are skipped. Filenames in exclude
// never become neighbours of this track.
func (s *Service) AnalyzeTrack(ctx context.Context, filename string, addNeighbours bool, exclude []string) error {
	if filename == "" {
		return fmt.Errorf("%w: empty filename", ErrAnalysisFailed)
	}

	rec, ok, err := s.db.fingerprintByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if !ok {
		if s.analyzer == nil {
			return fmt.Errorf("%w: no analyzer configured", ErrAnalysisFailed)
		}
		features, err := s.analyzer.Analyze(ctx, filename)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", filename, err)
		}
		id, err := s.db.insertFingerprint(ctx, filename, features)
		if err != nil {
			return err
		}
		rec = fingerprintRecord{id: id, filename: filename, features: features}
	}

	if !addNeighbours {
		return nil
	}
	done, err := s.db.hasNeighbours(ctx, rec.id, s.neighbours)
	if err != nil || done {
		return err
	}
	return s.scanNeighbours(ctx, rec, exclude)
}

// scanNeighbours walks every stored fingerprint, keeps the closest edges
// for the new track, and offers the reverse edge to each kept neighbour.
func (s *Service) scanNeighbours(ctx context.Context, rec fingerprintRecord, exclude []string) error {
	skip := make(map[string]struct{}, len(exclude)+1)
	skip[rec.filename] = struct{}{}
	for _, filename := range exclude {
		skip[filename] = struct{}{}
	}

	candidates, err := s.db.allFingerprints(ctx, skip)
	if err != nil {
		return err
	}

	best := newNearestEdges(s.neighbours)
	for _, candidate := range candidates {
		distance, comparable := acousticDistance(rec.features, candidate.features)
		if !comparable {
			continue
		}
		best.consider(neighbourEdge{id: candidate.id, distance: distance})
	}

	edges := best.all()
	if err := s.db.replaceNeighbours(ctx, rec.id, edges); err != nil {
		return err
	}
	for _, edge := range edges {
		worst, count, err := s.db.worstNeighbourDistance(ctx, edge.id)
		if err != nil {
			return err
		}
		if count < s.neighbours || edge.distance < worst {
			if err := s.db.addReverseNeighbour(ctx, edge.id, rec.id, edge.distance, s.neighbours); err != nil {
				return err
			}
		}
	}
	s.logger.Info("scanned neighbours",
		logging.String(logging.FieldFilename, rec.filename),
		logging.Int("edges", len(edges)))
	return nil
}

// OrderedAcousticTracks returns a track's acoustic neighbours, closest
// first. Tracks that were never analyzed yield an empty result.
func (s *Service) OrderedAcousticTracks(ctx context.Context, filename string) ([]Neighbour, error) {
	rec, ok, err := s.db.fingerprintByFilename(ctx, filename)
	if err != nil || !ok {
		return nil, err
	}
	return s.db.orderedNeighbours(ctx, rec.id)
}

// OrderedSimilarTracks returns similar tracks for an artist and title,
// best match first. Cached edges within the TTL are served directly; a
// stale or missing cache triggers one provider lookup whose result
// replaces the cached edges. Provider failures degrade to the cache.
func (s *Service) OrderedSimilarTracks(ctx context.Context, artist, title string) ([]TrackMatch, error) {
	rec, err := s.db.trackByArtistTitle(ctx, artist, title)
	if err != nil {
		return nil, err
	}
	if s.fresh(rec.updated) || s.source == nil {
		return s.db.similarTracks(ctx, rec.id)
	}

	matches, err := s.source.SimilarTracks(ctx, artist, title)
	if err != nil {
		if !errors.Is(err, ErrProviderDisabled) {
			s.logger.Warn("similar tracks lookup failed",
				logging.String(logging.FieldArtist, artist),
				logging.String(logging.FieldTitle, title),
				logging.Error(err))
		}
		return s.db.similarTracks(ctx, rec.id)
	}
	if err := s.db.replaceTrackMatches(ctx, rec.id, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// OrderedSimilarArtists returns artists similar to any of the given
// names, best match first. Duplicate artists keep their highest score.
func (s *Service) OrderedSimilarArtists(ctx context.Context, names []string) ([]ArtistMatch, error) {
	merged := make(map[string]int)
	for _, name := range names {
		matches, err := s.similarArtistsFor(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if score, ok := merged[match.Name]; !ok || match.Score > score {
				merged[match.Name] = match.Score
			}
		}
	}

	out := make([]ArtistMatch, 0, len(merged))
	for name, score := range merged {
		out = append(out, ArtistMatch{Score: score, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Service) similarArtistsFor(ctx context.Context, name string) ([]ArtistMatch, error) {
	rec, err := s.db.artistByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.fresh(rec.updated) || s.source == nil {
		return s.db.similarArtists(ctx, rec.id)
	}

	matches, err := s.source.SimilarArtists(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrProviderDisabled) {
			s.logger.Warn("similar artists lookup failed",
				logging.String(logging.FieldArtist, name),
				logging.Error(err))
		}
		return s.db.similarArtists(ctx, rec.id)
	}
	if err := s.db.replaceArtistMatches(ctx, rec.id, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// BestRequest picks, from the requested filenames, the one acoustically
// closest to the reference track. Requests without fingerprints fall to
// the back; when nothing is comparable the first request wins.
func (s *Service) BestRequest(ctx context.Context, filename string, requests []string) (string, error) {
	if len(requests) == 0 {
		return "", fmt.Errorf("no requests: %w", ErrNotFound)
	}
	rec, ok, err := s.db.fingerprintByFilename(ctx, filename)
	if err != nil {
		return "", err
	}
	if !ok {
		return requests[0], nil
	}

	best := requests[0]
	bestDistance := -1
	for _, request := range requests {
		other, ok, err := s.db.fingerprintByFilename(ctx, request)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		distance, comparable := acousticDistance(rec.features, other.features)
		if !comparable {
			continue
		}
		if bestDistance < 0 || distance < bestDistance {
			best = request
			bestDistance = distance
		}
	}
	return best, nil
}

// RemoveTrackByFilename forgets a track's fingerprint and acoustic
// edges.
func (s *Service) RemoveTrackByFilename(ctx context.Context, filename string) error {
	return s.db.removeFingerprint(ctx, filename)
}

// RemoveTrack forgets a track's cached similarity record and edges.
func (s *Service) RemoveTrack(ctx context.Context, artist, title string) error {
	return s.db.removeTrack(ctx, artist, title)
}

// RemoveArtist forgets a cached artist, its tracks, and its edges.
func (s *Service) RemoveArtist(ctx context.Context, name string) error {
	return s.db.removeArtist(ctx, name)
}
