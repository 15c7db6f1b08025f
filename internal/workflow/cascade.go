package workflow

import (
	"context"
	"sort"

	"autoqueue/internal/catalog"
	"autoqueue/internal/contextual"
	"autoqueue/internal/logging"
)

// queueFromSeed runs the similarity cascade for one seed song. Each
// stage produces candidates; the first stage that gets a song enqueued
// wins. Returns false when every stage came up empty.
func (m *Manager) queueFromSeed(ctx context.Context, seed catalog.Song) bool {
	exclude := filenamesOf(m.lastSongs(ctx))
	if m.cfg.Acoustic.Enabled {
		if err := m.client.AnalyzeTrack(ctx, seed.Filename, true, exclude); err != nil {
			m.logger.Debug("seed analysis failed",
				logging.String(logging.FieldFilename, seed.Filename),
				logging.Error(err))
		}
	}

	if m.queueRequest(ctx, seed) {
		return true
	}
	if m.cfg.Acoustic.Enabled && m.queueAcoustic(ctx, seed) {
		return true
	}
	if m.cfg.Provider.Enabled && m.queueSimilarTracks(ctx, seed) {
		return true
	}
	if m.cfg.Provider.Enabled && m.queueSimilarArtists(ctx, seed) {
		return true
	}
	return m.queueByTags(ctx, seed)
}

// queueRequest serves the best pending request, if any. A request whose
// file no longer exists in the catalog is dropped and its similarity
// data invalidated.
func (m *Manager) queueRequest(ctx context.Context, seed catalog.Song) bool {
	pending := m.reqs.All()
	if len(pending) == 0 {
		return false
	}

	best := pending[0]
	if len(pending) > 1 {
		picked, err := m.client.BestRequest(ctx, seed.Filename, pending)
		if err != nil {
			m.logger.Warn("best request selection failed", logging.Error(err))
		} else {
			best = picked
		}
	}

	songs, err := m.player.Search(ctx, catalog.ByFilenames(best))
	if err != nil || len(songs) == 0 {
		m.logger.Warn("requested song not in catalog",
			logging.String(logging.FieldFilename, best))
		m.reqs.Pop(best)
		if err := m.client.RemoveTrackByFilename(ctx, best); err != nil {
			m.logger.Debug("similarity invalidation failed", logging.Error(err))
		}
		return false
	}
	song := songs[0]
	if !m.allowed(ctx, &song) {
		return false
	}
	return m.enqueueSong(ctx, &song)
}

func (m *Manager) queueAcoustic(ctx context.Context, seed catalog.Song) bool {
	neighbours, err := m.client.OrderedAcousticTracks(ctx, seed.Filename)
	if err != nil {
		m.logger.Warn("acoustic neighbours unavailable", logging.Error(err))
		return false
	}
	if len(neighbours) > m.cfg.Queue.Number {
		neighbours = neighbours[:m.cfg.Queue.Number]
	}
	candidates := make([]*candidate, 0, len(neighbours))
	for _, neighbour := range neighbours {
		candidates = append(candidates, &candidate{
			score:    float64(neighbour.Distance),
			filename: neighbour.Filename,
		})
	}
	return m.processCandidates(ctx, candidates, false)
}

func (m *Manager) queueSimilarTracks(ctx context.Context, seed catalog.Song) bool {
	artist, title := seed.Artist(), seed.Title
	if artist == "" || title == "" {
		return false
	}
	matches, err := m.client.OrderedSimilarTracks(ctx, artist, title)
	if err != nil {
		m.logger.Warn("similar tracks unavailable", logging.Error(err))
		return false
	}
	candidates := make([]*candidate, 0, len(matches))
	for _, match := range matches {
		candidates = append(candidates, &candidate{
			score:  float64(match.Score),
			artist: match.Artist,
			title:  match.Title,
		})
	}
	return m.processCandidates(ctx, candidates, true)
}

func (m *Manager) queueSimilarArtists(ctx context.Context, seed catalog.Song) bool {
	names := seed.ArtistNames()
	if len(names) == 0 {
		return false
	}
	matches, err := m.client.OrderedSimilarArtists(ctx, names)
	if err != nil {
		m.logger.Warn("similar artists unavailable", logging.Error(err))
		return false
	}
	candidates := make([]*candidate, 0, len(matches))
	for _, match := range matches {
		candidates = append(candidates, &candidate{
			score:  float64(match.Score),
			artist: match.Name,
		})
	}
	return m.processCandidates(ctx, candidates, true)
}

// queueByTags is the last resort: songs sharing tags with the seed,
// scored by tag overlap.
func (m *Manager) queueByTags(ctx context.Context, seed catalog.Song) bool {
	tags := seed.NonGeoTags()
	if len(tags) == 0 {
		return false
	}
	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagSet[tag] = struct{}{}
	}

	songs, err := m.player.Search(ctx, catalog.ByTags(tags...))
	if err != nil {
		m.logger.Warn("tag search failed", logging.Error(err))
		return false
	}
	candidates := make([]*candidate, 0, len(songs))
	for i := range songs {
		song := songs[i]
		candidates = append(candidates, &candidate{
			score:    tagScore(&song, tagSet),
			filename: song.Filename,
			song:     &song,
		})
	}
	return m.processCandidates(ctx, candidates, true)
}

// processCandidates resolves similarity hits against the live catalog,
// adjusts their scores for the moment the queue runs out, and enqueues
// the best allowed one. invert flips higher-is-better scores into the
// lower-is-better form the picker uses.
func (m *Manager) processCandidates(ctx context.Context, candidates []*candidate, invert bool) bool {
	if len(candidates) == 0 {
		return false
	}
	m.resolveCandidates(ctx, candidates)

	resolved := candidates[:0]
	maximum := 0.0
	for _, c := range candidates {
		if c.score > maximum {
			maximum = c.score
		}
		if c.song != nil {
			resolved = append(resolved, c)
		}
	}
	if len(resolved) == 0 {
		return false
	}
	if invert {
		for _, c := range resolved {
			c.score = maximum + 1 - c.score
		}
	}

	if m.cfg.Context.Contextualize {
		m.mu.Lock()
		lastSong := m.currentSong
		nearby := m.nearbyArtists
		m.mu.Unlock()
		snap := contextual.NewSnapshot(m.cfg.Context, m.eoq(ctx), lastSong, nearby)
		snap.PreviousTerms = m.carriedTerms()
		engine := contextual.NewEngine(snap, m.logger)
		for _, c := range resolved {
			c.score, c.reasons = engine.AdjustScore(c.song, c.score)
		}
	}
	return m.pickCandidate(ctx, resolved)
}

// resolveCandidates attaches live catalog songs to raw similarity hits.
// Each song backs at most one candidate. Filename hits that no longer
// resolve have their similarity data invalidated.
func (m *Manager) resolveCandidates(ctx context.Context, candidates []*candidate) {
	var filenames []string
	for _, c := range candidates {
		if c.song == nil && c.filename != "" {
			filenames = append(filenames, c.filename)
		}
	}

	var pool []catalog.Song
	if len(filenames) > 0 {
		found, err := m.player.Search(ctx, catalog.ByFilenames(filenames...))
		if err != nil {
			m.logger.Warn("filename search failed", logging.Error(err))
		}
		pool = found
	}

	claimed := make(map[string]struct{})
	for _, c := range candidates {
		if c.song != nil {
			claimed[c.song.Filename] = struct{}{}
			continue
		}

		var matches []catalog.Song
		var query catalog.Query
		switch {
		case c.filename != "":
			matches, query = pool, catalog.ByFilenames(c.filename)
		case c.title != "":
			query = catalog.ByTrack(c.artist, c.title)
		case c.artist != "":
			query = catalog.ByArtist(c.artist)
		default:
			continue
		}
		if matches == nil {
			found, err := m.player.Search(ctx, query)
			if err != nil {
				m.logger.Warn("candidate search failed", logging.Error(err))
				continue
			}
			matches = found
		}

		for i := range matches {
			song := matches[i]
			if _, taken := claimed[song.Filename]; taken {
				continue
			}
			if !catalog.Satisfies(&song, query) {
				continue
			}
			c.song = &song
			claimed[song.Filename] = struct{}{}
			break
		}
		if c.song == nil && c.filename != "" {
			m.logger.Info("dropping stale similarity record",
				logging.String(logging.FieldFilename, c.filename))
			if err := m.client.RemoveTrackByFilename(ctx, c.filename); err != nil {
				m.logger.Debug("similarity invalidation failed", logging.Error(err))
			}
		}
	}
}

// pickCandidate walks candidates best first and enqueues the first one
// that survives the favor-new gate and the allowed checks.
func (m *Manager) pickCandidate(ctx context.Context, candidates []*candidate) bool {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	for rank, c := range candidates {
		song := c.song
		m.logger.Debug("considering candidate",
			logging.Int("rank", rank+1),
			logging.Float64("score", c.score),
			logging.String("candidate", c.describe()),
			logging.Any("reasons", c.reasons))

		if len(candidates) > 1 {
			rating := song.RatingOrDefault(ratingThreshold)
			frequency := song.PlayFrequencyOrDefault(1)
			comparison := rating
			if m.cfg.Queue.FavorNew {
				comparison -= frequency
			}
			if (frequency > 0 || !m.cfg.Queue.FavorNew) && m.rand() > comparison {
				continue
			}
		}
		if !m.allowed(ctx, song) {
			continue
		}
		if m.maybeEnqueueAlbum(ctx, song) {
			return true
		}
		if m.allowed(ctx, song) && m.enqueueSong(ctx, song) {
			return true
		}
	}
	return false
}
