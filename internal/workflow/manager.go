package workflow

import (
	"context"
	"log/slog"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"autoqueue/internal/catalog"
	"autoqueue/internal/config"
	"autoqueue/internal/logging"
	"autoqueue/internal/similarity"
)

// ratingThreshold substitutes for an unknown song rating in the
// favor-new gate.
const ratingThreshold = 0.5

// SimilarityClient is the similarity service surface the orchestrator
// consumes. Both the in-process service and the daemon RPC client
// implement it.
type SimilarityClient interface {
	AnalyzeTrack(ctx context.Context, filename string, addNeighbours bool, exclude []string) error
	OrderedAcousticTracks(ctx context.Context, filename string) ([]similarity.Neighbour, error)
	OrderedSimilarTracks(ctx context.Context, artist, title string) ([]similarity.TrackMatch, error)
	OrderedSimilarArtists(ctx context.Context, names []string) ([]similarity.ArtistMatch, error)
	BestRequest(ctx context.Context, filename string, requests []string) (string, error)
	RemoveTrackByFilename(ctx context.Context, filename string) error
}

// Manager reacts to player events and keeps the queue filled with
// contextually fitting songs.
type Manager struct {
	cfg     *config.Config
	player  catalog.Player
	client  SimilarityClient
	logger  *slog.Logger
	blocked *Blocking
	reqs    *Requests

	rand func() float64
	now  func() time.Time

	mu            sync.Mutex
	running       bool
	currentSong   *catalog.Song
	previousTerms map[string]int
	nearbyArtists []string
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
		m.blocked.now = now
	}
}

// WithRand substitutes the random source for the favor-new gate and
// album coin flips, for tests.
func WithRand(random func() float64) ManagerOption {
	return func(m *Manager) { m.rand = random }
}

// WithNearbyArtists seeds artists performing nearby; their songs get a
// contextual reward.
func WithNearbyArtists(artists []string) ManagerOption {
	return func(m *Manager) { m.nearbyArtists = artists }
}

// NewManager constructs the queueing orchestrator.
func NewManager(cfg *config.Config, player catalog.Player, client SimilarityClient, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:           cfg,
		player:        player,
		client:        client,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		blocked:       NewBlocking(time.Duration(cfg.Queue.BlockHours) * time.Hour),
		reqs:          NewRequests(),
		rand:          rand.Float64,
		now:           time.Now,
		previousTerms: make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Requests exposes the pending request list.
func (m *Manager) Requests() *Requests { return m.reqs }

// Running reports whether a queueing round is in progress.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// OnSongStarted records the new playing song and, when the queue runs
// short, fills it. Finished holds on blocked artists are released and a
// request matching the started song is consumed.
func (m *Manager) OnSongStarted(ctx context.Context, song catalog.Song) {
	m.mu.Lock()
	m.currentSong = &song
	alreadyRunning := m.running
	if !alreadyRunning {
		m.running = true
	}
	m.mu.Unlock()

	if !alreadyRunning {
		if m.cfg.Queue.DesiredLength == 0 || m.queueNeedsSongs(ctx) {
			m.fill(ctx)
		}
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}

	m.blocked.Unblock()
	m.reqs.Pop(song.Filename)
}

// OnSongEnded blocks the finished song's artists. Skipped songs don't
// count as listened, so their artists stay available.
func (m *Manager) OnSongEnded(_ context.Context, song catalog.Song, skipped bool) {
	if skipped {
		return
	}
	for _, artist := range song.ArtistNames() {
		m.blocked.Block(artist)
	}
}

// OnRemoved invalidates similarity data for songs deleted from the
// catalog and drops any pending requests for them.
func (m *Manager) OnRemoved(ctx context.Context, songs []catalog.Song) {
	for _, song := range songs {
		if err := m.client.RemoveTrackByFilename(ctx, song.Filename); err != nil {
			m.logger.Warn("similarity invalidation failed",
				logging.String(logging.FieldFilename, song.Filename),
				logging.Error(err))
		}
		m.reqs.Pop(song.Filename)
	}
}

func (m *Manager) queueNeedsSongs(ctx context.Context) bool {
	length, err := m.player.QueueLength(ctx)
	if err != nil {
		m.logger.Warn("queue length unavailable", logging.Error(err))
		return false
	}
	return length < m.cfg.Queue.DesiredLength
}

// lastSongs is the currently playing song plus everything queued after
// it, in play order.
func (m *Manager) lastSongs(ctx context.Context) []catalog.Song {
	m.mu.Lock()
	current := m.currentSong
	m.mu.Unlock()

	var songs []catalog.Song
	if current != nil {
		songs = append(songs, *current)
	}
	queued, err := m.player.SongsInQueue(ctx)
	if err != nil {
		m.logger.Warn("queue contents unavailable", logging.Error(err))
		return songs
	}
	return append(songs, queued...)
}

// eoq estimates when the queue runs out; context predicates judge songs
// against the moment they will actually play.
func (m *Manager) eoq(ctx context.Context) time.Time {
	length, err := m.player.QueueLength(ctx)
	if err != nil {
		length = 0
	}
	return m.now().Add(time.Duration(length) * time.Second)
}

// fill runs queueing rounds until the queue is long enough or every
// seed is exhausted. Seeds are consumed newest first.
func (m *Manager) fill(ctx context.Context) {
	seeds := m.lastSongs(ctx)
	for len(seeds) > 0 {
		seed := seeds[len(seeds)-1]
		seeds = seeds[:len(seeds)-1]

		if m.queueFromSeed(ctx, seed) {
			if !m.queueNeedsSongs(ctx) {
				break
			}
			seeds = m.lastSongs(ctx)
		}
	}

	// Pre-analyze the newest queued song so the next round has
	// neighbours ready.
	songs := m.lastSongs(ctx)
	if len(songs) > 0 {
		last := songs[len(songs)-1]
		if err := m.client.AnalyzeTrack(ctx, last.Filename, true, filenamesOf(songs)); err != nil {
			m.logger.Debug("pre-analysis failed",
				logging.String(logging.FieldFilename, last.Filename),
				logging.Error(err))
		}
	}
}

// allowed checks whether a song may be queued now: no duplicates of the
// current queue, requested songs always pass, date-tagged songs pass on
// their date, blocked artists fail.
func (m *Manager) allowed(ctx context.Context, song *catalog.Song) bool {
	lastSongs := m.lastSongs(ctx)
	for _, last := range lastSongs {
		if last.Filename == song.Filename {
			return false
		}
	}
	if m.reqs.Has(song.Filename) {
		return true
	}

	eoq := m.eoq(ctx)
	datePattern := regexp.MustCompile(
		`^([0-9]{4}-)?` + eoq.Format("01-02") + `$`)
	for _, tag := range song.StrippedTags() {
		if datePattern.MatchString(tag) {
			return true
		}
	}

	var lastArtists []string
	for _, last := range lastSongs {
		lastArtists = append(lastArtists, last.ArtistNames()...)
	}
	blocked := m.blocked.Blocked(lastArtists)
	for _, artist := range song.ArtistNames() {
		if _, ok := blocked[strings.ToLower(artist)]; ok {
			return false
		}
	}
	return true
}

func (m *Manager) enqueueSong(ctx context.Context, song *catalog.Song) bool {
	if err := m.player.Enqueue(ctx, *song); err != nil {
		m.logger.Error("enqueue failed",
			logging.String(logging.FieldFilename, song.Filename),
			logging.Error(err))
		return false
	}
	m.rememberTerms(song)
	m.logger.Info("queued",
		logging.String(logging.FieldArtist, song.Artist()),
		logging.String(logging.FieldTitle, song.Title))
	return true
}

// rememberTerms decays the carried-over term multiset, then counts the
// new song's terms double.
func (m *Manager) rememberTerms(song *catalog.Song) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for term, count := range m.previousTerms {
		if count <= 1 {
			delete(m.previousTerms, term)
		} else {
			m.previousTerms[term] = count - 1
		}
	}
	for _, term := range song.StrippedTags() {
		m.previousTerms[term] += 2
	}
}

func (m *Manager) carriedTerms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	terms := make([]string, 0, len(m.previousTerms))
	for term := range m.previousTerms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// maybeEnqueueAlbum expands a hit on an album opener into the whole
// album: only for track one, only for albums worth hearing whole, and
// only when the song is unplayed or a coin flip favors it.
func (m *Manager) maybeEnqueueAlbum(ctx context.Context, song *catalog.Song) bool {
	if !m.cfg.Queue.WholeAlbums || song.TrackNumber != 1 {
		return false
	}
	if song.Playcount > 0 && m.rand() <= 0.5 {
		return false
	}
	album := strings.ToLower(strings.TrimSpace(song.Album))
	if album == "" {
		return false
	}
	if _, banned := bannedAlbums[album]; banned {
		return false
	}
	return m.enqueueAlbum(ctx, song.Album, song.AlbumArtist, song.AlbumID)
}

func (m *Manager) enqueueAlbum(ctx context.Context, album, albumArtist, albumID string) bool {
	songs, err := m.player.Search(ctx, catalog.ByAlbum(album, albumArtist, albumID))
	if err != nil {
		m.logger.Warn("album search failed", logging.Error(err))
		return false
	}
	if len(songs) == 0 {
		return false
	}
	sort.SliceStable(songs, func(i, j int) bool {
		if songs[i].DiscNumber != songs[j].DiscNumber {
			return songs[i].DiscNumber < songs[j].DiscNumber
		}
		return songs[i].TrackNumber < songs[j].TrackNumber
	})
	queued := false
	for i := range songs {
		if m.enqueueSong(ctx, &songs[i]) {
			queued = true
		}
	}
	return queued
}

func filenamesOf(songs []catalog.Song) []string {
	filenames := make([]string, 0, len(songs))
	for _, song := range songs {
		filenames = append(filenames, song.Filename)
	}
	return filenames
}
