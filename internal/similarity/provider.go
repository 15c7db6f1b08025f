package similarity

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"autoqueue/internal/config"
	"autoqueue/internal/logging"
)

// HTTPDoer is the HTTP client dependency used by the provider. It
// matches *http.Client and lets tests substitute canned responses.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MatchSource serves similar-track and similar-artist lookups. The
// production implementation is the audioscrobbler web service; tests use
// stubs.
type MatchSource interface {
	SimilarTracks(ctx context.Context, artist, title string) ([]TrackMatch, error)
	SimilarArtists(ctx context.Context, name string) ([]ArtistMatch, error)
}

// Provider is the audioscrobbler-backed MatchSource. Requests are rate
// limited; a malformed response body disables the provider for the rest
// of the process, since it signals an API change rather than a transient
// failure.
type Provider struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	disabled bool
}

// NewProvider builds a Provider from configuration. A nil client uses a
// default http.Client with the configured request timeout.
func NewProvider(cfg config.Provider, client HTTPDoer, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = logging.NewNop()
	}
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}
	interval := time.Duration(cfg.ThrottleMillis) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	return &Provider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logging.NewComponentLogger(logger, "provider"),
	}
}

// Disabled reports whether the provider has been shut off for this
// process.
func (p *Provider) Disabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disabled
}

func (p *Provider) disable(reason error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disabled {
		return
	}
	p.disabled = true
	p.logger.Warn("disabling external lookups for this run", logging.Error(reason))
}

type similarTracksResponse struct {
	XMLName xml.Name `xml:"lfm"`
	Status  string   `xml:"status,attr"`
	Tracks  []struct {
		Name   string  `xml:"name"`
		Match  float64 `xml:"match"`
		Artist struct {
			Name string `xml:"name"`
		} `xml:"artist"`
	} `xml:"similartracks>track"`
}

type similarArtistsResponse struct {
	XMLName xml.Name `xml:"lfm"`
	Status  string   `xml:"status,attr"`
	Artists []struct {
		Name  string  `xml:"name"`
		Match float64 `xml:"match"`
	} `xml:"similarartists>artist"`
}

// SimilarTracks implements MatchSource.
func (p *Provider) SimilarTracks(ctx context.Context, artist, title string) ([]TrackMatch, error) {
	body, err := p.fetch(ctx, url.Values{
		"method": {"track.getsimilar"},
		"artist": {artist},
		"track":  {title},
	})
	if err != nil {
		return nil, err
	}

	var parsed similarTracksResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		p.disable(err)
		return nil, fmt.Errorf("%w: decode similar tracks: %v", ErrExternalLookup, err)
	}

	matches := make([]TrackMatch, 0, len(parsed.Tracks))
	for _, track := range parsed.Tracks {
		matches = append(matches, TrackMatch{
			Score:  int(track.Match * 100),
			Artist: strings.ToLower(track.Artist.Name),
			Title:  strings.ToLower(track.Name),
		})
	}
	return matches, nil
}

// SimilarArtists implements MatchSource.
func (p *Provider) SimilarArtists(ctx context.Context, name string) ([]ArtistMatch, error) {
	body, err := p.fetch(ctx, url.Values{
		"method": {"artist.getsimilar"},
		"artist": {name},
	})
	if err != nil {
		return nil, err
	}

	var parsed similarArtistsResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		p.disable(err)
		return nil, fmt.Errorf("%w: decode similar artists: %v", ErrExternalLookup, err)
	}

	matches := make([]ArtistMatch, 0, len(parsed.Artists))
	for _, artist := range parsed.Artists {
		matches = append(matches, ArtistMatch{
			Score: int(artist.Match * 100),
			Name:  strings.ToLower(artist.Name),
		})
	}
	return matches, nil
}

func (p *Provider) fetch(ctx context.Context, params url.Values) ([]byte, error) {
	if p.Disabled() {
		return nil, ErrProviderDisabled
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("api_key", p.apiKey)
	requestURL := p.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalLookup, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrExternalLookup, params.Get("method"), resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrExternalLookup, err)
	}
	return body, nil
}
