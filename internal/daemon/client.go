package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"autoqueue/internal/config"
	"autoqueue/internal/logging"
	"autoqueue/internal/similarity"
)

// Client talks to a running daemon's API with a bounded per-call
// timeout. It implements the orchestrator's similarity surface; callers
// treat every error as a degraded, empty result.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client for the daemon at the configured bind
// address.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.RPC.TimeoutMillis) * time.Millisecond
	return &Client{
		baseURL: "http://" + cfg.Paths.APIBind,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "daemon-client"),
	}
}

// Status fetches the daemon's runtime state.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var status Status
	err := c.get(ctx, "/api/status", nil, &status)
	return status, err
}

// AnalyzeTrack implements the orchestrator's similarity surface.
func (c *Client) AnalyzeTrack(ctx context.Context, filename string, addNeighbours bool, exclude []string) error {
	return c.post(ctx, "/api/analyze", analyzeRequest{
		Filename:   filename,
		Neighbours: addNeighbours,
		Exclude:    exclude,
	}, nil)
}

// OrderedAcousticTracks implements the orchestrator's similarity surface.
func (c *Client) OrderedAcousticTracks(ctx context.Context, filename string) ([]similarity.Neighbour, error) {
	var response neighboursResponse
	err := c.get(ctx, "/api/acoustic", url.Values{"filename": {filename}}, &response)
	return response.Neighbours, err
}

// OrderedSimilarTracks implements the orchestrator's similarity surface.
func (c *Client) OrderedSimilarTracks(ctx context.Context, artist, title string) ([]similarity.TrackMatch, error) {
	var response trackMatchesResponse
	err := c.get(ctx, "/api/similar-tracks", url.Values{"artist": {artist}, "title": {title}}, &response)
	return response.Matches, err
}

// OrderedSimilarArtists implements the orchestrator's similarity surface.
func (c *Client) OrderedSimilarArtists(ctx context.Context, names []string) ([]similarity.ArtistMatch, error) {
	var response artistMatchesResponse
	err := c.get(ctx, "/api/similar-artists", url.Values{"name": names}, &response)
	return response.Matches, err
}

// BestRequest implements the orchestrator's similarity surface.
func (c *Client) BestRequest(ctx context.Context, filename string, requests []string) (string, error) {
	var response bestRequestResponse
	err := c.post(ctx, "/api/best-request", bestRequestRequest{
		Filename: filename,
		Requests: requests,
	}, &response)
	return response.Filename, err
}

// RemoveTrackByFilename implements the orchestrator's similarity surface.
func (c *Client) RemoveTrackByFilename(ctx context.Context, filename string) error {
	return c.post(ctx, "/api/remove", removeRequest{Filename: filename}, nil)
}

// RemoveTrack drops a cached track record.
func (c *Client) RemoveTrack(ctx context.Context, artist, title string) error {
	return c.post(ctx, "/api/remove", removeRequest{Artist: artist, Title: title}, nil)
}

// RemoveArtist drops a cached artist record.
func (c *Client) RemoveArtist(ctx context.Context, artist string) error {
	return c.post(ctx, "/api/remove", removeRequest{Artist: artist}, nil)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("X-Decision-ID", uuid.NewString())
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiError struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiError); decodeErr == nil && apiError.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiError.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
