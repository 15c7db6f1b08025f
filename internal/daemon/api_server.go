package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"autoqueue/internal/config"
	"autoqueue/internal/logging"
	"autoqueue/internal/similarity"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	service *similarity.Service
	status  func() Status

	listener net.Listener
	server   *http.Server
}

type analyzeRequest struct {
	Filename   string   `json:"filename"`
	Neighbours bool     `json:"neighbours"`
	Exclude    []string `json:"exclude,omitempty"`
}

type neighboursResponse struct {
	Neighbours []similarity.Neighbour `json:"neighbours"`
}

type trackMatchesResponse struct {
	Matches []similarity.TrackMatch `json:"matches"`
}

type artistMatchesResponse struct {
	Matches []similarity.ArtistMatch `json:"matches"`
}

type bestRequestRequest struct {
	Filename string   `json:"filename"`
	Requests []string `json:"requests"`
}

type bestRequestResponse struct {
	Filename string `json:"filename"`
}

type removeRequest struct {
	Filename string `json:"filename,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Title    string `json:"title,omitempty"`
}

func newAPIServer(cfg *config.Config, service *similarity.Service, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logging.NewComponentLogger(logger, "api-server"),
		service: service,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/analyze", srv.handleAnalyze)
	mux.HandleFunc("/api/acoustic", srv.handleAcoustic)
	mux.HandleFunc("/api/similar-tracks", srv.handleSimilarTracks)
	mux.HandleFunc("/api/similar-artists", srv.handleSimilarArtists)
	mux.HandleFunc("/api/best-request", srv.handleBestRequest)
	mux.HandleFunc("/api/remove", srv.handleRemove)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// requestLogger tags every API request with a decision id so one
// queueing round can be traced across daemon and client logs.
func (s *apiServer) requestLogger(r *http.Request) *slog.Logger {
	decision := r.Header.Get("X-Decision-ID")
	if decision == "" {
		decision = uuid.NewString()
	}
	return s.logger.With(logging.String(logging.FieldDecision, decision))
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.status == nil {
		s.writeJSON(w, http.StatusOK, Status{Running: true, APIBind: s.bind})
		return
	}
	s.writeJSON(w, http.StatusOK, s.status())
}

func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "filename is required")
		return
	}
	logger := s.requestLogger(r)
	if err := s.service.AnalyzeTrack(r.Context(), req.Filename, req.Neighbours, req.Exclude); err != nil {
		logger.Warn("analysis failed",
			logging.String(logging.FieldFilename, req.Filename),
			logging.Error(err))
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleAcoustic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		s.writeError(w, http.StatusBadRequest, "filename is required")
		return
	}
	neighbours, err := s.service.OrderedAcousticTracks(r.Context(), filename)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, neighboursResponse{Neighbours: neighbours})
}

func (s *apiServer) handleSimilarTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	artist, title := query.Get("artist"), query.Get("title")
	if artist == "" || title == "" {
		s.writeError(w, http.StatusBadRequest, "artist and title are required")
		return
	}
	matches, err := s.service.OrderedSimilarTracks(r.Context(), artist, title)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trackMatchesResponse{Matches: matches})
}

func (s *apiServer) handleSimilarArtists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	names := r.URL.Query()["name"]
	if len(names) == 0 {
		s.writeError(w, http.StatusBadRequest, "at least one name is required")
		return
	}
	matches, err := s.service.OrderedSimilarArtists(r.Context(), names)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, artistMatchesResponse{Matches: matches})
}

func (s *apiServer) handleBestRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req bestRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Filename == "" || len(req.Requests) == 0 {
		s.writeError(w, http.StatusBadRequest, "filename and requests are required")
		return
	}
	best, err := s.service.BestRequest(r.Context(), req.Filename, req.Requests)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bestRequestResponse{Filename: best})
}

// handleRemove dispatches on the populated fields: filename drops
// acoustic data, artist+title a cached track, artist alone a cached
// artist.
func (s *apiServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch {
	case req.Filename != "":
		err = s.service.RemoveTrackByFilename(r.Context(), req.Filename)
	case req.Artist != "" && req.Title != "":
		err = s.service.RemoveTrack(r.Context(), req.Artist, req.Title)
	case req.Artist != "":
		err = s.service.RemoveArtist(r.Context(), req.Artist)
	default:
		s.writeError(w, http.StatusBadRequest, "filename or artist is required")
		return
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, similarity.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, similarity.ErrAnalysisFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, similarity.ErrStoreTimeout):
		status = http.StatusServiceUnavailable
	}
	s.writeError(w, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
