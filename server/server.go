// Package server exposes recommendations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/recommend"
)

const (
	// MaxTopics caps the /topics listing.
	MaxTopics = 1000

	defaultTopK        = 10
	maxTopK            = 100
	defaultSuggestions = 5
	defaultMetric      = "cosine"
)

// Engine is the query surface the server needs.
type Engine interface {
	Recommend(ctx context.Context, model string, q core.Query, opts ...recommend.Option) (*core.Response, error)
	Suggest(ctx context.Context, model, text string, k int) ([]string, error)
	Topics(ctx context.Context, model string, limit int) ([]string, error)
}

// Server serves /health, /topics, /recommend and /suggest.
type Server struct {
	engine       Engine
	defaultModel string
	mux          *http.ServeMux
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithDefaultModel sets the model used when a request names none.
// Default is ai.DefaultModel.
func WithDefaultModel(model string) Option {
	return func(s *Server) {
		s.defaultModel = model
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewServer creates a server answering queries with engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:       engine,
		defaultModel: ai.DefaultModel,
		mux:          http.NewServeMux(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /topics", s.handleTopics)
	s.mux.HandleFunc("GET /recommend", s.handleRecommend)
	s.mux.HandleFunc("GET /suggest", s.handleSuggest)
	return s
}

// Handler returns the root handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(cors(s.mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// TopicList is the /topics response body.
type TopicList struct {
	Topics []string `json:"topics"`
}

// SuggestionList is the /suggest response body.
type SuggestionList struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.engine.Topics(r.Context(), s.model(r), MaxTopics)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TopicList{Topics: topics})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	topic := strings.TrimSpace(query.Get("topic"))
	if topic == "" {
		writeDetail(w, http.StatusBadRequest, "query parameter topic is required")
		return
	}
	topK, ok := intParam(w, query.Get("topk"), "topk", defaultTopK)
	if !ok {
		return
	}
	if topK < 1 || topK > maxTopK {
		writeDetail(w, http.StatusBadRequest, "topk must be between 1 and 100")
		return
	}
	metricName := query.Get("metric")
	if metricName == "" {
		metricName = defaultMetric
	}

	resp, err := s.engine.Recommend(r.Context(), s.model(r), core.Query{
		Topic:  topic,
		TopK:   topK,
		Metric: metricName,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	text := query.Get("q")
	k, ok := intParam(w, query.Get("k"), "k", defaultSuggestions)
	if !ok {
		return
	}
	if k < 1 || k > maxTopK {
		writeDetail(w, http.StatusBadRequest, "k must be between 1 and 100")
		return
	}

	suggestions, err := s.engine.Suggest(r.Context(), s.model(r), text, k)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuggestionList{Query: text, Suggestions: suggestions})
}

func (s *Server) model(r *http.Request) string {
	if m := strings.TrimSpace(r.URL.Query().Get("model")); m != "" {
		return m
	}
	return s.defaultModel
}

func intParam(w http.ResponseWriter, raw, name string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "query parameter "+name+" must be an integer")
		return 0, false
	}
	return n, true
}

// writeError maps engine errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var noMatch *core.NoMatchError
	switch {
	case errors.As(err, &noMatch):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"detail": map[string]any{
				"error":       noMatch.Error(),
				"suggestions": noMatch.Suggestions,
			},
		})
	case errors.Is(err, ai.ErrUnknownModel), errors.Is(err, recommend.ErrInvalidTopK):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrProvider):
		s.logger.Error("embedding provider failed", "err", err)
		writeDetail(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeDetail(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "err", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
