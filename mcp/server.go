// Package mcp exposes recommendations as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/poiesic/fingerprint/ai"
	"github.com/poiesic/fingerprint/core"
	"github.com/poiesic/fingerprint/recommend"
)

// Engine is the query surface the tools need.
type Engine interface {
	Recommend(ctx context.Context, model string, q core.Query, opts ...recommend.Option) (*core.Response, error)
	Suggest(ctx context.Context, model, text string, k int) ([]string, error)
	Topics(ctx context.Context, model string, limit int) ([]string, error)
}

// ErrEngineRequired is returned when a server is created without an engine.
var ErrEngineRequired = errors.New("engine is required")

// Server wraps the MCP server around an Engine.
type Server struct {
	mcp          *gomcp.Server
	engine       Engine
	defaultModel string
	logger       *slog.Logger
}

// ServerOption configures optional Server settings.
type ServerOption func(*Server)

// WithDefaultModel sets the model used when a tool call names none.
func WithDefaultModel(model string) ServerOption {
	return func(s *Server) {
		s.defaultModel = model
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewServer creates an MCP server with the recommendation tools registered.
func NewServer(engine Engine, version string, opts ...ServerOption) (*Server, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}

	s := &Server{
		mcp: gomcp.NewServer(
			&gomcp.Implementation{
				Name:    "fingerprint",
				Version: version,
			},
			nil,
		),
		engine:       engine,
		defaultModel: ai.DefaultModel,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "mcp")

	s.registerTools()
	return s, nil
}

// Serve runs the server over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
