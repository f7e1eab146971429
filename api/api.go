package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/glimpse/pkg/clicklog/nop"
	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/search"
)

// Searcher runs a search. *search.Searcher implements it.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) (*search.Output, error)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server for searching images.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config, log *slog.Logger) (*Server, error) {
	if config.Searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if config.Clicks == nil {
		config.Clicks = nop.NewPublisher()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger.OrNop(log),
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearchEndpoint)
	app.Get("/v1/options", s.handleOptions)
	app.Post("/v1/clicks", s.handleClick)
	app.Get("/v1/analytics", s.handleAnalytics)
	app.Get("/v1/index/stats", s.handleIndexStats)
	app.Delete("/v1/index", s.handleClearIndex)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
