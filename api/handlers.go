package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/glimpse/pkg/clicklog"
)

// ClickRequest is the body of POST /v1/clicks.
type ClickRequest struct {
	Image string `json:"image"`
	Query string `json:"query"`
	Rank  int    `json:"rank,omitempty"`
}

// IndexStats is the body of GET /v1/index/stats.
type IndexStats struct {
	CacheEntries   int    `json:"cache_entries"`
	CacheHits      uint64 `json:"cache_hits"`
	CacheMisses    uint64 `json:"cache_misses"`
	CacheEvictions uint64 `json:"cache_evictions"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleOptions returns the result counts clients may offer.
func (s *Server) handleOptions(c *fiber.Ctx) error {
	return c.JSON(map[string]any{
		"result_options": s.config.ResultOptions,
	})
}

// handleClick records that a search result was picked.
func (s *Server) handleClick(c *fiber.Ctx) error {
	var req ClickRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Image == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "image is required"})
	}

	event := clicklog.NewClickEvent(req.Image, req.Query)
	event.Rank = req.Rank
	event.Source = clicklog.EventSource{
		Client:    "api",
		RemoteIP:  c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}

	if err := s.config.Clicks.PublishClick(c.Context(), event); err != nil {
		s.logger.Error("failed to publish click", "image", req.Image, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "failed to record click"})
	}

	return c.Status(fiber.StatusAccepted).JSON(map[string]string{"event_id": event.EventID})
}

// handleAnalytics reports the most clicked queries and images. The limit
// query parameter caps each list.
func (s *Server) handleAnalytics(c *fiber.Ctx) error {
	if s.config.Analytics == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "click analytics are disabled"})
	}

	limit := c.QueryInt("limit", clicklog.DefaultAnalyticsLimit)
	if limit < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "limit must be a positive integer"})
	}

	analytics, err := s.config.Analytics.Analytics(c.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read click analytics", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read click analytics"})
	}

	return c.JSON(analytics)
}

// handleIndexStats reports embedding cache counters.
func (s *Server) handleIndexStats(c *fiber.Ctx) error {
	var stats IndexStats
	if s.config.Cache != nil {
		cs := s.config.Cache.Stats()
		stats = IndexStats{
			CacheEntries:   cs.Entries,
			CacheHits:      cs.Hits,
			CacheMisses:    cs.Misses,
			CacheEvictions: cs.Evictions,
		}
	}
	return c.JSON(stats)
}

// handleClearIndex drops every stored and cached embedding.
func (s *Server) handleClearIndex(c *fiber.Ctx) error {
	if s.config.Store != nil {
		if err := s.config.Store.Clear(c.Context()); err != nil {
			s.logger.Error("failed to clear vector store", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to clear vector store"})
		}
	}
	if s.config.Cache != nil {
		s.config.Cache.Purge()
	}

	s.logger.Info("index cleared")
	return c.SendStatus(fiber.StatusNoContent)
}
