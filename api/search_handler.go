package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/glimpse/pkg/retrieval"
)

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - num_results (optional, default from config): number of images to return
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	numResults := 0
	if n := c.Query("num_results"); n != "" {
		parsed, err := strconv.Atoi(n)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "num_results must be a positive integer",
			})
		}
		numResults = parsed
	}

	output, err := s.config.Searcher.Search(c.Context(), query, numResults)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		return c.Status(searchErrorStatus(err)).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(output)
}

// searchErrorStatus maps a search failure to an HTTP status: an unreachable
// or failing capability is the upstream's fault, anything else is ours.
func searchErrorStatus(err error) int {
	switch {
	case errors.Is(err, retrieval.ErrCapability):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
