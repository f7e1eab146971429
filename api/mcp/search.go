package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/glimpse/pkg/search"
)

var (
	searchToolName    = "image_search"
	searchDescription = "Search the image folder for pictures matching a text description. Returns the paths of the best matching images, best first."
)

// SearchInput represents the input arguments for the image search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"a text description of the images to find"`
	NumResults int    `json:"num_results,omitempty" jsonschema:"number of images to return (default: 5)"`
}

// handleSearch processes an image search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, search.Output, error) {
	logger := s.config.Logger

	logger.Debug("MCP image search request",
		"query", input.Query,
		"num_results", input.NumResults,
	)

	if input.Query == "" {
		return errorResult("query is required"), search.Output{}, nil
	}

	output, err := s.config.Searcher.Search(ctx, input.Query, input.NumResults)
	if err != nil {
		logger.Error("image search failed", "error", err)
		return errorResult(fmt.Sprintf("Search failed: %v", err)), search.Output{}, nil
	}

	// Tools returning structured content also return it serialized in a
	// TextContent block for older clients.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), search.Output{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *output, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
