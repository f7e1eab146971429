// Package api provides the HTTP API server for searching the image catalog
// and recording result clicks.
package api

import (
	"net/http"

	"github.com/papercomputeco/glimpse/pkg/cache"
	"github.com/papercomputeco/glimpse/pkg/clicklog"
	"github.com/papercomputeco/glimpse/pkg/vector"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Searcher answers /v1/search. Required.
	Searcher Searcher

	// Clicks receives /v1/clicks events. Defaults to a no-op publisher.
	Clicks clicklog.Publisher

	// Analytics answers /v1/analytics. Optional.
	Analytics clicklog.Reader

	// Store and Cache are cleared by DELETE /v1/index. Optional.
	Store vector.Store
	Cache *cache.Cache

	// ResultOptions are the result counts a client may offer, served by
	// /v1/options.
	ResultOptions []int

	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
}
