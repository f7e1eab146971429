// Package search is the entry point that runs a query over the image
// catalog through the retrieval pipeline.
package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/retrieval"
)

// DefaultNumResults is used when a search does not ask for a count.
const DefaultNumResults = 5

// Lister lists the identifiers of every searchable image.
type Lister interface {
	List() ([]string, error)
}

// Runner runs a query over candidates. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, query string, candidates []string) (*retrieval.Result, error)
}

// Warning is a per-image problem reported alongside the results.
type Warning struct {
	Stage   string `json:"stage"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Output is the result of a search.
type Output struct {
	Query    string    `json:"query"`
	Images   []string  `json:"images"`
	Warnings []Warning `json:"warnings,omitempty"`
	Count    int       `json:"count"`
}

// Config configures a Searcher.
type Config struct {
	Catalog  Lister
	Pipeline Runner

	// DefaultNumResults defaults to DefaultNumResults.
	DefaultNumResults int

	Logger *slog.Logger
}

// Searcher answers text queries with matching images from the catalog.
type Searcher struct {
	catalog    Lister
	pipeline   Runner
	numResults int
	logger     *slog.Logger
}

// New creates a Searcher.
func New(c Config) (*Searcher, error) {
	if c.Catalog == nil {
		return nil, errors.New("search: missing catalog")
	}
	if c.Pipeline == nil {
		return nil, errors.New("search: missing pipeline")
	}

	n := c.DefaultNumResults
	if n <= 0 {
		n = DefaultNumResults
	}

	return &Searcher{
		catalog:    c.Catalog,
		pipeline:   c.Pipeline,
		numResults: n,
		logger:     logger.OrNop(c.Logger),
	}, nil
}

// Search returns up to numResults images matching query, best first as
// ordered by the pipeline. A numResults of zero or less uses the default.
// An empty catalog or an empty query yields an empty list.
func (s *Searcher) Search(ctx context.Context, query string, numResults int) (*Output, error) {
	if numResults <= 0 {
		numResults = s.numResults
	}

	out := &Output{Query: query, Images: []string{}}
	if query == "" {
		return out, nil
	}

	candidates, err := s.catalog.List()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		s.logger.Debug("no images to search")
		return out, nil
	}

	result, err := s.pipeline.Run(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	images := result.Candidates
	if len(images) > numResults {
		images = images[:numResults]
	}
	out.Images = append(out.Images, images...)
	out.Count = len(out.Images)

	for _, w := range result.Warnings {
		msg := w.Message
		if w.Err != nil {
			msg += ": " + w.Err.Error()
		}
		out.Warnings = append(out.Warnings, Warning{Stage: w.Stage, ID: w.ID, Message: msg})
	}

	s.logger.Info("search completed",
		"query", query,
		"candidates", len(candidates),
		"matches", len(result.Candidates),
		"returned", out.Count,
		"warnings", len(out.Warnings),
	)

	return out, nil
}
