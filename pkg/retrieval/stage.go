// Package retrieval provides the stages a search pipeline is built from. A
// stage narrows an ordered set of candidate image identifiers down to those
// matching a text query.
package retrieval

import (
	"context"
	"fmt"
	"time"
)

// Stage filters candidates for a query. Implementations never add
// identifiers: the returned candidates are a subset of the input, in the
// stage's preferred order.
type Stage interface {
	// Name identifies the stage in logs and warnings.
	Name() string

	// Retrieve returns the candidates that match query. An empty query or
	// an empty candidate set yields an empty result and no error.
	Retrieve(ctx context.Context, query string, candidates []string) (*Result, error)
}

// Result is the output of a stage or a whole pipeline.
type Result struct {
	// Query is passed through unchanged.
	Query string

	// Candidates are the surviving image identifiers.
	Candidates []string

	// Warnings report candidates dropped because of a per-item failure.
	Warnings []Warning
}

// Warning describes one candidate a stage could not process.
type Warning struct {
	Stage   string
	ID      string
	Message string
	Err     error
}

func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", w.Stage, w.ID, w.Message, w.Err)
	}
	return fmt.Sprintf("%s: %s: %s", w.Stage, w.ID, w.Message)
}

func emptyResult(query string) *Result {
	return &Result{Query: query, Candidates: []string{}}
}

// dedupe keeps the first occurrence of every identifier.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
