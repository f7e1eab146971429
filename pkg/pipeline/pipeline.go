// Package pipeline chains retrieval stages into a single search.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/retrieval"
)

var (
	// ErrNilStage is returned by New when a stage is nil.
	ErrNilStage = errors.New("pipeline stage is nil")

	// ErrCandidateGrowth is returned when a stage returns an identifier it was
	// not given, or more copies of one than it was given.
	ErrCandidateGrowth = errors.New("stage returned candidates it was not given")
)

// Pipeline runs stages left to right, feeding each stage's candidates to
// the next.
type Pipeline struct {
	stages []retrieval.Stage
	logger *slog.Logger
}

// New creates a pipeline from stages.
func New(stages ...retrieval.Stage) (*Pipeline, error) {
	for i, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("%w: position %d", ErrNilStage, i)
		}
	}

	return &Pipeline{
		stages: append([]retrieval.Stage(nil), stages...),
		logger: logger.Nop(),
	}, nil
}

// WithLogger sets the logger used for stage boundaries and returns p.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	p.logger = logger.OrNop(l)
	return p
}

// Stages returns the names of the configured stages in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run folds the stages over candidates. Warnings from every stage are
// collected in the result. An empty candidate set still passes through every
// stage.
func (p *Pipeline) Run(ctx context.Context, query string, candidates []string) (*retrieval.Result, error) {
	result := &retrieval.Result{
		Query:      query,
		Candidates: append([]string{}, candidates...),
	}

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		out, err := stage.Retrieve(ctx, query, result.Candidates)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		if out == nil {
			out = &retrieval.Result{Query: query}
		}

		if err := checkSubset(result.Candidates, out.Candidates); err != nil {
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}

		p.logger.Debug("stage finished",
			"stage", stage.Name(),
			"in", len(result.Candidates),
			"out", len(out.Candidates),
			"warnings", len(out.Warnings),
			"duration", time.Since(start),
		)

		result.Candidates = out.Candidates
		if result.Candidates == nil {
			result.Candidates = []string{}
		}
		result.Warnings = append(result.Warnings, out.Warnings...)
	}

	return result, nil
}

// checkSubset verifies that out is a sub-multiset of in.
func checkSubset(in, out []string) error {
	counts := make(map[string]int, len(in))
	for _, id := range in {
		counts[id]++
	}
	for _, id := range out {
		if counts[id] == 0 {
			return fmt.Errorf("%w: %q", ErrCandidateGrowth, id)
		}
		counts[id]--
	}
	return nil
}
