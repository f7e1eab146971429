package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/glimpse/pkg/imageio"
	"github.com/papercomputeco/glimpse/pkg/judge"
	"github.com/papercomputeco/glimpse/pkg/logger"
)

// JudgeStageConfig configures a JudgeStage.
type JudgeStageConfig struct {
	// Name defaults to "judge".
	Name string

	Judge judge.Judge

	// Loader defaults to imageio.FileLoader.
	Loader imageio.Loader

	// Concurrency bounds the number of in-flight questions. Defaults to 1.
	Concurrency int

	// Timeout bounds each question. Zero means no limit.
	Timeout time.Duration

	Logger *slog.Logger
}

// JudgeStage asks a vision-language model whether each candidate matches the
// query and keeps the candidates it affirms.
type JudgeStage struct {
	name   string
	config JudgeStageConfig
	loader imageio.Loader
	logger *slog.Logger
}

var _ Stage = (*JudgeStage)(nil)

// NewJudgeStage validates cfg and creates the stage.
func NewJudgeStage(cfg JudgeStageConfig) (*JudgeStage, error) {
	if cfg.Judge == nil {
		return nil, &ConfigurationError{Component: "judge"}
	}

	name := cfg.Name
	if name == "" {
		name = "judge"
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	loader := cfg.Loader
	if loader == nil {
		loader = imageio.FileLoader{}
	}

	return &JudgeStage{
		name:   name,
		config: cfg,
		loader: loader,
		logger: logger.OrNop(cfg.Logger).With("stage", name),
	}, nil
}

// Name implements Stage.
func (s *JudgeStage) Name() string {
	return s.name
}

// Retrieve implements Stage. Candidates keep their input order.
func (s *JudgeStage) Retrieve(ctx context.Context, query string, candidates []string) (*Result, error) {
	if query == "" || len(candidates) == 0 {
		return emptyResult(query), nil
	}

	ids := dedupe(candidates)
	keep := make([]bool, len(ids))
	warnings := make([]*Warning, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for i, id := range ids {
		g.Go(func() error {
			img, err := s.loader.Load(gctx, id)
			if err != nil {
				if errors.Is(err, imageio.ErrDecode) {
					warnings[i] = &Warning{Stage: s.name, ID: id, Message: "image could not be decoded", Err: err}
					return nil
				}
				return err
			}

			qctx, cancel := withTimeout(gctx, s.config.Timeout)
			defer cancel()

			answer, err := s.config.Judge.Ask(qctx, query, img)
			if err != nil {
				return &CapabilityError{Capability: "judge", Err: err}
			}

			keep[i] = judge.IsAffirmative(answer)
			s.logger.Debug("judged candidate", "id", id, "answer", answer, "keep", keep[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := emptyResult(query)
	for i, id := range ids {
		if warnings[i] != nil {
			s.logger.Warn(warnings[i].Message, "id", id, "error", warnings[i].Err)
			result.Warnings = append(result.Warnings, *warnings[i])
			continue
		}
		if keep[i] {
			result.Candidates = append(result.Candidates, id)
		}
	}

	s.logger.Debug("judge stage done",
		"candidates", len(ids),
		"kept", len(result.Candidates),
		"warnings", len(result.Warnings),
	)

	return result, nil
}
