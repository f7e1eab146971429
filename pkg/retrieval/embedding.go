package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/glimpse/pkg/cache"
	"github.com/papercomputeco/glimpse/pkg/embeddings"
	"github.com/papercomputeco/glimpse/pkg/imageio"
	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/metric"
	"github.com/papercomputeco/glimpse/pkg/vector"
)

// EmbedderFactory creates the embedding capability for a model and device.
type EmbedderFactory func(model, device string) (embeddings.Embedder, error)

// EmbeddingStageConfig configures an EmbeddingStage.
type EmbeddingStageConfig struct {
	// Name defaults to "embedding".
	Name string

	// TextEmbedder and ImageEmbedder are used directly when set. Either may
	// be left nil when Factory is set; the factory result fills the gaps.
	TextEmbedder  embeddings.TextEmbedder
	ImageEmbedder embeddings.ImageEmbedder

	// Factory is called at most once, on first use.
	Factory EmbedderFactory
	Model   string
	Device  string

	// Cache memoizes image embeddings. Optional.
	Cache *cache.Cache

	// Loader defaults to imageio.FileLoader.
	Loader imageio.Loader

	// Store, when set, receives every candidate embedding and answers the
	// search. Otherwise Metric filters the candidates.
	Store     vector.Store
	Metric    metric.Metric
	Overwrite bool

	// Timeout bounds each capability call. Zero means no limit.
	Timeout time.Duration

	Logger *slog.Logger
}

// EmbeddingStage matches a text query against candidate images in a shared
// text-image embedding space.
type EmbeddingStage struct {
	name    string
	config  EmbeddingStageConfig
	loader  imageio.Loader
	logger  *slog.Logger
	text    embeddings.TextEmbedder
	image   embeddings.ImageEmbedder
	once    sync.Once
	onceErr error
}

var _ Stage = (*EmbeddingStage)(nil)

// NewEmbeddingStage validates cfg and creates the stage. The embedding
// capability is not contacted until the first Retrieve.
func NewEmbeddingStage(cfg EmbeddingStageConfig) (*EmbeddingStage, error) {
	if cfg.TextEmbedder == nil && cfg.Factory == nil {
		return nil, &ConfigurationError{Component: "text embedder"}
	}
	if cfg.ImageEmbedder == nil && cfg.Factory == nil {
		return nil, &ConfigurationError{Component: "image embedder"}
	}
	if cfg.Store == nil && cfg.Metric == nil {
		return nil, &ConfigurationError{Component: "metric or vector store"}
	}

	name := cfg.Name
	if name == "" {
		name = "embedding"
	}

	loader := cfg.Loader
	if loader == nil {
		loader = imageio.FileLoader{}
	}

	return &EmbeddingStage{
		name:   name,
		config: cfg,
		loader: loader,
		logger: logger.OrNop(cfg.Logger).With("stage", name),
		text:   cfg.TextEmbedder,
		image:  cfg.ImageEmbedder,
	}, nil
}

// Name implements Stage.
func (s *EmbeddingStage) Name() string {
	return s.name
}

// capabilities returns the embedders, creating them through the factory on
// first use.
func (s *EmbeddingStage) capabilities() (embeddings.TextEmbedder, embeddings.ImageEmbedder, error) {
	s.once.Do(func() {
		if s.text != nil && s.image != nil {
			return
		}

		s.logger.Debug("creating embedder", "model", s.config.Model, "device", s.config.Device)
		emb, err := s.config.Factory(s.config.Model, s.config.Device)
		if err != nil {
			s.onceErr = &ConfigurationError{Component: "embedder", Err: err}
			return
		}
		if s.text == nil {
			s.text = emb
		}
		if s.image == nil {
			s.image = emb
		}
	})

	return s.text, s.image, s.onceErr
}

// Retrieve implements Stage.
func (s *EmbeddingStage) Retrieve(ctx context.Context, query string, candidates []string) (*Result, error) {
	if query == "" || len(candidates) == 0 {
		return emptyResult(query), nil
	}

	text, image, err := s.capabilities()
	if err != nil {
		return nil, err
	}

	queryEmb, err := s.embedQuery(ctx, text, query)
	if err != nil {
		return nil, err
	}

	ids := dedupe(candidates)
	embs, warnings, err := s.embedImages(ctx, image, ids)
	if err != nil {
		return nil, err
	}

	var (
		survivors    []string
		survivorEmbs [][]float32
	)
	for i, id := range ids {
		if embs[i] == nil {
			continue
		}
		survivors = append(survivors, id)
		survivorEmbs = append(survivorEmbs, embs[i])
	}

	var kept []string
	if s.config.Store != nil {
		kept, err = s.searchStore(ctx, queryEmb, survivors, survivorEmbs)
	} else {
		kept, err = s.evaluate(queryEmb, survivors, survivorEmbs)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("embedding stage done",
		"candidates", len(ids),
		"embedded", len(survivors),
		"kept", len(kept),
		"warnings", len(warnings),
	)

	return &Result{Query: query, Candidates: kept, Warnings: warnings}, nil
}

func (s *EmbeddingStage) embedQuery(ctx context.Context, text embeddings.TextEmbedder, query string) ([]float32, error) {
	tctx, cancel := withTimeout(ctx, s.config.Timeout)
	defer cancel()

	embs, err := text.EmbedTexts(tctx, []string{query})
	if err != nil {
		return nil, &CapabilityError{Capability: "text embedding", Err: err}
	}
	if len(embs) != 1 || len(embs[0]) == 0 {
		return nil, &CapabilityError{
			Capability: "text embedding",
			Err:        fmt.Errorf("%w: no embedding returned for query", embeddings.ErrEmbedding),
		}
	}

	return embs[0], nil
}

// embedImages returns one embedding per id. Entries are nil for candidates
// that could not be embedded; each of those has a warning.
func (s *EmbeddingStage) embedImages(ctx context.Context, image embeddings.ImageEmbedder, ids []string) ([][]float32, []Warning, error) {
	var warnings []Warning
	warned := make(map[string]bool)
	warn := func(id, msg string, err error) {
		warned[id] = true
		warnings = append(warnings, Warning{Stage: s.name, ID: id, Message: msg, Err: err})
		s.logger.Warn(msg, "id", id, "error", err)
	}

	compute := func(ctx context.Context, ids []string) ([][]float32, error) {
		out := make([][]float32, len(ids))

		var (
			images []*imageio.Image
			pos    []int
		)
		for i, id := range ids {
			img, err := s.loader.Load(ctx, id)
			if err != nil {
				if errors.Is(err, imageio.ErrDecode) {
					warn(id, "image could not be decoded", err)
					continue
				}
				return nil, err
			}
			images = append(images, img)
			pos = append(pos, i)
		}
		if len(images) == 0 {
			return out, nil
		}

		ictx, cancel := withTimeout(ctx, s.config.Timeout)
		defer cancel()

		embs, err := image.EmbedImages(ictx, images)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				for _, img := range images {
					warn(img.ID, "image embedding timed out", err)
				}
				return out, nil
			}
			return nil, &CapabilityError{Capability: "image embedding", Err: err}
		}
		if len(embs) != len(images) {
			return nil, &CapabilityError{
				Capability: "image embedding",
				Err: fmt.Errorf("%w: expected %d embeddings, got %d",
					embeddings.ErrEmbedding, len(images), len(embs)),
			}
		}

		for j, p := range pos {
			out[p] = embs[j]
		}
		return out, nil
	}

	var (
		embs [][]float32
		err  error
	)
	if s.config.Cache != nil {
		embs, err = s.config.Cache.GetOrCompute(ctx, ids, compute)
	} else {
		embs, err = compute(ctx, ids)
	}
	if err != nil {
		return nil, nil, err
	}

	for i, id := range ids {
		if embs[i] == nil && !warned[id] {
			warn(id, "no embedding available", nil)
		}
	}

	return embs, warnings, nil
}

// Index embeds ids ahead of any search, filling the cache and the vector
// store when they are configured. It returns the identifiers that were
// embedded and a warning for each one that was not.
func (s *EmbeddingStage) Index(ctx context.Context, ids []string) ([]string, []Warning, error) {
	if len(ids) == 0 {
		return []string{}, nil, nil
	}

	_, image, err := s.capabilities()
	if err != nil {
		return nil, nil, err
	}

	ids = dedupe(ids)
	embs, warnings, err := s.embedImages(ctx, image, ids)
	if err != nil {
		return nil, nil, err
	}

	indexed := make([]string, 0, len(ids))
	for i, id := range ids {
		if embs[i] == nil {
			continue
		}
		if s.config.Store != nil {
			if err := s.insert(ctx, id, embs[i]); err != nil {
				return nil, nil, err
			}
		}
		indexed = append(indexed, id)
	}

	return indexed, warnings, nil
}

func (s *EmbeddingStage) insert(ctx context.Context, id string, emb []float32) error {
	if err := s.config.Store.Insert(ctx, id, emb, s.config.Overwrite); err != nil {
		return fmt.Errorf("inserting %s into vector store: %w", id, err)
	}
	return nil
}

// searchStore inserts the candidate embeddings and lets the store answer. The
// store may hold images from earlier calls, so hits are restricted to ids.
func (s *EmbeddingStage) searchStore(ctx context.Context, query []float32, ids []string, embs [][]float32) ([]string, error) {
	for i, id := range ids {
		if err := s.insert(ctx, id, embs[i]); err != nil {
			return nil, err
		}
	}

	hits, err := s.config.Store.Search(ctx, query)
	if err != nil {
		return nil, stageError(err, "searching vector store")
	}

	allowed := make(map[string]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}

	kept := make([]string, 0, len(hits))
	for _, id := range hits {
		if allowed[id] {
			kept = append(kept, id)
			delete(allowed, id)
		}
	}
	return kept, nil
}

func (s *EmbeddingStage) evaluate(query []float32, ids []string, embs [][]float32) ([]string, error) {
	indices, err := s.config.Metric.Evaluate(query, embs)
	if err != nil {
		return nil, stageError(err, "evaluating metric")
	}

	kept := make([]string, len(indices))
	for i, idx := range indices {
		kept[i] = ids[idx]
	}
	return kept, nil
}

func stageError(err error, action string) error {
	switch {
	case errors.Is(err, vector.ErrNoMetric):
		return &ConfigurationError{Component: "metric", Err: err}
	case errors.Is(err, metric.ErrDimensionMismatch):
		return &ConfigurationError{Component: "embedding dimensions", Err: err}
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
