package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/glimpse/pkg/cache"
	"github.com/papercomputeco/glimpse/pkg/config"
	"github.com/papercomputeco/glimpse/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/glimpse/pkg/embeddings/utils"
	"github.com/papercomputeco/glimpse/pkg/imageio"
	judgeutils "github.com/papercomputeco/glimpse/pkg/judge/utils"
	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/metric"
	"github.com/papercomputeco/glimpse/pkg/pipeline"
	"github.com/papercomputeco/glimpse/pkg/retrieval"
	"github.com/papercomputeco/glimpse/pkg/vector"
	vectorutils "github.com/papercomputeco/glimpse/pkg/vector/utils"
)

// ProviderNone disables the vector store; the metric filters candidates
// directly.
const ProviderNone = "none"

// Components is everything a configured search needs, assembled from a
// config.Config.
type Components struct {
	Catalog   *imageio.Catalog
	Cache     *cache.Cache
	Store     vector.Store
	Embedding *retrieval.EmbeddingStage
	Judge     *retrieval.JudgeStage
	Pipeline  *pipeline.Pipeline
	Searcher  *Searcher

	mu       sync.Mutex
	embedder embeddings.Embedder
}

// BuildOptions carries the collaborators that do not come from config.
type BuildOptions struct {
	// Factory overrides the embedder created from the embedding config.
	Factory retrieval.EmbedderFactory

	Logger *slog.Logger
}

// Build assembles the catalog, cache, store and pipeline described by cfg.
// The embedding capability is created lazily on the first search or index.
func Build(ctx context.Context, cfg *config.Config, opts BuildOptions) (*Components, error) {
	log := logger.OrNop(opts.Logger)
	c := &Components{}

	catalog, err := imageio.NewCatalog(cfg.Images.Folder, log)
	if err != nil {
		return nil, err
	}
	c.Catalog = catalog

	policy, err := cache.PolicyByName(cfg.Cache.Policy)
	if err != nil {
		return nil, err
	}
	c.Cache = cache.New(cache.Options{Capacity: int(cfg.Cache.Capacity), Policy: policy})

	m := NewMetric(cfg.Metric)

	if cfg.VectorStore.Provider != ProviderNone {
		c.Store, err = vectorutils.NewStore(ctx, &vectorutils.NewStoreOpts{
			ProviderType: cfg.VectorStore.Provider,
			TargetURL:    cfg.VectorStore.Target,
			Collection:   cfg.VectorStore.Collection,
			SQLitePath:   cfg.VectorStore.SQLitePath,
			Dimensions:   cfg.Embedding.Dimensions,
			Metric:       m,
			Logger:       log,
		})
		if err != nil {
			return nil, fmt.Errorf("creating vector store: %w", err)
		}
	}

	factory := opts.Factory
	if factory == nil {
		factory = embedderFactory(cfg.Embedding)
	}

	timeout := time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second
	c.Embedding, err = retrieval.NewEmbeddingStage(retrieval.EmbeddingStageConfig{
		Factory: func(model, device string) (embeddings.Embedder, error) {
			emb, err := factory(model, device)
			if err != nil {
				return nil, err
			}
			c.mu.Lock()
			c.embedder = emb
			c.mu.Unlock()
			return emb, nil
		},
		Model:     cfg.Embedding.Model,
		Device:    cfg.Embedding.Device,
		Cache:     c.Cache,
		Store:     c.Store,
		Metric:    m,
		Overwrite: cfg.VectorStore.Overwrite,
		Timeout:   timeout,
		Logger:    log,
	})
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	stages := []retrieval.Stage{c.Embedding}
	if cfg.Judge.Enabled {
		j, err := judgeutils.NewJudge(&judgeutils.NewJudgeOpts{
			ProviderType: cfg.Judge.Provider,
			TargetURL:    cfg.Judge.Target,
			Model:        cfg.Judge.Model,
			APIKeyEnv:    cfg.Judge.APIKeyEnv,
			SystemPrompt: cfg.Judge.SystemPrompt,
			MaxTokens:    int(cfg.Judge.MaxTokens),
		})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("creating judge: %w", err), c.Close())
		}

		c.Judge, err = retrieval.NewJudgeStage(retrieval.JudgeStageConfig{
			Judge:       j,
			Concurrency: int(cfg.Judge.Concurrency),
			Logger:      log,
		})
		if err != nil {
			return nil, errors.Join(err, c.Close())
		}
		stages = append(stages, c.Judge)
	}

	p, err := pipeline.New(stages...)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}
	c.Pipeline = p.WithLogger(log)

	c.Searcher, err = New(Config{
		Catalog:           c.Catalog,
		Pipeline:          c.Pipeline,
		DefaultNumResults: int(cfg.Search.DefaultNumResults),
		Logger:            log,
	})
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	return c, nil
}

// Close releases the store and the embedder, if one was created.
func (c *Components) Close() error {
	var errs []error
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.embedder != nil {
		errs = append(errs, c.embedder.Close())
	}
	return errors.Join(errs...)
}

// NewMetric converts the metric config into a metric.Metric.
func NewMetric(c config.MetricConfig) metric.Metric {
	return metric.NewCosine(metric.Options{
		Threshold: c.Threshold,
		Normalize: !c.DotProduct,
		Rank:      c.Rank,
	})
}

func embedderFactory(c config.EmbeddingConfig) retrieval.EmbedderFactory {
	return func(model, device string) (embeddings.Embedder, error) {
		return embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: c.Provider,
			TargetURL:    c.Target,
			Model:        model,
			Device:       device,
			Dimensions:   c.Dimensions,
			Timeout:      time.Duration(c.TimeoutSeconds) * time.Second,
		})
	}
}
