// Package vectorutils selects a vector.Store backend by provider name.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/glimpse/pkg/metric"
	"github.com/papercomputeco/glimpse/pkg/vector"
	"github.com/papercomputeco/glimpse/pkg/vector/chroma"
	"github.com/papercomputeco/glimpse/pkg/vector/inmemory"
	"github.com/papercomputeco/glimpse/pkg/vector/qdrant"
	"github.com/papercomputeco/glimpse/pkg/vector/sqlitevec"
)

// Supported provider names.
const (
	ProviderMemory = "memory"
	ProviderSQLite = "sqlite"
	ProviderChroma = "chroma"
	ProviderQdrant = "qdrant"
)

type NewStoreOpts struct {
	ProviderType string
	TargetURL    string
	Collection   string
	SQLitePath   string
	Dimensions   uint
	Metric       metric.Metric
	Logger       *slog.Logger
}

func NewStore(ctx context.Context, o *NewStoreOpts) (vector.Store, error) {
	switch o.ProviderType {
	case ProviderMemory, "":
		return inmemory.NewStore(o.Metric, o.Logger), nil
	case ProviderSQLite:
		return sqlitevec.NewStore(sqlitevec.Config{
			DBPath:     o.SQLitePath,
			Dimensions: o.Dimensions,
			Metric:     o.Metric,
		}, o.Logger)
	case ProviderChroma:
		return chroma.NewStore(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.Collection,
			Metric:         o.Metric,
			MaxRetries:     5,
		}, o.Logger)
	case ProviderQdrant:
		return qdrant.NewStore(ctx, qdrant.Config{
			Target:         o.TargetURL,
			CollectionName: o.Collection,
			Dimensions:     o.Dimensions,
			Metric:         o.Metric,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
