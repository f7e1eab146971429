// Package vector provides the embedding store used by retrieval stages.
package vector

import (
	"context"

	"github.com/papercomputeco/glimpse/pkg/metric"
)

// Document is a stored image embedding.
type Document struct {
	// ID is the image identifier.
	ID string

	// Embedding is the image's vector representation.
	Embedding []float32
}

// Store maps image identifiers to embeddings and searches them with a metric.
type Store interface {
	// Insert stores embedding under id. When overwrite is false and id is
	// already stored, Insert is a no-op.
	Insert(ctx context.Context, id string, embedding []float32, overwrite bool) error

	// Search evaluates the configured metric over every stored embedding, in
	// insertion order, and returns the surviving identifiers in the metric's
	// order. Returns ErrNoMetric when the store has no metric.
	Search(ctx context.Context, query []float32) ([]string, error)

	// Get retrieves documents by their IDs. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Clear removes every document.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Rank applies m to docs and maps the resulting indices back to identifiers.
// docs must be in insertion order. Backends that scan their documents share
// this so every Store orders results the same way.
func Rank(m metric.Metric, query []float32, docs []Document) ([]string, error) {
	if m == nil {
		return nil, ErrNoMetric
	}

	embs := make([][]float32, len(docs))
	for i, d := range docs {
		embs[i] = d.Embedding
	}

	indices, err := m.Evaluate(query, embs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(indices))
	for i, idx := range indices {
		ids[i] = docs[idx].ID
	}
	return ids, nil
}
