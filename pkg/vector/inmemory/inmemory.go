// Package inmemory provides an insertion-ordered in-memory vector store.
package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/papercomputeco/glimpse/pkg/logger"
	"github.com/papercomputeco/glimpse/pkg/metric"
	"github.com/papercomputeco/glimpse/pkg/vector"
)

// Store implements vector.Store in memory. Entries keep their first
// insertion position even when overwritten.
type Store struct {
	mu     sync.RWMutex
	order  []string
	docs   map[string][]float32
	metric metric.Metric
	logger *slog.Logger
}

var _ vector.Store = (*Store)(nil)

// NewStore creates an empty store. m may be nil, in which case Search
// returns vector.ErrNoMetric.
func NewStore(m metric.Metric, log *slog.Logger) *Store {
	return &Store{
		docs:   make(map[string][]float32),
		metric: m,
		logger: logger.OrNop(log),
	}
}

// Insert implements vector.Store.
func (s *Store) Insert(_ context.Context, id string, embedding []float32, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[id]; exists {
		if !overwrite {
			return nil
		}
	} else {
		s.order = append(s.order, id)
	}

	s.docs[id] = clone(embedding)
	return nil
}

// Search implements vector.Store.
func (s *Store) Search(_ context.Context, query []float32) ([]string, error) {
	s.mu.RLock()
	docs := make([]vector.Document, len(s.order))
	for i, id := range s.order {
		docs[i] = vector.Document{ID: id, Embedding: s.docs[id]}
	}
	s.mu.RUnlock()

	ids, err := vector.Rank(s.metric, query, docs)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("searched in-memory store", "documents", len(docs), "results", len(ids))
	return ids, nil
}

// Get implements vector.Store.
func (s *Store) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		if emb, ok := s.docs[id]; ok {
			docs = append(docs, vector.Document{ID: id, Embedding: clone(emb)})
		}
	}
	return docs, nil
}

// Clear implements vector.Store.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.docs = make(map[string][]float32)
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Close implements vector.Store.
func (s *Store) Close() error {
	return nil
}

func clone(v []float32) []float32 {
	dst := make([]float32, len(v))
	copy(dst, v)
	return dst
}
