package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/glimpse/pkg/vector"
)

// MockStore is a test vector store that records inserts and returns a fixed
// search result.
type MockStore struct {
	mu sync.Mutex

	Inserted []vector.Document

	// Results is returned by Search.
	Results []string

	// SearchErr, when set, is returned by Search.
	SearchErr error

	Cleared bool
}

var _ vector.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Insert(_ context.Context, id string, embedding []float32, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inserted = append(m.Inserted, vector.Document{ID: id, Embedding: embedding})
	return nil
}

func (m *MockStore) Search(_ context.Context, _ []float32) ([]string, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.Results, nil
}

func (m *MockStore) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var docs []vector.Document
	for _, d := range m.Inserted {
		if want[d.ID] {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (m *MockStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inserted = nil
	m.Cleared = true
	return nil
}

func (m *MockStore) Close() error {
	return nil
}
