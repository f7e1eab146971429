package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/papercomputeco/glimpse/pkg/embeddings"
	"github.com/papercomputeco/glimpse/pkg/imageio"
)

// MockEmbedder is a test embedder that returns predictable embeddings.
// Images are looked up by identifier, texts by their content.
type MockEmbedder struct {
	mu sync.Mutex

	TextEmbeddings  map[string][]float32
	ImageEmbeddings map[string][]float32

	// Default is returned for unknown texts and images.
	Default []float32

	// FailText and FailImages make the corresponding call return ErrEmbedding.
	FailText   bool
	FailImages bool

	// ImageDelay makes EmbedImages block, honouring context cancellation.
	ImageDelay time.Duration

	// TextCalls and ImageBatches record every call.
	TextCalls    [][]string
	ImageBatches [][]string
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		TextEmbeddings:  make(map[string][]float32),
		ImageEmbeddings: make(map[string][]float32),
		Default:         []float32{0.1, 0.2, 0.3},
	}
}

func (m *MockEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TextCalls = append(m.TextCalls, append([]string(nil), texts...))
	if m.FailText {
		return nil, fmt.Errorf("%w: mock text failure", embeddings.ErrEmbedding)
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.lookup(m.TextEmbeddings, t)
	}
	return out, nil
}

func (m *MockEmbedder) EmbedImages(ctx context.Context, images []*imageio.Image) ([][]float32, error) {
	ids := make([]string, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}

	m.mu.Lock()
	m.ImageBatches = append(m.ImageBatches, ids)
	delay := m.ImageDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", embeddings.ErrEmbedding, ctx.Err())
		case <-time.After(delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailImages {
		return nil, fmt.Errorf("%w: mock image failure", embeddings.ErrEmbedding)
	}

	out := make([][]float32, len(images))
	for i, id := range ids {
		out[i] = m.lookup(m.ImageEmbeddings, id)
	}
	return out, nil
}

// ImageCalls returns the number of EmbedImages calls so far.
func (m *MockEmbedder) ImageCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ImageBatches)
}

func (m *MockEmbedder) lookup(table map[string][]float32, key string) []float32 {
	if emb, ok := table[key]; ok {
		return emb
	}
	return m.Default
}

func (m *MockEmbedder) Dimensions() uint {
	return uint(len(m.Default))
}

func (m *MockEmbedder) Close() error {
	return nil
}
