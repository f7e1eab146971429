package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/glimpse/pkg/imageio"
)

// MockJudge answers "Yes." for identifiers in Affirm and "No." otherwise.
type MockJudge struct {
	mu sync.Mutex

	Affirm map[string]bool

	// Fail makes Ask return an error.
	Fail bool

	// Asked records the identifiers in call order.
	Asked []string
}

func NewMockJudge(affirm ...string) *MockJudge {
	m := &MockJudge{Affirm: make(map[string]bool)}
	for _, id := range affirm {
		m.Affirm[id] = true
	}
	return m
}

func (m *MockJudge) Ask(_ context.Context, _ string, img *imageio.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Asked = append(m.Asked, img.ID)
	if m.Fail {
		return "", errors.New("mock judge failure")
	}
	if m.Affirm[img.ID] {
		return "Yes.", nil
	}
	return "No.", nil
}
