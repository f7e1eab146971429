// Package memory keeps click counts in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/papercomputeco/glimpse/pkg/clicklog"
)

// Sink counts clicks per query and per image. Counts are lost on restart.
type Sink struct {
	mu      sync.Mutex
	total   int64
	queries map[string]int64
	images  map[string]int64
}

var _ clicklog.Sink = (*Sink)(nil)

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{
		queries: make(map[string]int64),
		images:  make(map[string]int64),
	}
}

// PublishClick implements clicklog.Publisher. Clicks without a query count
// toward the image only.
func (s *Sink) PublishClick(_ context.Context, event *clicklog.ClickEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.images[event.Image]++
	if event.Query != "" {
		s.queries[event.Query]++
	}
	return nil
}

// Analytics implements clicklog.Reader.
func (s *Sink) Analytics(_ context.Context, limit int) (*clicklog.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &clicklog.Analytics{
		TotalClicks: s.total,
		TopQueries:  clicklog.TopCounts(s.queries, limit),
		TopImages:   clicklog.TopCounts(s.images, limit),
	}, nil
}

// Close is a no-op.
func (s *Sink) Close() error {
	return nil
}
