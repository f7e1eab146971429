package clicklog

import (
	"cmp"
	"context"
	"slices"
)

// DefaultAnalyticsLimit caps the top lists when no limit is given.
const DefaultAnalyticsLimit = 10

// Count is the number of clicks recorded for a query or an image.
type Count struct {
	Key    string `json:"key"`
	Clicks int64  `json:"clicks"`
}

// Analytics summarizes the recorded clicks.
type Analytics struct {
	TotalClicks int64   `json:"total_clicks"`
	TopQueries  []Count `json:"top_queries"`
	TopImages   []Count `json:"top_images"`
}

// Reader reads recorded clicks back as analytics. limit caps each top list;
// zero or less uses DefaultAnalyticsLimit.
type Reader interface {
	Analytics(ctx context.Context, limit int) (*Analytics, error)
}

// Sink is a publisher whose clicks can be read back.
type Sink interface {
	Publisher
	Reader
}

// TopCounts orders counts by clicks, most first, breaking ties by key, and
// keeps at most limit entries.
func TopCounts(counts map[string]int64, limit int) []Count {
	if limit <= 0 {
		limit = DefaultAnalyticsLimit
	}

	out := make([]Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, Count{Key: k, Clicks: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Clicks, a.Clicks); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
