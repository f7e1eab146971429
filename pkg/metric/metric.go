// Package metric scores candidate embeddings against a query embedding.
package metric

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultThreshold is the minimum similarity a candidate needs in threshold mode.
const DefaultThreshold = 0.20

// ErrDimensionMismatch is returned when a candidate embedding does not have
// the same length as the query embedding.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Metric compares a query embedding against a batch of candidate embeddings
// and returns the indices of the candidates that survive, in the order the
// caller should present them. Indices refer to positions in candidates.
type Metric interface {
	Evaluate(query []float32, candidates [][]float32) ([]int, error)
}

// Options configures a Cosine metric.
type Options struct {
	// Threshold is the inclusive lower bound on the score in threshold mode.
	Threshold float64

	// Normalize scores with cosine similarity. When false the raw dot product
	// is used.
	Normalize bool

	// Rank returns every index ordered by descending score and ignores Threshold.
	Rank bool
}

// DefaultOptions returns cosine similarity with a 0.20 threshold.
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Normalize: true,
	}
}

// Cosine is the default Metric.
type Cosine struct {
	opts Options
}

var _ Metric = (*Cosine)(nil)

// NewCosine creates a Cosine metric with the given options.
func NewCosine(opts Options) *Cosine {
	return &Cosine{opts: opts}
}

// Options returns the options the metric was created with.
func (c *Cosine) Options() Options {
	return c.opts
}

// Evaluate implements Metric.
func (c *Cosine) Evaluate(query []float32, candidates [][]float32) ([]int, error) {
	if len(candidates) == 0 {
		return []int{}, nil
	}

	scores, err := Scores(query, candidates, c.opts.Normalize)
	if err != nil {
		return nil, err
	}

	if c.opts.Rank {
		return rank(scores), nil
	}

	indices := make([]int, 0, len(scores))
	for i, s := range scores {
		if s >= c.opts.Threshold {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

// Scores returns the similarity of every candidate to the query. With
// normalize set the score is the cosine similarity, otherwise the dot product.
// A zero-magnitude vector scores 0.
func Scores(query []float32, candidates [][]float32, normalize bool) ([]float64, error) {
	scores := make([]float64, len(candidates))
	for i, cand := range candidates {
		if len(cand) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, candidate %d has %d",
				ErrDimensionMismatch, len(query), i, len(cand))
		}
		scores[i] = similarity(query, cand, normalize)
	}
	return scores, nil
}

func similarity(a, b []float32, normalize bool) float64 {
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}

	if !normalize {
		return dot
	}
	if na2 == 0 || nb2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2))
}

// rank orders indices by descending score. Ties keep index order.
func rank(scores []float64) []int {
	indices := make([]int, len(scores))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})
	return indices
}
