package vector

import "errors"

var (
	// ErrNoMetric is returned when Search is called on a store without a metric.
	ErrNoMetric = errors.New("vector store has no metric configured")

	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
