// Package embeddings defines the text and image embedding capabilities used
// by retrieval stages. Text and image embeddings from one Embedder share a
// latent space and a fixed dimension.
package embeddings

import (
	"context"
	"errors"

	"github.com/papercomputeco/glimpse/pkg/imageio"
)

// ErrEmbedding is returned when embedding generation fails.
var ErrEmbedding = errors.New("embedding failed")

// TextEmbedder embeds text queries.
type TextEmbedder interface {
	// EmbedTexts returns one embedding per text, in order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ImageEmbedder embeds images.
type ImageEmbedder interface {
	// EmbedImages returns one embedding per image, in order, in a single batch.
	EmbedImages(ctx context.Context, images []*imageio.Image) ([][]float32, error)
}

// Embedder provides both capabilities for one model.
type Embedder interface {
	TextEmbedder
	ImageEmbedder

	// Dimensions returns the embedding size, or 0 when unknown.
	Dimensions() uint

	// Close releases any resources held by the embedder.
	Close() error
}
