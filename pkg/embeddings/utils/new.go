// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"time"

	"github.com/papercomputeco/glimpse/pkg/embeddings"
	"github.com/papercomputeco/glimpse/pkg/embeddings/clip"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Device       string
	Dimensions   uint
	Timeout      time.Duration
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "clip":
		return clip.NewEmbedder(clip.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Device:     o.Device,
			Dimensions: o.Dimensions,
			Timeout:    o.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
