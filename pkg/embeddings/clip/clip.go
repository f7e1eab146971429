// Package clip implements pkg/embeddings' Embedder for a CLIP inference server.
package clip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/glimpse/pkg/embeddings"
	"github.com/papercomputeco/glimpse/pkg/imageio"
)

const (
	// DefaultModel is the default CLIP checkpoint.
	DefaultModel = "openai/clip-vit-base-patch32"

	// DefaultBaseURL is the default inference server URL.
	DefaultBaseURL = "http://localhost:51000"

	// DefaultDevice is the compute device requested when none is configured.
	DefaultDevice = "cpu"
)

// Embedder wraps a CLIP inference server. Model and device are sent with
// every request, so one server can host several checkpoints.
type Embedder struct {
	baseURL    string
	model      string
	device     string
	dimensions uint
	httpClient *http.Client
}

// EmbedderConfig holds configuration for the CLIP embedder.
type EmbedderConfig struct {
	// BaseURL is the inference server URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Model is the CLIP checkpoint. Defaults to DefaultModel.
	Model string

	// Device selects the compute device (cpu, cuda:0, mps). Defaults to DefaultDevice.
	Device string

	// Dimensions, when set, is checked against every returned embedding.
	Dimensions uint

	// Timeout bounds each HTTP request. Defaults to 120s.
	Timeout time.Duration
}

// NewEmbedder creates a CLIP embedder. No request is made until first use.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	device := cfg.Device
	if device == "" {
		device = DefaultDevice
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Embedder{
		baseURL:    baseURL,
		model:      model,
		device:     device,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// EmbedTexts implements embeddings.TextEmbedder.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	return e.embed(ctx, "/embed/text", textRequest{
		Model:  e.model,
		Device: e.device,
		Texts:  texts,
	}, len(texts))
}

// EmbedImages implements embeddings.ImageEmbedder.
func (e *Embedder) EmbedImages(ctx context.Context, images []*imageio.Image) ([][]float32, error) {
	if len(images) == 0 {
		return [][]float32{}, nil
	}

	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = img.Base64()
	}

	return e.embed(ctx, "/embed/image", imageRequest{
		Model:  e.model,
		Device: e.device,
		Images: encoded,
	}, len(images))
}

func (e *Embedder) embed(ctx context.Context, path string, body any, want int) ([][]float32, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", embeddings.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", embeddings.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %w", embeddings.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: clip server returned status %d: %s", embeddings.ErrEmbedding, resp.StatusCode, string(respBody))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", embeddings.ErrEmbedding, err)
	}

	if len(embedResp.Embeddings) != want {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", embeddings.ErrEmbedding, want, len(embedResp.Embeddings))
	}

	if e.dimensions > 0 {
		for i, emb := range embedResp.Embeddings {
			if uint(len(emb)) != e.dimensions {
				return nil, fmt.Errorf("%w: embedding %d has %d dimensions, expected %d",
					embeddings.ErrEmbedding, i, len(emb), e.dimensions)
			}
		}
	}

	return embedResp.Embeddings, nil
}

// ListModels returns the checkpoints the inference server can load.
func (e *Embedder) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("clip server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var models modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return models.Models, nil
}

// Model returns the configured checkpoint.
func (e *Embedder) Model() string {
	return e.model
}

// Dimensions implements embeddings.Embedder.
func (e *Embedder) Dimensions() uint {
	return e.dimensions
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
