// Package ollama implements pkg/judge's Judge with a vision model served by Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/glimpse/pkg/imageio"
	"github.com/papercomputeco/glimpse/pkg/judge"
)

const (
	// DefaultModel is the default vision model.
	DefaultModel = "qwen2.5vl:7b"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// Judge wraps Ollama's chat API.
type Judge struct {
	baseURL      string
	model        string
	systemPrompt string
	maxTokens    int
	httpClient   *http.Client
}

var _ judge.Judge = (*Judge)(nil)

// Config holds configuration for the Ollama judge.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Model defaults to DefaultModel.
	Model string

	// SystemPrompt is sent before every question when non-empty.
	SystemPrompt string

	// MaxTokens caps the generated answer. Zero leaves Ollama's default.
	MaxTokens int
}

// New creates an Ollama judge.
func New(cfg Config) (*Judge, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Judge{
		baseURL:      baseURL,
		model:        model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Ask implements judge.Judge.
func (j *Judge) Ask(ctx context.Context, prompt string, img *imageio.Image) (string, error) {
	var messages []chatMessage
	if j.systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: j.systemPrompt})
	}
	messages = append(messages, chatMessage{
		Role:    "user",
		Content: prompt,
		Images:  []string{img.Base64()},
	})

	reqBody := chatRequest{
		Model:    j.model,
		Messages: messages,
		Stream:   false,
	}
	if j.maxTokens > 0 {
		n := j.maxTokens
		reqBody.Options = &chatOptions{NumPredict: &n}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %v", judge.ErrJudge, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", judge.ErrJudge, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending request: %w", judge.ErrJudge, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: ollama returned status %d: %s", judge.ErrJudge, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", judge.ErrJudge, err)
	}

	return chatResp.Message.Content, nil
}
