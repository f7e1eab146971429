// Package openai implements pkg/judge's Judge with an OpenAI-compatible
// vision chat model.
package openai

import (
	"context"
	"errors"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/papercomputeco/glimpse/pkg/imageio"
	"github.com/papercomputeco/glimpse/pkg/judge"
)

// DefaultModel is the default vision-capable chat model.
const DefaultModel = "gpt-4o-mini"

// Config holds configuration for the OpenAI judge.
type Config struct {
	APIKey string

	// BaseURL is optional, useful for OpenAI-compatible servers and tests.
	BaseURL string

	// Model defaults to DefaultModel.
	Model string

	// SystemPrompt is sent before every question when non-empty.
	SystemPrompt string

	// MaxTokens caps the generated answer. Zero leaves the server default.
	MaxTokens int64
}

// Judge implements judge.Judge using the Chat Completions API. Images are
// sent inline as data URLs.
type Judge struct {
	client openaisdk.Client
	config Config
}

var _ judge.Judge = (*Judge)(nil)

// New creates an OpenAI judge. Returns an error if the API key is missing.
func New(cfg Config) (*Judge, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai judge: missing api key")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Judge{
		client: openaisdk.NewClient(opts...),
		config: cfg,
	}, nil
}

// Ask implements judge.Judge.
func (j *Judge) Ask(ctx context.Context, prompt string, img *imageio.Image) (string, error) {
	resp, err := j.client.Chat.Completions.New(ctx, buildParams(j.config, prompt, img))
	if err != nil {
		return "", fmt.Errorf("%w: %w", judge.ErrJudge, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", judge.ErrJudge)
	}

	return resp.Choices[0].Message.Content, nil
}

func buildParams(cfg Config, prompt string, img *imageio.Image) openaisdk.ChatCompletionNewParams {
	var messages []openaisdk.ChatCompletionMessageParamUnion
	if cfg.SystemPrompt != "" {
		messages = append(messages, openaisdk.SystemMessage(cfg.SystemPrompt))
	}
	messages = append(messages, openaisdk.UserMessage([]openaisdk.ChatCompletionContentPartUnionParam{
		openaisdk.ImageContentPart(openaisdk.ChatCompletionContentPartImageImageURLParam{
			URL: img.DataURL(),
		}),
		openaisdk.TextContentPart(prompt),
	}))

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(cfg.Model),
		Messages: messages,
	}
	if cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(cfg.MaxTokens)
	}
	return params
}
