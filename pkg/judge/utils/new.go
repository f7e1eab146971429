// Package judgeutils selects a judge.Judge backend by provider name.
package judgeutils

import (
	"fmt"
	"os"

	"github.com/papercomputeco/glimpse/pkg/judge"
	"github.com/papercomputeco/glimpse/pkg/judge/ollama"
	"github.com/papercomputeco/glimpse/pkg/judge/openai"
)

type NewJudgeOpts struct {
	ProviderType string
	TargetURL    string
	Model        string

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv    string
	SystemPrompt string
	MaxTokens    int
}

func NewJudge(o *NewJudgeOpts) (judge.Judge, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.New(ollama.Config{
			BaseURL:      o.TargetURL,
			Model:        o.Model,
			SystemPrompt: o.SystemPrompt,
			MaxTokens:    o.MaxTokens,
		})
	case "openai":
		return openai.New(openai.Config{
			APIKey:       os.Getenv(o.APIKeyEnv),
			BaseURL:      o.TargetURL,
			Model:        o.Model,
			SystemPrompt: o.SystemPrompt,
			MaxTokens:    int64(o.MaxTokens),
		})
	default:
		return nil, fmt.Errorf("unsupported judge provider: %s", o.ProviderType)
	}
}
