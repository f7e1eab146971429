// Package modelscmder provides the models command that lists the checkpoints
// the CLIP inference server can load.
package modelscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/glimpse/cmd/glimpse/cmdconfig"
	"github.com/papercomputeco/glimpse/pkg/cliui"
	"github.com/papercomputeco/glimpse/pkg/config"
	"github.com/papercomputeco/glimpse/pkg/embeddings/clip"
)

const modelsLongDesc string = `List the models available on the CLIP inference server.

The configured model (embedding.model) is marked with a check.

Examples:
  glimpse models
  glimpse models --embedding-target http://gpu-box:51000`

const modelsShortDesc string = "List embedding models"

var modelsFlags = []string{
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
}

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdconfig.Load(cmd, modelsFlags)
			if err != nil {
				return err
			}

			emb, err := clip.NewEmbedder(clip.EmbedderConfig{
				BaseURL: cfg.Embedding.Target,
				Model:   cfg.Embedding.Model,
			})
			if err != nil {
				return err
			}
			defer emb.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			models, err := emb.ListModels(ctx)
			if err != nil {
				return fmt.Errorf("listing models: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, m := range models {
				mark := " "
				if m == emb.Model() {
					mark = cliui.SuccessMark
				}
				fmt.Fprintf(out, "  %s %s\n", mark, cliui.ValueStyle.Render(m))
			}
			return nil
		},
	}

	config.AddFlags(cmd, config.Flags, modelsFlags)

	return cmd
}
