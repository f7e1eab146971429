// Package glimpsecmder
package glimpsecmder

import (
	"github.com/spf13/cobra"

	analyticscmder "github.com/papercomputeco/glimpse/cmd/glimpse/analytics"
	configcmder "github.com/papercomputeco/glimpse/cmd/glimpse/config"
	indexcmder "github.com/papercomputeco/glimpse/cmd/glimpse/index"
	modelscmder "github.com/papercomputeco/glimpse/cmd/glimpse/models"
	searchcmder "github.com/papercomputeco/glimpse/cmd/glimpse/search"
	servecmder "github.com/papercomputeco/glimpse/cmd/glimpse/serve"
	versioncmder "github.com/papercomputeco/glimpse/cmd/glimpse/version"
)

const glimpseLongDesc string = `Glimpse finds the images in a folder that match a text query.

A query runs through a retrieval pipeline: an embedding stage keeps the images
whose CLIP embedding is similar enough to the query's, and an optional
vision-language judge confirms each survivor.

Commands:
  glimpse serve            Run the API server (with MCP on /mcp)
  glimpse search <query>   Search via the API server, or --local
  glimpse index            Embed the folder into a persistent vector store
  glimpse models           List models on the CLIP server
  glimpse analytics        Show the most clicked queries and images
  glimpse config           Manage persistent configuration`

const glimpseShortDesc string = "Glimpse - text to image search"

func NewGlimpseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "glimpse",
		Short:        glimpseShortDesc,
		Long:         glimpseLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: ./.glimpse or ~/.glimpse)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(analyticscmder.NewAnalyticsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
