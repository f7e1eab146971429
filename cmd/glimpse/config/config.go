// Package configcmder provides the config command for managing persistent
// glimpse configuration stored in the .glimpse/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent glimpse configuration.

Configuration is stored as config.toml in the .glimpse/ directory and provides
default values for command flags. CLI flags and GLIMPSE_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example:
  images.folder, api.listen, client.api_target,
  embedding.target, embedding.model, metric.threshold,
  vector_store.provider, judge.enabled, clicklog.provider

Use subcommands to get, set, or list configuration values:
  glimpse config set <key> <value>    Set a configuration value
  glimpse config get <key>            Get a configuration value
  glimpse config list                 List all configuration values

Examples:
  glimpse config set images.folder ~/Pictures
  glimpse config set vector_store.provider sqlite
  glimpse config get metric.threshold
  glimpse config list`

const configShortDesc string = "Manage persistent glimpse configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
