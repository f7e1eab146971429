// Package cmdconfig loads the effective configuration and logger for a
// glimpse command.
package cmdconfig

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/glimpse/cmd/glimpse/sqlitepath"
	"github.com/papercomputeco/glimpse/pkg/config"
	"github.com/papercomputeco/glimpse/pkg/logger"
	vectorutils "github.com/papercomputeco/glimpse/pkg/vector/utils"
)

// Load merges defaults, config.toml, GLIMPSE_* env vars and the flags named
// by keys into a Config. A sqlite vector store without a path is placed in
// the .glimpse/ directory.
func Load(cmd *cobra.Command, keys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	cfg := config.FromViper(v)
	if cfg.VectorStore.Provider == vectorutils.ProviderSQLite {
		cfg.VectorStore.SQLitePath, err = sqlitepath.ResolveSQLitePath(cfg.VectorStore.SQLitePath, configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving sqlite path: %w", err)
		}
	}

	return cfg, nil
}

// Logger builds the command logger, honoring the persistent --debug flag.
func Logger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
	)
}
