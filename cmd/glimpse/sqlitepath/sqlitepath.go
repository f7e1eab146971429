// Package sqlitepath resolves where the SQLite vector index lives.
package sqlitepath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/glimpse/pkg/dotdir"
)

// ResolveSQLitePath returns override when set, then GLIMPSE_SQLITE, then
// an existing index in the working directory, and finally index.db inside
// the resolved .glimpse/ directory.
func ResolveSQLitePath(override, configDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("GLIMPSE_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}

	return dotdir.NewManager().IndexPath(configDir)
}

func sqliteCandidates() []string {
	return []string{
		"glimpse.db",
		"glimpse.sqlite",
	}
}
