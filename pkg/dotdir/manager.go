// Package dotdir resolves the .glimpse/ directory holding config.toml and the
// default on-disk vector index.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the glimpse directory.
	dirName = ".glimpse"

	// IndexFile is the default SQLite vector index file name inside the directory.
	IndexFile = "index.db"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the .glimpse/ directory to use,
// creating it when needed. Order of precedence:
//  1. Provided override
//  2. Local ./.glimpse/ dir
//  3. Home ~/.glimpse/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating glimpse directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// IndexPath returns the default path of the SQLite vector index under the
// resolved directory.
func (m *Manager) IndexPath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, IndexFile), nil
}

func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
