package imageio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/glimpse/pkg/logger"
)

// Extensions lists the file extensions the catalog treats as images.
var Extensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Catalog lists the images in a folder. Identifiers are paths joined onto
// the folder, so they can be passed straight to FileLoader.
type Catalog struct {
	folder string
	logger *slog.Logger
}

// NewCatalog creates a catalog for folder, creating the folder if missing.
func NewCatalog(folder string, log *slog.Logger) (*Catalog, error) {
	if folder == "" {
		return nil, fmt.Errorf("image folder is required")
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("creating image folder: %w", err)
	}

	return &Catalog{
		folder: folder,
		logger: logger.OrNop(log),
	}, nil
}

// Folder returns the catalog's folder.
func (c *Catalog) Folder() string {
	return c.folder
}

// List returns the image identifiers in the folder, sorted by name.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.folder)
	if err != nil {
		return nil, fmt.Errorf("reading image folder: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		ids = append(ids, filepath.Join(c.folder, e.Name()))
	}
	sort.Strings(ids)

	return ids, nil
}

// Watch calls onAdd for every image created in (or moved into) the folder
// until ctx is cancelled.
func (c *Catalog) Watch(ctx context.Context, onAdd func(id string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating image watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.folder); err != nil {
		return fmt.Errorf("watching image folder: %w", err)
	}

	c.logger.Debug("watching image folder", "folder", c.folder)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !IsImage(event.Name) {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			onAdd(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("image watcher error: %w", err)
		}
	}
}
