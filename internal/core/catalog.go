package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Catalog lists source files and tracks which have been fully labeled.
//
// The completed set is persisted as newline-delimited file names. Catalog is
// safe for concurrent use; the directory watcher runs in its own goroutine.
type Catalog struct {
	docsDir       string
	completedPath string

	mu        sync.RWMutex
	completed []string // insertion order
	listing   []string // cached listing, valid while watching
	cached    bool
	watching  bool
	gen       uint64 // bumped on every directory event
}

// NewCatalog creates a catalog over docsDir and loads the completed set from
// completedPath. A missing completed file is an empty set.
func NewCatalog(docsDir, completedPath string) (*Catalog, error) {
	c := &Catalog{
		docsDir:       docsDir,
		completedPath: completedPath,
	}
	completed, err := readCompleted(completedPath)
	if err != nil {
		return c, ioError("load completed files", err)
	}
	c.completed = completed
	return c, nil
}

// DocumentsDir returns the directory the catalog lists.
func (c *Catalog) DocumentsDir() string {
	return c.docsDir
}

// Path returns the full path of a source file.
func (c *Catalog) Path(name string) string {
	return filepath.Join(c.docsDir, name)
}

// ListAvailable returns the CSV files in the documents directory, sorted by
// name. It returns an empty slice if the directory is absent or unreadable.
func (c *Catalog) ListAvailable() []string {
	c.mu.RLock()
	if c.cached {
		out := slices.Clone(c.listing)
		c.mu.RUnlock()
		return out
	}
	gen := c.gen
	c.mu.RUnlock()

	files := scanCSVFiles(c.docsDir)

	c.mu.Lock()
	if c.watching && c.gen == gen {
		c.listing = files
		c.cached = true
	}
	c.mu.Unlock()

	return slices.Clone(files)
}

func scanCSVFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("catalog: cannot read documents directory", "dir", dir, "error", err)
		}
		return []string{}
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		files = append(files, entry.Name())
	}
	slices.Sort(files)
	return files
}

// IsCompleted reports whether name is in the completed set.
func (c *Catalog) IsCompleted(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.completed, name)
}

// Completed returns the completed set in insertion order.
func (c *Catalog) Completed() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.completed)
}

// MarkCompleted adds name to the completed set and persists the set.
// Marking an already completed file does nothing. If persisting fails the
// in-memory set still contains name.
func (c *Catalog) MarkCompleted(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slices.Contains(c.completed, name) {
		return nil
	}
	c.completed = append(c.completed, name)

	if err := writeCompleted(c.completedPath, c.completed); err != nil {
		return ioError("save completed files", err)
	}
	return nil
}

// ResetAll empties the completed set and removes its file.
func (c *Catalog) ResetAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.completed = nil
	if err := os.Remove(c.completedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioError("reset completed files", err)
	}
	return nil
}

// Watch keeps the listing cache in sync with the documents directory until
// ctx is cancelled. Without a running Watch every ListAvailable call reads
// the directory.
func (c *Catalog) Watch(ctx context.Context) error {
	if err := os.MkdirAll(c.docsDir, 0o755); err != nil {
		return fmt.Errorf("create documents directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.docsDir); err != nil {
		return fmt.Errorf("watch %s: %w", c.docsDir, err)
	}

	c.mu.Lock()
	c.watching = true
	c.cached = false
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.watching = false
		c.cached = false
		c.listing = nil
		c.mu.Unlock()
	}()

	slog.Info("catalog: watching documents directory", "dir", c.docsDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			slog.Debug("catalog: directory changed", "path", event.Name, "op", event.Op.String())
			c.invalidate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("catalog: watcher error", "error", err)
			c.invalidate()
		}
	}
}

func (c *Catalog) invalidate() {
	c.mu.Lock()
	c.gen++
	c.cached = false
	c.listing = nil
	c.mu.Unlock()
}

func readCompleted(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		name := strings.TrimSpace(line)
		if name == "" || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func writeCompleted(path string, names []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(strings.Join(names, "\n")), 0o644)
}
