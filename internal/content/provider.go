// Package content discovers and reads the files a check targets.
package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the per-file size ceiling (10 MiB). Larger files
// are skipped with a warning.
const DefaultMaxFileSize = 10 << 20

// File is one matched file with its text content.
type File struct {
	Path string
	Text string
}

// Provider matches glob patterns under a root directory and reads the
// matched files.
type Provider struct {
	root        string
	maxFileSize int64
}

// NewProvider creates a provider rooted at root (default ".").
func NewProvider(root string, maxFileSize int64) *Provider {
	if root == "" {
		root = "."
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Provider{root: root, maxFileSize: maxFileSize}
}

// Collect matches each pattern and reads the matched files concurrently.
// Results are deduplicated and sorted by path so repeated runs against an
// unchanged tree are deterministic. Pattern errors, oversized files, and
// unreadable files are logged and skipped; they never abort the
// collection.
func (p *Provider) Collect(ctx context.Context, patterns []string) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fsys := os.DirFS(p.root)
	matched := make(map[string]struct{})
	for _, pattern := range patterns {
		err := doublestar.GlobWalk(fsys, pattern, func(path string, d fs.DirEntry) error {
			if d.IsDir() {
				return nil
			}
			if info, err := d.Info(); err == nil && info.Size() > p.maxFileSize {
				slog.Warn("skipping file above size ceiling",
					"path", path, "size", info.Size(), "max", p.maxFileSize)
				return nil
			}
			matched[path] = struct{}{}
			return nil
		})
		if err != nil {
			slog.Warn("glob pattern failed", "pattern", pattern, "error", err)
		}
	}

	paths := make([]string, 0, len(matched))
	for path := range matched {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	// All-settled concurrent reads: one unreadable file leaves a nil slot
	// instead of failing the check.
	slots := make([]*File, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			data, err := fs.ReadFile(fsys, path)
			if err != nil {
				slog.Warn("skipping unreadable file", "path", path, "error", err)
				return
			}
			slots[i] = &File{Path: path, Text: string(data)}
		}(i, path)
	}
	wg.Wait()

	files := make([]File, 0, len(slots))
	for _, f := range slots {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}
