// Package scan discovers model files for a batch run.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ModelExt is the DesignBuilder model file extension.
const ModelExt = ".dsb"

// Options configures a model scan.
type Options struct {
	// Root is the directory searched for model files.
	Root string

	// Depth bounds how many directory levels are searched. 1 means the
	// root itself only, 2 adds its immediate subdirectories, and so on.
	Depth int

	// Ext filters files by extension (case-insensitive). Defaults to
	// ModelExt when empty.
	Ext string
}

// Models returns the ordered list of model file paths under opts.Root.
// Paths are absolute, sorted lexically within each directory level so a
// re-run visits models in the same order. The root not existing is fatal.
func Models(opts Options) ([]string, error) {
	if opts.Depth < 1 {
		opts.Depth = 1
	}
	ext := opts.Ext
	if ext == "" {
		ext = ModelExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("models directory %s: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("models path %s is not a directory", opts.Root)
	}

	var files []string
	if err := walk(opts.Root, ext, opts.Depth, &files); err != nil {
		return nil, err
	}

	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve path %s: %w", f, err)
		}
		files[i] = abs
	}
	return files, nil
}

// walk collects matching files level by level, descending into
// subdirectories while depth allows.
func walk(dir, ext string, depth int, files *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	var subdirs []string
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			names = append(names, path)
		}
	}
	sort.Strings(names)
	*files = append(*files, names...)

	if depth > 1 {
		sort.Strings(subdirs)
		for _, sub := range subdirs {
			if err := walk(sub, ext, depth-1, files); err != nil {
				return err
			}
		}
	}
	return nil
}

// ModelName derives a work item's identity from its source path, which is
// the base file name with the extension stripped.
func ModelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
