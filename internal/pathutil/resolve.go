// Package pathutil resolves user-supplied paths before they reach the
// batch machinery.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve turns a user-supplied path into a clean absolute path. A
// leading ~ expands to the home directory, relative paths resolve
// against the working directory, and symlinks are followed when the
// path exists. Windows folder junctions count as symlinks here, which
// matters because collected results and models may sit behind them.
func Resolve(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	if path == "~" || strings.HasPrefix(path, "~"+string(filepath.Separator)) || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	// Not yet existing (the outputs dir is created later); the absolute
	// path is the best answer available.
	return abs, nil
}
