// Package validation checks user-supplied names before they are joined
// into filesystem paths.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateWatchFileName checks a watch-file entry from the command
// line. Entries are joined under the calculation directories, so they
// must be plain file names: no separators, no "..", no NUL bytes.
func ValidateWatchFileName(name string) error {
	if name == "" {
		return fmt.Errorf("watch file name cannot be empty")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("watch file name contains a NUL byte")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("watch file name %q cannot contain path separators", name)
	}
	if name == ".." || name == "." {
		return fmt.Errorf("watch file name %q is not a file name", name)
	}
	return nil
}

// Within reports whether path, made absolute, lies inside baseDir (or
// is baseDir itself). Unresolvable paths count as outside.
func Within(path, baseDir string) bool {
	if path == "" || baseDir == "" {
		return false
	}

	absBase, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return false
	}

	absPath := filepath.Clean(path)
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(absBase, absPath)
	}

	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
