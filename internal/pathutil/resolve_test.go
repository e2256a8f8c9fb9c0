package pathutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveEmptyUsesWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != wd {
		t.Errorf("Expected %q, got %q", wd, got)
	}
}

func TestResolveExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	got, err := Resolve(filepath.Join("~", "models"))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !strings.HasPrefix(got, home) {
		t.Errorf("Expected path under %q, got %q", home, got)
	}
	if strings.Contains(got, "~") {
		t.Errorf("Tilde not expanded: %q", got)
	}
}

func TestResolveNonExistentPathStaysAbsolute(t *testing.T) {
	target := filepath.Join(t.TempDir(), "not", "created", "yet")
	got, err := Resolve(target)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("Expected absolute path, got %q", got)
	}
	if filepath.Base(got) != "yet" {
		t.Errorf("Expected trailing components preserved, got %q", got)
	}
}

func TestResolveFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skip("symlinks not supported here")
	}

	got, err := Resolve(link)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	wantReal, err := filepath.EvalSymlinks(real)
	if err != nil {
		t.Fatal(err)
	}
	if got != wantReal {
		t.Errorf("Expected %q, got %q", wantReal, got)
	}
}
