package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func TestModelsDepthBounds(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.dsb"))
	touch(t, filepath.Join(root, "a.dsb"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "sub", "c.dsb"))
	touch(t, filepath.Join(root, "sub", "deeper", "d.dsb"))

	cases := []struct {
		name  string
		depth int
		want  []string
	}{
		{"root only", 1, []string{"a.dsb", "b.dsb"}},
		{"zero defaults to root only", 0, []string{"a.dsb", "b.dsb"}},
		{"one level down", 2, []string{"a.dsb", "b.dsb", "c.dsb"}},
		{"two levels down", 3, []string{"a.dsb", "b.dsb", "c.dsb", "d.dsb"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Models(Options{Root: root, Depth: tc.depth})
			if err != nil {
				t.Fatalf("Models() error: %v", err)
			}
			names := baseNames(got)
			if len(names) != len(tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, names)
			}
			for i := range names {
				if names[i] != tc.want[i] {
					t.Errorf("Expected %v, got %v", tc.want, names)
					break
				}
			}
		})
	}
}

func TestModelsReturnsAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "m.dsb"))

	got, err := Models(Options{Root: root})
	if err != nil {
		t.Fatalf("Models() error: %v", err)
	}
	if len(got) != 1 || !filepath.IsAbs(got[0]) {
		t.Errorf("Expected one absolute path, got %v", got)
	}
}

func TestModelsExtensionIsCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "upper.DSB"))
	touch(t, filepath.Join(root, "lower.dsb"))

	got, err := Models(Options{Root: root})
	if err != nil {
		t.Fatalf("Models() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected both case variants matched, got %v", got)
	}
}

func TestModelsCustomExtension(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.idf"))
	touch(t, filepath.Join(root, "b.dsb"))

	got, err := Models(Options{Root: root, Ext: "idf"})
	if err != nil {
		t.Fatalf("Models() error: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "a.idf" {
		t.Errorf("Expected [a.idf], got %v", baseNames(got))
	}
}

func TestModelsMissingRoot(t *testing.T) {
	if _, err := Models(Options{Root: filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("Expected error for missing root directory")
	}
}

func TestModelsRootIsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.dsb")
	touch(t, file)

	if _, err := Models(Options{Root: file}); err == nil {
		t.Error("Expected error when root is a file")
	}
}

func TestModelName(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/models/office building.dsb", "office building"},
		{"/models/noext", "noext"},
		{"/models/dotted.name.dsb", "dotted.name"},
	}
	for _, tc := range cases {
		if got := ModelName(tc.path); got != tc.want {
			t.Errorf("ModelName(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
