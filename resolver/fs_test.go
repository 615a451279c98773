package resolver

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestUnion(t *testing.T) {
	upper := FromFS(fstest.MapFS{
		"app/a.go": {Data: []byte("upper")},
	})
	lower := FromFS(fstest.MapFS{
		"app/a.go": {Data: []byte("lower-longer")},
		"app/b.go": {},
	})
	u := Union(upper, lower)

	t.Run("stat takes the first hit", func(t *testing.T) {
		info, err := u.Stat("/app/a.go")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Size() != int64(len("upper")) {
			t.Errorf("size = %d, want upper layer", info.Size())
		}
		if _, err := u.Stat("/app/b.go"); err != nil {
			t.Errorf("lower layer not visible: %v", err)
		}
	})

	t.Run("readdir merges listings", func(t *testing.T) {
		entries, err := u.ReadDir("/app")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries) != 2 || entries[0].Name() != "a.go" || entries[1].Name() != "b.go" {
			t.Errorf("entries = %v", entries)
		}
	})

	t.Run("missing everywhere", func(t *testing.T) {
		if _, err := u.Stat("/nope"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("stat err = %v", err)
		}
		if _, err := u.ReadDir("/nope"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("readdir err = %v", err)
		}
		if _, err := Union().Stat("/"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("empty union err = %v", err)
		}
	})
}

func TestOS(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "middleware"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "middleware", "logger.go"), []byte("package middleware"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New(OS(), WithGlobalPaths()).Resolve(dir, "./middleware/logger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "middleware", "logger.go"); got.SourceFile != want {
		t.Errorf("source = %q, want %q", got.SourceFile, want)
	}
}
