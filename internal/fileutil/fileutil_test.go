package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOSStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.info.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	meta := OS{}.Stat(path)
	if !meta.Exists || meta.IsDir {
		t.Fatalf("expected existing file, got %+v", meta)
	}
	if !meta.ModTime.Equal(stamp) {
		t.Fatalf("unexpected mod time: %s", meta.ModTime)
	}
	if meta.Name != "video.info.json" {
		t.Fatalf("unexpected name %q", meta.Name)
	}

	missing := OS{}.Stat(filepath.Join(dir, "nope.json"))
	if missing.Exists {
		t.Fatal("expected missing handle")
	}
	if !missing.ModTime.IsZero() {
		t.Fatal("expected zero mod time for missing handle")
	}
}

func TestOSWalkLexicalAndSkipAll(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"b/two.info.json", "a/one.info.json", "c/three.info.json"} {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var files []string
	err := OS{}.Walk(root, func(meta Metadata) error {
		if meta.IsDir {
			return nil
		}
		files = append(files, meta.Name)
		if len(files) == 2 {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	if len(files) != 2 || files[0] != "one.info.json" || files[1] != "two.info.json" {
		t.Fatalf("unexpected walk order: %v", files)
	}
}

func TestOSWalkMissingRoot(t *testing.T) {
	err := OS{}.Walk(filepath.Join(t.TempDir(), "absent"), func(Metadata) error { return nil })
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}
