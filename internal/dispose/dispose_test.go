package dispose

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dupescan/internal/config"
	"dupescan/internal/dfs"
)

func newRecord(t *testing.T, path string) *dfs.Dfile {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	d, err := dfs.NewDfile(path, info.Size(), info.ModTime())
	if err != nil {
		t.Fatalf("NewDfile %s: %v", path, err)
	}
	return d
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestMovePreservesRelativePath(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "sub", "deep", "photo.jpg")
	writeFile(t, src, "image bytes")

	e := NewExecutor(root, config.QuarantineDirName, false)
	if err := e.Move(newRecord(t, src)); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	dest := filepath.Join(root, config.QuarantineDirName, "sub", "deep", "photo.jpg")
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("quarantined file missing: %v", err)
	}
	if string(got) != "image bytes" {
		t.Errorf("quarantined content = %q; want original bytes", got)
	}
	if _, err := os.Lstat(src); !os.IsNotExist(err) {
		t.Error("source file should be gone after move")
	}
}

// A record outside the scan root cannot mirror its relative path, so it
// lands in the quarantine top level under its bare name.
func TestMoveOutsideRootFallsBackToBaseName(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	src := filepath.Join(elsewhere, "stray.txt")
	writeFile(t, src, "stray")

	e := NewExecutor(root, config.QuarantineDirName, false)
	if err := e.Move(newRecord(t, src)); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	dest := filepath.Join(root, config.QuarantineDirName, "stray.txt")
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("expected %s: %v", dest, err)
	}
}

// Same-named files from different directories collide in quarantine
// only when the relative paths coincide; the later arrival gets a
// numbered variant instead of clobbering the first.
func TestMoveCollisionGetsUniqueName(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	first := filepath.Join(other, "dup.txt")
	second := filepath.Join(other, "dup.txt")
	writeFile(t, first, "first")

	e := NewExecutor(root, config.QuarantineDirName, false)
	if err := e.Move(newRecord(t, first)); err != nil {
		t.Fatalf("first Move failed: %v", err)
	}

	writeFile(t, second, "second")
	if err := e.Move(newRecord(t, second)); err != nil {
		t.Fatalf("second Move failed: %v", err)
	}

	q := filepath.Join(root, config.QuarantineDirName)
	got, err := os.ReadFile(filepath.Join(q, "dup.txt"))
	if err != nil {
		t.Fatalf("original quarantine entry missing: %v", err)
	}
	if string(got) != "first" {
		t.Errorf("existing entry was clobbered: %q", got)
	}
	got, err = os.ReadFile(filepath.Join(q, "dup (1).txt"))
	if err != nil {
		t.Fatalf("numbered variant missing: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("numbered variant = %q; want second", got)
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "gone.txt")
	writeFile(t, src, "bye")

	e := NewExecutor(root, config.QuarantineDirName, false)
	if err := e.Delete(newRecord(t, src)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Lstat(src); !os.IsNotExist(err) {
		t.Error("file should be removed")
	}
}

// Dry-run succeeds without touching the filesystem at all: no moves,
// no deletes, not even the quarantine directory.
func TestDryRunTouchesNothing(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "sub", "keepme.txt")
	writeFile(t, src, "still here")

	e := NewExecutor(root, config.QuarantineDirName, true)
	rec := newRecord(t, src)

	if err := e.Move(rec); err != nil {
		t.Fatalf("dry-run Move failed: %v", err)
	}
	if err := e.Delete(rec); err != nil {
		t.Fatalf("dry-run Delete failed: %v", err)
	}

	got, err := os.ReadFile(src)
	if err != nil || string(got) != "still here" {
		t.Errorf("source file changed under dry-run: %q, %v", got, err)
	}
	if _, err := os.Lstat(filepath.Join(root, config.QuarantineDirName)); !os.IsNotExist(err) {
		t.Error("dry-run must not create the quarantine directory")
	}
}

func TestMoveMissingSourceFails(t *testing.T) {
	root := t.TempDir()
	rec, err := dfs.NewDfile(filepath.Join(root, "vanished.txt"), 5, time.Now())
	if err != nil {
		t.Fatalf("NewDfile: %v", err)
	}

	e := NewExecutor(root, config.QuarantineDirName, false)
	if err := e.Move(rec); err == nil {
		t.Error("moving a vanished file should report an error")
	}
}
