package dhash

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dupescan/internal/config"
	"dupescan/internal/dfs"
)

// sha256 of "hello world\n"
const helloDigest = "a948904f2f0f479b8f8197694b30184b0d2ed1c1cd2a1ec0fb85d299a192a447"

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

func writeTestPNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func TestContentHashKnownValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	if err := os.WriteFile(path, []byte("hello world\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	h := New(config.Default())
	rec := newRecord(t, path)
	h.HashFile(rec)

	sum, ok := rec.ContentHash()
	if !ok {
		t.Fatal("content fingerprint not set")
	}
	if sum.String() != helloDigest {
		t.Errorf("digest = %s; want %s", sum, helloDigest)
	}
}

func TestPolicyDisablesHashes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pic.png")
	writeTestPNG(t, path, color.White)

	cfg := config.Default()
	cfg.ContentHash = false
	cfg.PerceptualHash = false

	rec := newRecord(t, path)
	New(cfg).HashFile(rec)

	if _, ok := rec.ContentHash(); ok {
		t.Error("content fingerprint set despite content-hashing disabled")
	}
	if _, ok := rec.PerceptualHash(); ok {
		t.Error("perceptual fingerprint set despite perceptual-hashing disabled")
	}
}

func TestPerceptualHashForImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pic.png")
	writeTestPNG(t, path, color.White)

	rec := newRecord(t, path)
	New(config.Default()).HashFile(rec)

	if _, ok := rec.ContentHash(); !ok {
		t.Error("content fingerprint should be set for images too")
	}
	if _, ok := rec.PerceptualHash(); !ok {
		t.Error("perceptual fingerprint not set for a decodable image")
	}
}

// A corrupt image must lose only its perceptual fingerprint; the
// content fingerprint and the run itself are unaffected.
func TestCorruptImageNonFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(path, []byte("not actually a jpeg"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	rec := newRecord(t, path)
	New(config.Default()).HashFile(rec)

	if _, ok := rec.ContentHash(); !ok {
		t.Error("content fingerprint should survive an undecodable image")
	}
	if _, ok := rec.PerceptualHash(); ok {
		t.Error("perceptual fingerprint set for garbage data")
	}
}

func TestUnreadableFileNonFatal(t *testing.T) {
	rec, err := dfs.NewDfile(filepath.Join(t.TempDir(), "vanished.txt"), 10, time.Now())
	if err != nil {
		t.Fatalf("NewDfile: %v", err)
	}

	New(config.Default()).HashFile(rec)

	if _, ok := rec.ContentHash(); ok {
		t.Error("content fingerprint set for a file that cannot be opened")
	}
}

// Re-hashing an unchanged tree must reproduce the same fingerprints.
func TestHashAllIdempotent(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.txt")
	img := filepath.Join(dir, "b.png")
	if err := os.WriteFile(txt, []byte("stable content"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	writeTestPNG(t, img, color.Black)

	h := New(config.Default())

	first := []*dfs.Dfile{newRecord(t, txt), newRecord(t, img)}
	second := []*dfs.Dfile{newRecord(t, txt), newRecord(t, img)}
	h.HashAll(context.Background(), first)
	h.HashAll(context.Background(), second)

	for i := range first {
		d1, ok1 := first[i].ContentHash()
		d2, ok2 := second[i].ContentHash()
		if !ok1 || !ok2 || d1 != d2 {
			t.Errorf("content fingerprint for %s not reproducible", first[i].BaseName())
		}

		p1, ok1 := first[i].PerceptualHash()
		p2, ok2 := second[i].PerceptualHash()
		if ok1 != ok2 || p1 != p2 {
			t.Errorf("perceptual fingerprint for %s not reproducible", first[i].BaseName())
		}
	}
}

func TestBlake3Content(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("blake3 me"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg := config.Default()
	cfg.HashAlgorithm = dfs.HashBLAKE3

	sha := newRecord(t, path)
	New(config.Default()).HashFile(sha)
	b3 := newRecord(t, path)
	New(cfg).HashFile(b3)

	shaSum, _ := sha.ContentHash()
	b3Sum, ok := b3.ContentHash()
	if !ok {
		t.Fatal("blake3 fingerprint not set")
	}
	if shaSum == b3Sum {
		t.Error("sha256 and blake3 digests should differ for the same input")
	}
}
