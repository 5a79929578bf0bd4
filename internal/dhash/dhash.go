// Package dhash attaches fingerprints to scanned records: a chunked
// cryptographic content digest for every file, and a perceptual hash
// for files that decode as images. Which of the two run is the caller's
// policy; either failing excludes the record from that grouping type
// and nothing else.
package dhash

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dupescan/internal/config"
	"dupescan/internal/dfs"
	"dupescan/internal/dlog"

	"github.com/corona10/goimagehash"
	"golang.org/x/sync/semaphore"

	// Decoders for the recognized image extensions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// openFileLimit caps concurrently open file descriptors during the
// hashing phase.
const openFileLimit = 256

// We hash files in quick succession; a pool of 1 MiB buffers keeps the
// chunked reads off the GC's back while bounding memory independent of
// file size.
var bufPool = sync.Pool{
	New: func() any {
		var arr [1 << 20]byte
		return &arr
	},
}

// Hasher computes fingerprints for records according to one policy.
type Hasher struct {
	algo       dfs.HashAlgorithm
	content    bool
	perceptual bool
	imageExts  map[string]bool

	sem *semaphore.Weighted
}

// New builds a Hasher from the run's configuration.
func New(cfg *config.Config) *Hasher {
	return &Hasher{
		algo:       cfg.HashAlgorithm,
		content:    cfg.ContentHash,
		perceptual: cfg.PerceptualHash,
		imageExts:  cfg.ImageExts,
		sem:        semaphore.NewWeighted(openFileLimit),
	}
}

// HashAll fingerprints every record in place. Per-file failures are
// logged and leave the relevant fingerprint unset; HashAll itself only
// stops early on context cancellation.
func (h *Hasher) HashAll(ctx context.Context, files []*dfs.Dfile) {
	var wg sync.WaitGroup
	for _, f := range files {
		if err := h.sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(f *dfs.Dfile) {
			defer wg.Done()
			defer h.sem.Release(1)
			h.HashFile(f)
		}(f)
	}
	wg.Wait()
}

// HashFile computes the fingerprints the policy asks for on a single
// record. The two computations are independent.
func (h *Hasher) HashFile(f *dfs.Dfile) {
	if h.content {
		if sum, err := h.contentDigest(f.FileName()); err != nil {
			dlog.Logger.Warnf("Skipping content hash for %s: %v", f.FileName(), err)
		} else {
			f.SetContentHash(sum)
		}
	}

	if h.perceptual && h.isImage(f.FileName()) {
		if p, err := perceptualHash(f.FileName()); err != nil {
			dlog.Logger.Debugf("No perceptual hash for %s: %v", f.FileName(), err)
		} else {
			f.SetPerceptualHash(p)
		}
	}
}

func (h *Hasher) isImage(name string) bool {
	return h.imageExts[strings.ToLower(filepath.Ext(name))]
}

// contentDigest streams the file through the configured digest in
// fixed-size chunks, so arbitrarily large files hash in bounded memory.
func (h *Hasher) contentDigest(name string) (dfs.Digest, error) {
	var sum dfs.Digest

	bufPtr := bufPool.Get().(*[1 << 20]byte)
	defer bufPool.Put(bufPtr)

	// #nosec G304
	f, err := os.Open(name)
	if err != nil {
		return sum, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			dlog.Logger.Debugf("Error closing %s: %v", name, err)
		}
	}()

	digest := h.algo.New()
	if _, err := io.CopyBuffer(digest, f, bufPtr[:]); err != nil {
		return sum, err
	}

	copy(sum[:], digest.Sum(nil))
	return sum, nil
}

// perceptualHash decodes the image and derives its 64-bit pHash.
// Corrupt, truncated, or unsupported files simply return an error; the
// record then never participates in similarity clustering.
func perceptualHash(name string) (dfs.PHash, error) {
	// #nosec G304
	f, err := os.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, err
	}

	ih, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, err
	}
	return dfs.PHash(ih.GetHash()), nil
}
