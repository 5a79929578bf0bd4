// Package dfs defines the Dfile record: one file under the scanned
// root, described by the few properties we need to detect duplicates.
package dfs

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"math/bits"
	"path/filepath"
	"time"

	"lukechampine.com/blake3"
)

// DigestSize is the size in bytes of a content fingerprint. Both
// supported algorithms produce 256-bit sums.
const DigestSize = 32

// Digest is a content fingerprint: equal digests imply (with
// overwhelming probability) byte-identical content.
type Digest [DigestSize]byte

// String returns the digest as a hex string for display.
func (d Digest) String() string { return fmt.Sprintf("%x", d[:]) }

// HashAlgorithm selects which digest is used when hashing file contents.
type HashAlgorithm string

const (
	HashSHA256 HashAlgorithm = "sha256"
	HashBLAKE3 HashAlgorithm = "blake3"
)

// New returns a fresh hash.Hash for the algorithm. Unknown values fall
// back to SHA-256.
func (a HashAlgorithm) New() hash.Hash {
	if a == HashBLAKE3 {
		return blake3.New(DigestSize, nil)
	}
	return sha256.New()
}

// PHash is a 64-bit perceptual fingerprint of an image. Small Hamming
// distance between two values implies visual similarity.
type PHash uint64

// Distance returns the Hamming distance between two perceptual
// fingerprints.
func (p PHash) Distance(other PHash) int {
	return bits.OnesCount64(uint64(p) ^ uint64(other))
}

// Dfile describes a single regular file. The scanner creates it with
// metadata only; the hasher attaches fingerprints exactly once; nothing
// mutates it after that.
type Dfile struct {
	fileName string
	fileSize int64
	modTime  time.Time

	contentHash    Digest
	hasContentHash bool

	perceptualHash    PHash
	hasPerceptualHash bool
}

// NewDfile creates a metadata-only record. The path is made absolute so
// dispositions and the report always refer to the same name.
func NewDfile(fName string, fSize int64, modTime time.Time) (*Dfile, error) {
	if fName == "" {
		return nil, errors.New("file name needs to be specified")
	}

	fullFileName, err := filepath.Abs(fName)
	if err != nil {
		return nil, fmt.Errorf("couldn't get absolute filename for %s: %w", fName, err)
	}

	return &Dfile{
		fileName: fullFileName,
		fileSize: fSize,
		modTime:  modTime,
	}, nil
}

// FileName returns the absolute name of the file described by the record.
func (d *Dfile) FileName() string { return d.fileName }

// BaseName returns the base filename only instead of the full pathname.
func (d *Dfile) BaseName() string { return filepath.Base(d.fileName) }

// FileSize returns the size captured at scan time.
func (d *Dfile) FileSize() int64 { return d.fileSize }

// ModTime returns the last-modified timestamp captured at scan time.
func (d *Dfile) ModTime() time.Time { return d.modTime }

// SetContentHash attaches the content fingerprint. Fingerprints are
// immutable once set; a second call is ignored.
func (d *Dfile) SetContentHash(sum Digest) {
	if d.hasContentHash {
		return
	}
	d.contentHash = sum
	d.hasContentHash = true
}

// ContentHash returns the content fingerprint and whether one was ever
// attached. Records without one never join exact grouping.
func (d *Dfile) ContentHash() (Digest, bool) {
	return d.contentHash, d.hasContentHash
}

// SetPerceptualHash attaches the perceptual fingerprint. A second call
// is ignored.
func (d *Dfile) SetPerceptualHash(p PHash) {
	if d.hasPerceptualHash {
		return
	}
	d.perceptualHash = p
	d.hasPerceptualHash = true
}

// PerceptualHash returns the perceptual fingerprint and whether one was
// attached. Records without one never join similarity clustering.
func (d *Dfile) PerceptualHash() (PHash, bool) {
	return d.perceptualHash, d.hasPerceptualHash
}
