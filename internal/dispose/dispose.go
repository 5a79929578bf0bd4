// Package dispose performs the filesystem side of a review decision:
// moving a record into the quarantine directory or deleting it. Every
// operation honors the dry-run flag, and a failure on one record is
// reported for that record only.
package dispose

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dupescan/internal/dfs"
	"dupescan/internal/dlog"
)

// Executor binds the disposition functions to one run's root,
// quarantine location, and dry-run flag. It satisfies review.Disposer.
type Executor struct {
	Root           string
	QuarantineRoot string
	DryRun         bool
}

// NewExecutor builds an Executor with the quarantine directory under
// root. The directory itself is created lazily on the first move.
func NewExecutor(root, quarantineName string, dryRun bool) *Executor {
	return &Executor{
		Root:           root,
		QuarantineRoot: filepath.Join(root, quarantineName),
		DryRun:         dryRun,
	}
}

func (e *Executor) Move(rec *dfs.Dfile) error {
	return Move(rec, e.Root, e.QuarantineRoot, e.DryRun)
}

func (e *Executor) Delete(rec *dfs.Dfile) error {
	return Delete(rec, e.DryRun)
}

// Move relocates the record under quarantineRoot, preserving its path
// relative to root. A record outside root falls back to its bare
// filename. In dry-run mode nothing is touched and the call succeeds.
func Move(rec *dfs.Dfile, root, quarantineRoot string, dryRun bool) error {
	rel, err := filepath.Rel(root, rec.FileName())
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = rec.BaseName()
	}
	dest := filepath.Join(quarantineRoot, rel)

	if dryRun {
		dlog.Logger.Infof("[dry-run] would move %s -> %s", rec.FileName(), dest)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("create quarantine dir for %s: %w", rec.FileName(), err)
	}

	if err := stageAndRename(rec.FileName(), dest); err != nil {
		return fmt.Errorf("move %s: %w", rec.FileName(), err)
	}

	dlog.Logger.Infof("Moved %s -> %s", rec.FileName(), dest)
	return nil
}

// Delete removes the record's file. Deletions are permanent; there is
// no trash semantics. In dry-run mode nothing is touched.
func Delete(rec *dfs.Dfile, dryRun bool) error {
	if dryRun {
		dlog.Logger.Infof("[dry-run] would delete %s", rec.FileName())
		return nil
	}

	if err := os.Remove(rec.FileName()); err != nil {
		return fmt.Errorf("delete %s: %w", rec.FileName(), err)
	}

	dlog.Logger.Infof("Deleted %s", rec.FileName())
	return nil
}

// stageAndRename moves src to dest in two phases: first into a unique
// in-flight name next to dest, then a rename to the final name, which
// is given a numeric suffix if dest is already taken. A failure partway
// leaves an in-flight file behind but never clobbers an existing one.
func stageAndRename(src, dest string) error {
	staged := fmt.Sprintf("%s.inflight-%d", dest, os.Getpid())

	if err := os.Rename(src, staged); err != nil {
		// Rename across devices fails; fall back to a copy.
		if err := copyFile(src, staged); err != nil {
			return err
		}
		if err := os.Remove(src); err != nil {
			return err
		}
	}

	return os.Rename(staged, uniqueDest(dest))
}

// uniqueDest returns dest if free, otherwise the first "name (N).ext"
// variant that is.
func uniqueDest(dest string) string {
	if _, err := os.Lstat(dest); os.IsNotExist(err) {
		return dest
	}

	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func copyFile(src, dest string) error {
	// #nosec G304
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	// #nosec G304
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
