// dwalk is a parallel directory walker. It yields metadata-only Dfile
// records for every regular file under the roots, applying the
// exclusion policy; hashing happens in a later phase.
package dwalk

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"dupescan/internal/config"
	"dupescan/internal/dfs"
	"dupescan/internal/dlog"

	"golang.org/x/sync/semaphore"
)

// DWalk is our primary object for traversing the filesystem in a
// parallel manner.
type DWalk struct {
	rootDirs []string
	wg       sync.WaitGroup
	cfg      *config.Config

	// Channel used to communicate with the collecting goroutine.
	dFiles chan<- *dfs.Dfile
	sem    *semaphore.Weighted

	// Hardlink identities already emitted, so several links to one
	// inode count as a single file.
	seenMu sync.Mutex
	seen   map[fileIdentity]bool
}

// NewDWalker returns a new DWalk over rootDirs that sends records on
// dFiles and closes the channel when the walk finishes.
func NewDWalker(rootDirs []string, dFiles chan<- *dfs.Dfile, cfg *config.Config) *DWalk {
	walker := &DWalk{
		rootDirs: rootDirs,
		dFiles:   dFiles,
		cfg:      cfg,
		seen:     make(map[fileIdentity]bool),
	}

	concurrency := optimalConcurrency()
	dlog.Logger.Debugf("Directory walker concurrency: %d (based on %d CPUs)", concurrency, runtime.NumCPU())
	walker.sem = semaphore.NewWeighted(int64(concurrency))
	return walker
}

// Run kicks off the filesystem crawl. The dFiles channel is closed once
// every subtree has been visited.
func (d *DWalk) Run(ctx context.Context) {
	for _, root := range d.rootDirs {
		d.wg.Add(1)
		go d.walkDir(ctx, root)
	}

	go func() {
		d.wg.Wait()
		close(d.dFiles)
	}()
}

// cancelled polls, checking for cancellation.
func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// walkDir recursively walks directories, sending qualifying files to
// the collector. Entry-level failures are logged and skipped; they
// never abort the scan.
func (d *DWalk) walkDir(ctx context.Context, dir string) {
	defer d.wg.Done()

	if cancelled(ctx) {
		return
	}

	for _, entry := range d.dirEntries(ctx, dir) {
		name := entry.Name()
		fullPath := filepath.Join(dir, name)

		if d.cfg.SkipHidden && strings.HasPrefix(name, ".") {
			dlog.Logger.Debugf("Skipping hidden entry: %s", fullPath)
			continue
		}

		if entry.IsDir() {
			if d.cfg.ExcludedDirs[name] {
				dlog.Logger.Debugf("Skipping excluded directory: %s", fullPath)
				continue
			}
			d.wg.Add(1)
			go d.walkDir(ctx, fullPath)
			continue
		}

		if d.cfg.ExcludedFiles[name] {
			dlog.Logger.Debugf("Skipping excluded file: %s", fullPath)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			dlog.Logger.Debugf("Error getting file info for %s: %v", fullPath, err)
			continue
		}

		// Skip non-regular files (symlinks, sockets, pipes, device
		// files). Symlinked directories are never descended into, so
		// link cycles cannot occur.
		if !info.Mode().IsRegular() {
			dlog.Logger.Debugf("Skipping non-regular file: %s (mode: %s)", fullPath, info.Mode())
			continue
		}

		fileSize := uint64(max(info.Size(), 0)) // #nosec G115
		if d.cfg.MinFileSize > 0 && fileSize < d.cfg.MinFileSize {
			dlog.Logger.Debugf("File %s smaller than minimum. Skipping", fullPath)
			continue
		}
		if d.cfg.MaxFileSize > 0 && fileSize >= d.cfg.MaxFileSize {
			dlog.Logger.Infof("File %s larger than maximum. Skipping", fullPath)
			continue
		}

		if id, ok := getFileIdentity(info); ok && !d.claimIdentity(id) {
			dlog.Logger.Debugf("Skipping hardlink to already-seen inode: %s", fullPath)
			continue
		}

		dFileEntry, err := dfs.NewDfile(fullPath, info.Size(), info.ModTime())
		if err != nil {
			dlog.Logger.Debugf("Could not create record for %s: %v", fullPath, err)
			continue
		}

		select {
		case d.dFiles <- dFileEntry:
		case <-ctx.Done():
			return
		}
	}
}

// claimIdentity records a dev/inode pair; false means some other link
// to the same file was already emitted.
func (d *DWalk) claimIdentity(id fileIdentity) bool {
	d.seenMu.Lock()
	defer d.seenMu.Unlock()
	if d.seen[id] {
		return false
	}
	d.seen[id] = true
	return true
}

// dirEntries returns the contents of dir. The semaphore limits how many
// directories are read at once, preventing fd exhaustion.
func (d *DWalk) dirEntries(ctx context.Context, dir string) []os.DirEntry {
	if cancelled(ctx) {
		return nil
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer d.sem.Release(1)

	entries, err := os.ReadDir(dir)
	if err != nil {
		dlog.Logger.Errorf("Directory read error: %v", err)
		return nil
	}

	return entries
}

func optimalConcurrency() int {
	procs := runtime.GOMAXPROCS(0)
	if procs < 1 {
		procs = runtime.NumCPU()
	}
	return min(procs*4, 128)
}
