// Package dutil answers small filesystem questions that are not about
// individual records, currently just volume usage for the summary.
package dutil

import (
	"fmt"

	sigar "github.com/cloudfoundry/gosigar"
)

// DiskUsage holds usage figures, in bytes, for the filesystem holding a
// path.
type DiskUsage struct {
	Total uint64
	Used  uint64
	Avail uint64
}

// UsageForPath reports usage of the filesystem containing path.
func UsageForPath(path string) (DiskUsage, error) {
	usage := sigar.FileSystemUsage{}
	if err := usage.Get(path); err != nil {
		return DiskUsage{}, fmt.Errorf("filesystem usage for %s: %w", path, err)
	}

	// gosigar reports in KiB.
	return DiskUsage{
		Total: usage.Total * 1024,
		Used:  usage.Used * 1024,
		Avail: usage.Avail * 1024,
	}, nil
}
