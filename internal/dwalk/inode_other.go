//go:build !unix

package dwalk

import "os"

// fileIdentity is a no-op placeholder on platforms without usable
// dev/inode pairs; hardlinks are then treated as distinct files.
type fileIdentity struct{}

func getFileIdentity(info os.FileInfo) (fileIdentity, bool) {
	return fileIdentity{}, false
}
