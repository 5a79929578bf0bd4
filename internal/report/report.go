// Package report renders the duplicate group list as a human-readable
// text report. The report is a pure function of the group list and is
// written once, before review begins.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dupescan/internal/config"
	"dupescan/internal/dgroup"
	"dupescan/pkg/utils"
)

// Write renders the report for groups to w.
func Write(w io.Writer, groups []*dgroup.Group, now time.Time) error {
	var exact, similar int
	for _, g := range groups {
		if g.Kind() == dgroup.KindExact {
			exact++
		} else {
			similar++
		}
	}

	fmt.Fprintf(w, "Duplicate Detection Report\n")
	fmt.Fprintf(w, "Generated: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 60))

	fmt.Fprintf(w, "Total duplicate groups found: %d\n", len(groups))
	fmt.Fprintf(w, "  - Exact duplicates: %d\n", exact)
	fmt.Fprintf(w, "  - Similar images: %d\n\n", similar)

	for i, g := range groups {
		fmt.Fprintf(w, "=== Group %d (%s) ===\n", i+1, Label(g.Kind()))
		for j, f := range g.Files() {
			fmt.Fprintf(w, "  [%d] %s\n", j+1, f.FileName())
			fmt.Fprintf(w, "      Size: %s, Modified: %s\n",
				utils.DisplaySize(uint64(max(f.FileSize(), 0))), // #nosec G115
				f.ModTime().Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// WriteFile writes the report into root under the fixed report name and
// returns the path written.
func WriteFile(root string, groups []*dgroup.Group) (string, error) {
	path := filepath.Join(root, config.ReportFileName)

	// #nosec G304
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, groups, time.Now()); err != nil {
		return "", err
	}
	return path, nil
}

// Label is the display name for a group kind, shared with the review
// front ends.
func Label(kind dgroup.Kind) string {
	if kind == dgroup.KindExact {
		return "Exact Match"
	}
	return "Similar Images"
}
