package dgroup

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type exportFile struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

type exportGroup struct {
	Kind      string       `json:"kind"`
	Threshold int          `json:"threshold,omitempty"`
	Count     int          `json:"count"`
	Files     []exportFile `json:"files"`
}

type exportSummary struct {
	GroupCount int           `json:"group_count"`
	Groups     []exportGroup `json:"groups"`
}

// WriteJSON writes all duplicate groups to a JSON file.
func WriteJSON(path string, groups []*Group) error {
	data, err := json.MarshalIndent(collectExportSummary(groups), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	file, err := outputFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write JSON file %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes all duplicate groups to a CSV file, one row per member.
func WriteCSV(path string, groups []*Group) error {
	summary := collectExportSummary(groups)
	file, err := outputFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"group", "kind", "path", "size_bytes", "modified"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for i, group := range summary.Groups {
		num := strconv.Itoa(i + 1)
		for _, f := range group.Files {
			row := []string{num, group.Kind, f.Path, strconv.FormatInt(f.Size, 10), f.Modified}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV writer: %w", err)
	}
	return nil
}

func collectExportSummary(groups []*Group) exportSummary {
	exportGroups := make([]exportGroup, 0, len(groups))
	for _, g := range groups {
		item := exportGroup{
			Kind:  string(g.Kind()),
			Count: g.Len(),
			Files: make([]exportFile, 0, g.Len()),
		}
		if g.Kind() == KindSimilar {
			item.Threshold = g.Threshold()
		}
		for _, f := range g.Files() {
			item.Files = append(item.Files, exportFile{
				Path:     f.FileName(),
				Size:     f.FileSize(),
				Modified: f.ModTime().Format(time.RFC3339),
			})
		}
		exportGroups = append(exportGroups, item)
	}

	return exportSummary{GroupCount: len(exportGroups), Groups: exportGroups}
}

func outputFile(path string) (*os.File, error) {
	if path == "" {
		return nil, errors.New("output path is empty")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve output path %s: %w", path, err)
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("output path %s is a directory", abs)
	}

	// #nosec G304
	return os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
}
