package dgroup

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"dupescan/internal/dfs"
)

func exportFixture(t *testing.T) []*Group {
	t.Helper()
	a := record(t, "/data/a.txt", digestOf(1), nil)
	b := record(t, "/data/b.txt", digestOf(1), nil)
	x := record(t, "/pics/x.png", nil, phashOf(0))
	y := record(t, "/pics/y.png", nil, phashOf(0b11))
	return []*Group{
		NewGroup(KindExact, []*dfs.Dfile{a, b}, 0),
		NewGroup(KindSimilar, []*dfs.Dfile{x, y}, 5),
	}
}

func TestWriteJSON(t *testing.T) {
	groups := exportFixture(t)
	path := filepath.Join(t.TempDir(), "out.json")

	if err := WriteJSON(path, groups); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var summary struct {
		GroupCount int `json:"group_count"`
		Groups     []struct {
			Kind      string `json:"kind"`
			Threshold int    `json:"threshold"`
			Count     int    `json:"count"`
			Files     []struct {
				Path string `json:"path"`
				Size int64  `json:"size"`
			} `json:"files"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}

	if summary.GroupCount != 2 || len(summary.Groups) != 2 {
		t.Fatalf("group count = %d/%d; want 2", summary.GroupCount, len(summary.Groups))
	}
	if summary.Groups[0].Kind != string(KindExact) || summary.Groups[0].Threshold != 0 {
		t.Errorf("exact group exported wrong: %+v", summary.Groups[0])
	}
	if summary.Groups[1].Kind != string(KindSimilar) || summary.Groups[1].Threshold != 5 {
		t.Errorf("similar group should carry its threshold: %+v", summary.Groups[1])
	}
	if summary.Groups[0].Files[0].Path != "/data/a.txt" || summary.Groups[0].Files[0].Size != 100 {
		t.Errorf("member exported wrong: %+v", summary.Groups[0].Files[0])
	}
}

func TestWriteCSV(t *testing.T) {
	groups := exportFixture(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := WriteCSV(path, groups); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	// Header plus one row per member.
	if len(rows) != 5 {
		t.Fatalf("got %d rows; want 5", len(rows))
	}
	if rows[0][0] != "group" || rows[0][2] != "path" {
		t.Errorf("header wrong: %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != string(KindExact) || rows[1][2] != "/data/a.txt" {
		t.Errorf("first member row wrong: %v", rows[1])
	}
	if rows[3][0] != "2" || rows[3][1] != string(KindSimilar) {
		t.Errorf("group numbering wrong: %v", rows[3])
	}
}

func TestExportRejectsBadPaths(t *testing.T) {
	groups := exportFixture(t)

	if err := WriteJSON("", groups); err == nil {
		t.Error("empty path should be rejected")
	}
	if err := WriteCSV(t.TempDir(), groups); err == nil {
		t.Error("directory path should be rejected")
	}
}
