package dutil

import "testing"

func TestUsageForPath(t *testing.T) {
	usage, err := UsageForPath(t.TempDir())
	if err != nil {
		t.Skipf("filesystem usage unavailable: %v", err)
	}

	if usage.Total == 0 {
		t.Error("total filesystem size should be non-zero")
	}
	if usage.Used > usage.Total {
		t.Errorf("used %d exceeds total %d", usage.Used, usage.Total)
	}
}

func TestUsageForMissingPath(t *testing.T) {
	if _, err := UsageForPath("/definitely/not/a/real/path"); err == nil {
		t.Error("expected an error for a nonexistent path")
	}
}
