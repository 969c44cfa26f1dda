package imagescan

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSession(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return path
}

// mustScan runs an enumerate scan with default options and fails the
// test on error.
func mustScan(t *testing.T, path string, dialect Dialect) []LocatedSpan {
	t.Helper()
	spans, err := Scan(path, dialect, ScanOptions{})
	if err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return spans
}
