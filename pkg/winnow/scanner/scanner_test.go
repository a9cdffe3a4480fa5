package scanner

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
	"github.com/jamesainslie/winnow/pkg/winnow/types"
)

// writeFileAt creates a file with the given content and modification time,
// creating parent directories as needed.
func writeFileAt(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func mustCriteria(t *testing.T, root string, mode criteria.WindowMode, start, end time.Time,
	include, exclude []string, skip bool) *criteria.Criteria {
	t.Helper()
	c, err := criteria.New(root, criteria.ModTime, mode, start, end, include, exclude, skip, criteria.Quarantine)
	if err != nil {
		t.Fatalf("criteria.New: %v", err)
	}
	return c
}

func scanOnce(t *testing.T, c *criteria.Criteria) *types.ScanResult {
	t.Helper()
	result, err := New(Options{Criteria: c}).Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return result
}

// TestScanEndToEnd covers the canonical scenario: one file per disposition.
func TestScanEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, filepath.Join(root, "a.txt"), "aaa", date(2024, 1, 1).Add(time.Hour))
	writeFileAt(t, filepath.Join(root, "b.log"), "bb", date(2024, 6, 15))
	writeFileAt(t, filepath.Join(root, "_trash_old", "c.txt"), "c", date(2023, 1, 1))

	// Before 2024-01-01: a.txt too new, b.log excluded by pattern,
	// c.txt inside a quarantine dir.
	c := mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{},
		nil, []string{"*.log"}, true)
	result := scanOnce(t, c)

	if len(result.Hits) != 0 {
		t.Fatalf("expected no hits, got %d: %+v", len(result.Hits), result.Hits)
	}

	// Moving the window forward picks up exactly a.txt.
	c = mustCriteria(t, root, criteria.Before, date(2024, 6, 1), time.Time{},
		nil, []string{"*.log"}, true)
	result = scanOnce(t, c)

	if len(result.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(result.Hits))
	}
	if filepath.Base(result.Hits[0].Path) != "a.txt" {
		t.Errorf("expected a.txt, got %s", result.Hits[0].Path)
	}
	if result.Hits[0].Size != 3 {
		t.Errorf("expected size 3, got %d", result.Hits[0].Size)
	}
	if result.BytesMatched != 3 {
		t.Errorf("expected 3 bytes matched, got %d", result.BytesMatched)
	}
}

func TestScanSkipQuarantineToggle(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, filepath.Join(root, "_trash_20240101_000000", "old.txt"), "x", date(2023, 1, 1))
	// A plain file at top level with the quarantine prefix is excluded too.
	writeFileAt(t, filepath.Join(root, "_trash_leftover.txt"), "x", date(2023, 1, 1))

	with := scanOnce(t, mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{}, nil, nil, true))
	if len(with.Hits) != 0 {
		t.Errorf("skip enabled: expected 0 hits, got %d: %+v", len(with.Hits), with.Hits)
	}

	without := scanOnce(t, mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{}, nil, nil, false))
	if len(without.Hits) != 2 {
		t.Errorf("skip disabled: expected 2 hits, got %d", len(without.Hits))
	}
}

func TestScanHitsSortedAscending(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, filepath.Join(root, "newest.txt"), "1", date(2023, 3, 1))
	writeFileAt(t, filepath.Join(root, "oldest.txt"), "1", date(2023, 1, 1))
	writeFileAt(t, filepath.Join(root, "middle.txt"), "1", date(2023, 2, 1))

	result := scanOnce(t, mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{}, nil, nil, true))

	if len(result.Hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(result.Hits))
	}
	for i := 1; i < len(result.Hits); i++ {
		if result.Hits[i].When.Before(result.Hits[i-1].When) {
			t.Errorf("hits out of order at %d: %s before %s",
				i, result.Hits[i].When, result.Hits[i-1].When)
		}
	}
	if filepath.Base(result.Hits[0].Path) != "oldest.txt" {
		t.Errorf("expected oldest.txt first, got %s", result.Hits[0].Path)
	}
}

// TestScanIdempotent verifies two scans of an unchanged tree yield identical
// hit lists, including order, even with equal timestamps.
func TestScanIdempotent(t *testing.T) {
	root := t.TempDir()
	same := date(2023, 5, 5)
	for _, name := range []string{"c.dat", "a.dat", "b.dat", "sub/z.dat", "sub/a.dat"} {
		writeFileAt(t, filepath.Join(root, name), "x", same)
	}

	c := mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{}, nil, nil, true)
	first := scanOnce(t, c)
	second := scanOnce(t, mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{}, nil, nil, true))

	if len(first.Hits) != len(second.Hits) {
		t.Fatalf("hit counts differ: %d vs %d", len(first.Hits), len(second.Hits))
	}
	for i := range first.Hits {
		if first.Hits[i].Path != second.Hits[i].Path {
			t.Errorf("order differs at %d: %s vs %s", i, first.Hits[i].Path, second.Hits[i].Path)
		}
	}
	if first.Signature != second.Signature {
		t.Error("identical criteria must yield identical result signatures")
	}
}

func TestScanCountsAllRegularFiles(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, filepath.Join(root, "hit.txt"), "x", date(2023, 1, 1))
	writeFileAt(t, filepath.Join(root, "miss.txt"), "x", date(2025, 1, 1))
	writeFileAt(t, filepath.Join(root, "sub", "miss2.txt"), "x", date(2025, 1, 1))

	result := scanOnce(t, mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{}, nil, nil, true))

	if result.FilesVisited != 3 {
		t.Errorf("expected 3 files visited, got %d", result.FilesVisited)
	}
	if len(result.Hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(result.Hits))
	}
}

func TestScanMissingRootFails(t *testing.T) {
	root := t.TempDir()
	c := mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{}, nil, nil, true)

	// The root vanishes between criteria validation and the scan.
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}

	if _, err := New(Options{Criteria: c}).Scan(); err == nil {
		t.Error("expected a fatal error for a missing root")
	}
}

// TestScanUnreadableRootFails covers a root whose contents cannot be listed:
// the stat pre-check passes but the walk must still fail, with no partial
// result.
func TestScanUnreadableRootFails(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, filepath.Join(root, "old.txt"), "x", date(2023, 1, 1))
	c := mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{}, nil, nil, true)

	// Execute-only: stat succeeds, reading the directory does not.
	if err := os.Chmod(root, 0o111); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	result, err := New(Options{Criteria: c}).Scan()
	if err == nil {
		t.Fatalf("expected a fatal error for an unreadable root, got result %+v", result)
	}
}

func TestScanProgressCadence(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 25; i++ {
		writeFileAt(t, filepath.Join(root, "f", string(rune('a'+i))+".txt"), "x", date(2023, 1, 1))
	}

	var calls atomic.Int64
	s := New(Options{
		Criteria:      mustCriteria(t, root, criteria.Before, date(2024, 1, 1), time.Time{}, nil, nil, true),
		ProgressEvery: 10,
		OnProgress: func(types.ScanProgress) {
			calls.Add(1)
		},
	})
	if _, err := s.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Start + end reports plus two cadence reports (at 10 and 20 of 25).
	if got := calls.Load(); got != 4 {
		t.Errorf("expected 4 progress reports, got %d", got)
	}
}

func TestScanRequiresCriteria(t *testing.T) {
	if _, err := New(Options{}).Scan(); err != ErrNoCriteria {
		t.Errorf("expected ErrNoCriteria, got %v", err)
	}
}
