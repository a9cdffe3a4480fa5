// Package types provides core data types for the winnow cleanup engine.
// It includes hits, scan results, execution outcomes, and progress snapshots,
// along with utility functions for formatting file sizes.
package types

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
)

// MaxFailureSamples bounds the number of per-file failures retained in an
// ExecutionOutcome. Counters keep counting past the cap.
const MaxFailureSamples = 20

// Hit is a single file matched by a scan.
// Hits are immutable once produced and ordered ascending by When,
// tie-broken by Path.
type Hit struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// When is the file timestamp the criteria was evaluated against
	// (modification time or status-change time).
	When time.Time `json:"when"`

	// Size is the file size in bytes at scan time.
	Size int64 `json:"size"`
}

// HumanSize returns the hit's size formatted as a human-readable string.
func (h *Hit) HumanSize() string {
	return FormatSize(h.Size)
}

// ScanResult contains the aggregated results of a scan operation.
type ScanResult struct {
	// Hits contains all files matching the criteria, ascending by timestamp.
	Hits []Hit `json:"hits"`

	// FilesVisited is the total number of regular files examined.
	FilesVisited int64 `json:"files_visited"`

	// BytesMatched is the sum of all hit sizes in bytes.
	BytesMatched int64 `json:"bytes_matched"`

	// Elapsed is the total time taken to complete the scan.
	Elapsed time.Duration `json:"elapsed"`

	// Signature identifies the criteria (including the planned action)
	// that produced this result. An execute request carrying a different
	// signature must be refused.
	Signature string `json:"signature"`
}

// ScanProgress reports real-time scan progress.
type ScanProgress struct {
	// FilesVisited is the number of regular files examined so far.
	FilesVisited int64 `json:"files_visited"`

	// Matched is the number of hits accumulated so far.
	Matched int64 `json:"matched"`

	// BytesMatched is the total bytes of all hits so far.
	BytesMatched int64 `json:"bytes_matched"`

	// CurrentPath is the path most recently visited.
	CurrentPath string `json:"current_path"`
}

// ExecProgress reports real-time execution progress.
type ExecProgress struct {
	// Done is the number of hits processed so far, successes and
	// failures both included.
	Done int64 `json:"done"`

	// Total is the number of hits in the batch.
	Total int64 `json:"total"`
}

// Failure records one file the executor could not process.
type Failure struct {
	// Path is the file the operation failed on.
	Path string `json:"path"`

	// Reason is the underlying error message.
	Reason string `json:"reason"`
}

// ExecutionOutcome summarizes a completed execute run.
// Succeeded+Failed always equals the number of hits passed in;
// one bad file never aborts the batch.
type ExecutionOutcome struct {
	// Succeeded is the number of files moved or deleted.
	Succeeded int64 `json:"succeeded"`

	// Failed is the number of files that could not be processed.
	Failed int64 `json:"failed"`

	// QuarantineRoot is the directory hits were moved into.
	// Empty for permanent deletes.
	QuarantineRoot string `json:"quarantine_root,omitempty"`

	// Failures samples up to MaxFailureSamples per-file failures,
	// in batch order.
	Failures []Failure `json:"failures,omitempty"`
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units (KiB, MiB, GiB).
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
