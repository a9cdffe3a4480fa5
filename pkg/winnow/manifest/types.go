// Package manifest provides an operation log for winnow runs. Every scan
// and execute is recorded as a JSON entry so partial failures and past
// batches stay auditable after the fact.
package manifest

import "time"

// OperationType represents the type of operation.
type OperationType string

const (
	// OpScan records a scan preview.
	OpScan OperationType = "scan"
	// OpQuarantine records a quarantine-move run.
	OpQuarantine OperationType = "quarantine"
	// OpDelete records a permanent-delete run.
	OpDelete OperationType = "delete"
)

// Entry represents a single manifest entry.
type Entry struct {
	ID             string        `json:"id"`
	Timestamp      time.Time     `json:"timestamp"`
	Operation      OperationType `json:"operation"`
	Root           string        `json:"root"`
	QuarantineRoot string        `json:"quarantine_root,omitempty"`
	Files          []FileRecord  `json:"files"`
	Summary        Summary       `json:"summary"`
}

// FileRecord represents a file in the manifest.
type FileRecord struct {
	Path  string    `json:"path"`
	Size  int64     `json:"size"`
	When  time.Time `json:"when"`
	Error string    `json:"error,omitempty"` // set for failed executions
}

// Summary contains operation counts.
type Summary struct {
	TotalFiles int64 `json:"total_files"`
	TotalBytes int64 `json:"total_bytes"`
	Succeeded  int64 `json:"succeeded,omitempty"`
	Failed     int64 `json:"failed,omitempty"`
}
