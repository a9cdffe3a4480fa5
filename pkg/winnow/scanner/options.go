// Package scanner walks a directory tree, applies the cleanup criteria to
// every regular file, and accumulates hits and aggregate statistics. It uses
// fastwalk for parallel traversal; results are sorted deterministically
// before the terminal result is built.
package scanner

import (
	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
	"github.com/jamesainslie/winnow/pkg/winnow/types"
)

// DefaultProgressEvery is how many visited files pass between progress
// callbacks. A fixed cadence bounds event pressure on large trees.
const DefaultProgressEvery = 500

// Options configures the scanner behavior.
type Options struct {
	// Criteria describes what to scan and what counts as a hit.
	Criteria *criteria.Criteria

	// OnProgress is called periodically with scan progress updates.
	// It must be safe to call from multiple goroutines.
	OnProgress func(types.ScanProgress)

	// ProgressEvery is the visited-file cadence for OnProgress.
	// Zero or negative selects DefaultProgressEvery.
	ProgressEvery int64
}

// Validate applies defaults for unset values.
func (o *Options) Validate() error {
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	return nil
}
