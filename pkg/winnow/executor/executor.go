// Package executor performs the bulk action over a previously scanned hit
// set: quarantine-move or permanent delete. Each file's operation is
// independent; per-file failures are counted and sampled, never fatal to
// the batch.
package executor

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
	"github.com/jamesainslie/winnow/pkg/winnow/quarantine"
	"github.com/jamesainslie/winnow/pkg/winnow/types"
)

// DefaultProgressEvery is how many processed hits pass between progress
// callbacks. The final hit always reports.
const DefaultProgressEvery = 20

// ErrNoRoot indicates the executor was built without a root.
var ErrNoRoot = errors.New("executor requires a root")

// Options configures an execute run.
type Options struct {
	// Root is the scan root the hits were produced under. The quarantine
	// root is allocated directly beneath it.
	Root string

	// Action selects quarantine-move or permanent delete.
	Action criteria.Action

	// OnProgress is called periodically with execution progress.
	OnProgress func(types.ExecProgress)

	// ProgressEvery is the processed-hit cadence for OnProgress.
	// Zero or negative selects DefaultProgressEvery.
	ProgressEvery int64
}

// Validate applies defaults for unset values.
func (o *Options) Validate() error {
	if o.Root == "" {
		return ErrNoRoot
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	return nil
}

// Executor runs one action over one hit set. Single-use.
type Executor struct {
	opts Options
}

// New creates a new Executor with the given options.
func New(opts Options) (*Executor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Executor{opts: opts}, nil
}

// Execute processes hits in the order provided (ascending timestamp, as the
// scanner produced them) and returns the outcome.
//
// For quarantine, the quarantine root is allocated once before any file is
// touched; failure to allocate it aborts the run with zero files moved.
// After that point no error is fatal: Succeeded+Failed always equals
// len(hits).
func (e *Executor) Execute(hits []types.Hit) (*types.ExecutionOutcome, error) {
	outcome := &types.ExecutionOutcome{}

	if e.opts.Action == criteria.Quarantine {
		qroot, err := quarantine.NewRoot(e.opts.Root)
		if err != nil {
			return nil, err
		}
		outcome.QuarantineRoot = qroot
	}

	total := int64(len(hits))
	for i, h := range hits {
		if err := e.processHit(h, outcome.QuarantineRoot); err != nil {
			outcome.Failed++
			if len(outcome.Failures) < types.MaxFailureSamples {
				outcome.Failures = append(outcome.Failures, types.Failure{
					Path:   h.Path,
					Reason: err.Error(),
				})
			}
		} else {
			outcome.Succeeded++
		}

		// Done counts completed hits, so the report lands after the
		// operation, not before.
		done := int64(i + 1)
		if done%e.opts.ProgressEvery == 0 || done == total {
			e.reportProgress(done, total)
		}
	}

	return outcome, nil
}

// processHit performs the action for a single hit.
func (e *Executor) processHit(h types.Hit, qroot string) error {
	if e.opts.Action == criteria.Delete {
		return os.Remove(h.Path)
	}

	dest := quarantine.DestinationFor(h.Path, e.opts.Root, qroot)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	// Same-volume rename. A cross-device failure is recorded per-file like
	// any other; the engine does not fall back to copy+delete.
	return os.Rename(h.Path, dest)
}

// reportProgress calls the progress callback if configured.
func (e *Executor) reportProgress(done, total int64) {
	if e.opts.OnProgress == nil {
		return
	}
	e.opts.OnProgress(types.ExecProgress{Done: done, Total: total})
}
