// Package session owns the concurrency boundary of the cleanup engine. It
// launches scans and executes as background units of work, exposes each as
// an ordered event channel, and enforces the staleness invariant between
// scan and execute: an execute is only honored against the exact criteria
// (including the planned action) of the last successful scan, and any
// completed execute invalidates that scan.
package session

import (
	"errors"
	"sync"

	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
	"github.com/jamesainslie/winnow/pkg/winnow/executor"
	"github.com/jamesainslie/winnow/pkg/winnow/logging"
	"github.com/jamesainslie/winnow/pkg/winnow/scanner"
	"github.com/jamesainslie/winnow/pkg/winnow/types"
)

// DefaultEventBuffer is the per-unit event channel capacity. One slot is
// always reserved for the terminal event.
const DefaultEventBuffer = 64

var (
	// ErrBusy indicates a scan or execute is already in flight.
	// Requests are refused, never queued.
	ErrBusy = errors.New("a scan or execute is already running")

	// ErrRescanRequired indicates an execute was requested without a prior
	// scan, or with criteria whose signature no longer matches the stored
	// scan. The caller must scan again before executing.
	ErrRescanRequired = errors.New("criteria changed since last scan: rescan required")
)

var logger = logging.Get("session")

// Session orchestrates at most one scanner or executor unit at a time.
// The zero value is ready to use. Methods are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	busy   bool
	last   *types.ScanResult // set by the most recent successful scan
	buffer int
}

// New creates a Session with a custom event buffer size.
// Sizes below 2 fall back to DefaultEventBuffer.
func New(buffer int) *Session {
	if buffer < 2 {
		buffer = DefaultEventBuffer
	}
	return &Session{buffer: buffer}
}

// Busy reports whether a unit of work is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// LastResult returns the stored result of the most recent successful scan,
// or nil if none is stored. The caller may read it for preview; it stays
// owned by the session until the next scan or a completed execute.
func (s *Session) LastResult() *types.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Scan launches a background scan for the given criteria and returns its
// event channel. The channel carries progress events and exactly one
// terminal event (EventScanDone or EventError), then closes. On success the
// result replaces any previously stored scan.
//
// Returns ErrBusy synchronously if a unit is already in flight.
func (s *Session) Scan(c *criteria.Criteria) (<-chan Event, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}

	m := newEmitter(s.eventBuffer())
	logger.Debug("scan started", "unit", m.unit, "root", c.Root())

	go func() {
		sc := scanner.New(scanner.Options{
			Criteria: c,
			OnProgress: func(p types.ScanProgress) {
				m.progress(Event{Kind: EventScanProgress, ScanProgress: &p})
			},
		})

		result, err := sc.Scan()

		s.mu.Lock()
		s.busy = false
		if err == nil {
			s.last = result
		}
		s.mu.Unlock()

		if err != nil {
			logger.Error("scan failed", "unit", m.unit, "error", err)
			m.terminal(Event{Kind: EventError, Err: err})
			return
		}
		logger.Info("scan done", "unit", m.unit,
			"visited", result.FilesVisited, "hits", len(result.Hits))
		m.terminal(Event{Kind: EventScanDone, Result: result})
	}()

	return m.ch, nil
}

// Execute launches a background execute over the stored hit set and returns
// its event channel. The supplied criteria must produce the same signature
// (fields plus action) as the scan that produced the stored hits; otherwise
// ErrRescanRequired is returned synchronously and nothing runs.
//
// Whatever the outcome, a completed execute clears the stored scan: the
// files on disk no longer match it.
func (s *Session) Execute(c *criteria.Criteria) (<-chan Event, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.last == nil || s.last.Signature != c.Signature() {
		s.mu.Unlock()
		return nil, ErrRescanRequired
	}
	hits := s.last.Hits
	s.busy = true
	s.mu.Unlock()

	m := newEmitter(s.eventBuffer())
	logger.Debug("execute started", "unit", m.unit,
		"action", c.Action().String(), "hits", len(hits))

	go func() {
		outcome, err := s.runExecutor(c, hits, m)

		// The stored scan is consumed no matter what: even a partially
		// failed execute has moved or deleted files.
		s.mu.Lock()
		s.busy = false
		s.last = nil
		s.mu.Unlock()

		if err != nil {
			logger.Error("execute failed", "unit", m.unit, "error", err)
			m.terminal(Event{Kind: EventError, Err: err})
			return
		}
		logger.Info("execute done", "unit", m.unit,
			"succeeded", outcome.Succeeded, "failed", outcome.Failed)
		m.terminal(Event{Kind: EventExecDone, Outcome: outcome})
	}()

	return m.ch, nil
}

// runExecutor builds and runs the executor unit.
func (s *Session) runExecutor(c *criteria.Criteria, hits []types.Hit, m *emitter) (*types.ExecutionOutcome, error) {
	ex, err := executor.New(executor.Options{
		Root:   c.Root(),
		Action: c.Action(),
		OnProgress: func(p types.ExecProgress) {
			m.progress(Event{Kind: EventExecProgress, ExecProgress: &p})
		},
	})
	if err != nil {
		return nil, err
	}
	return ex.Execute(hits)
}

// acquire marks the session busy, refusing if a unit is in flight.
func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) eventBuffer() int {
	if s.buffer < 2 {
		return DefaultEventBuffer
	}
	return s.buffer
}
