package session

import (
	"github.com/google/uuid"
	"github.com/jamesainslie/winnow/pkg/winnow/types"
)

// EventKind discriminates the payload of an Event.
type EventKind int

const (
	// EventScanProgress carries a ScanProgress snapshot.
	EventScanProgress EventKind = iota

	// EventScanDone is the terminal event of a successful scan.
	EventScanDone

	// EventExecProgress carries an ExecProgress snapshot.
	EventExecProgress

	// EventExecDone is the terminal event of a completed execute.
	EventExecDone

	// EventError is the terminal event of a failed unit of work.
	EventError
)

// Event is one message on a unit-of-work's channel. A unit emits zero or
// more progress events followed by exactly one terminal event, after which
// the channel is closed.
type Event struct {
	// Unit identifies the unit of work that produced the event.
	Unit uuid.UUID

	// Kind selects which payload field is set.
	Kind EventKind

	// ScanProgress is set for EventScanProgress.
	ScanProgress *types.ScanProgress

	// ExecProgress is set for EventExecProgress.
	ExecProgress *types.ExecProgress

	// Result is set for EventScanDone.
	Result *types.ScanResult

	// Outcome is set for EventExecDone.
	Outcome *types.ExecutionOutcome

	// Err is set for EventError.
	Err error
}

// Terminal reports whether no further events follow this one.
func (e Event) Terminal() bool {
	switch e.Kind {
	case EventScanDone, EventExecDone, EventError:
		return true
	default:
		return false
	}
}

// emitter wraps an event channel with non-blocking progress sends.
//
// The worker goroutine is the only sender, so len(ch) can only shrink
// underneath it and the capacity check is conservative. Progress events are
// dropped once the buffer is nearly full; the last slot stays reserved so
// the terminal send can never block, even when the consumer has abandoned
// the channel.
type emitter struct {
	unit uuid.UUID
	ch   chan Event
}

func newEmitter(buffer int) *emitter {
	return &emitter{unit: uuid.New(), ch: make(chan Event, buffer)}
}

// progress sends a non-terminal event, dropping it if the buffer is full.
func (m *emitter) progress(ev Event) {
	ev.Unit = m.unit
	if len(m.ch) < cap(m.ch)-1 {
		m.ch <- ev
	}
}

// terminal sends the final event and closes the channel.
func (m *emitter) terminal(ev Event) {
	ev.Unit = m.unit
	m.ch <- ev
	close(m.ch)
}
