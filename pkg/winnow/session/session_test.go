package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFileAt(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// buildTree creates a root with two old hits and one new miss.
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFileAt(t, filepath.Join(root, "old1.txt"), "a", date(2023, 1, 1))
	writeFileAt(t, filepath.Join(root, "sub", "old2.txt"), "bb", date(2023, 2, 1))
	writeFileAt(t, filepath.Join(root, "new.txt"), "c", date(2025, 1, 1))
	return root
}

func mustCriteria(t *testing.T, root string, action criteria.Action) *criteria.Criteria {
	t.Helper()
	c, err := criteria.New(root, criteria.ModTime, criteria.Before, date(2024, 1, 1), time.Time{},
		nil, nil, true, action)
	require.NoError(t, err)
	return c
}

// drain consumes a unit's channel and returns its terminal event,
// asserting the terminal event is last and unique.
func drain(t *testing.T, events <-chan Event) Event {
	t.Helper()
	var terminal *Event
	for ev := range events {
		require.Nil(t, terminal, "events after the terminal event")
		if ev.Terminal() {
			e := ev
			terminal = &e
		}
	}
	require.NotNil(t, terminal, "channel closed without a terminal event")
	return *terminal
}

func TestScanProducesResult(t *testing.T) {
	root := buildTree(t)
	sess := New(DefaultEventBuffer)

	events, err := sess.Scan(mustCriteria(t, root, criteria.Quarantine))
	require.NoError(t, err)

	term := drain(t, events)
	require.Equal(t, EventScanDone, term.Kind)
	require.NotNil(t, term.Result)
	assert.Len(t, term.Result.Hits, 2)
	assert.Equal(t, int64(3), term.Result.FilesVisited)
	assert.Equal(t, int64(3), term.Result.BytesMatched)
	assert.False(t, sess.Busy())
	assert.Same(t, term.Result, sess.LastResult())
}

func TestScanErrorClearsBusy(t *testing.T) {
	root := t.TempDir()
	c := mustCriteria(t, root, criteria.Quarantine)
	require.NoError(t, os.RemoveAll(root))

	sess := New(DefaultEventBuffer)
	events, err := sess.Scan(c)
	require.NoError(t, err)

	term := drain(t, events)
	assert.Equal(t, EventError, term.Kind)
	assert.Error(t, term.Err)
	assert.False(t, sess.Busy())
	assert.Nil(t, sess.LastResult())
}

func TestExecuteWithoutScanRefused(t *testing.T) {
	root := buildTree(t)
	sess := New(DefaultEventBuffer)

	_, err := sess.Execute(mustCriteria(t, root, criteria.Quarantine))
	assert.ErrorIs(t, err, ErrRescanRequired)
}

func TestExecuteSignatureMismatchRefused(t *testing.T) {
	root := buildTree(t)
	sess := New(DefaultEventBuffer)

	drain(t, must(sess.Scan(mustCriteria(t, root, criteria.Quarantine))))

	// Same fields, different action: still a mismatch.
	_, err := sess.Execute(mustCriteria(t, root, criteria.Delete))
	assert.ErrorIs(t, err, ErrRescanRequired)

	// Different window: mismatch.
	changed, err := criteria.New(root, criteria.ModTime, criteria.Before, date(2024, 6, 1), time.Time{},
		nil, nil, true, criteria.Quarantine)
	require.NoError(t, err)
	_, err = sess.Execute(changed)
	assert.ErrorIs(t, err, ErrRescanRequired)

	// Matching criteria still work after the refusals.
	events, err := sess.Execute(mustCriteria(t, root, criteria.Quarantine))
	require.NoError(t, err)
	term := drain(t, events)
	assert.Equal(t, EventExecDone, term.Kind)
}

func TestExecuteQuarantineEndToEnd(t *testing.T) {
	root := buildTree(t)
	sess := New(DefaultEventBuffer)
	c := mustCriteria(t, root, criteria.Quarantine)

	scanTerm := drain(t, must(sess.Scan(c)))
	require.Equal(t, EventScanDone, scanTerm.Kind)

	events, err := sess.Execute(c)
	require.NoError(t, err)
	term := drain(t, events)

	require.Equal(t, EventExecDone, term.Kind)
	require.NotNil(t, term.Outcome)
	assert.Equal(t, int64(2), term.Outcome.Succeeded)
	assert.Equal(t, int64(0), term.Outcome.Failed)
	assert.NotEmpty(t, term.Outcome.QuarantineRoot)

	// Originals gone, quarantined copies present, untouched file intact.
	assert.NoFileExists(t, filepath.Join(root, "old1.txt"))
	assert.FileExists(t, filepath.Join(term.Outcome.QuarantineRoot, "old1.txt"))
	assert.FileExists(t, filepath.Join(term.Outcome.QuarantineRoot, "sub", "old2.txt"))
	assert.FileExists(t, filepath.Join(root, "new.txt"))
}

// TestExecuteConsumesScan verifies the staleness invariant: a completed
// execute invalidates the stored scan, whatever its outcome.
func TestExecuteConsumesScan(t *testing.T) {
	root := buildTree(t)
	sess := New(DefaultEventBuffer)
	c := mustCriteria(t, root, criteria.Quarantine)

	drain(t, must(sess.Scan(c)))
	drain(t, must(sess.Execute(c)))

	assert.Nil(t, sess.LastResult())
	_, err := sess.Execute(c)
	assert.ErrorIs(t, err, ErrRescanRequired)

	// A fresh scan re-arms execution.
	drain(t, must(sess.Scan(c)))
	events, err := sess.Execute(c)
	require.NoError(t, err)
	term := drain(t, events)
	assert.Equal(t, EventExecDone, term.Kind)
}

func TestBusyRefusesSecondUnit(t *testing.T) {
	root := buildTree(t)
	sess := New(DefaultEventBuffer)
	c := mustCriteria(t, root, criteria.Quarantine)

	events, err := sess.Scan(c)
	require.NoError(t, err)

	// Whether or not the first scan already finished, a concurrent request
	// must be either refused as busy or accepted after completion - never
	// queued. Hold the channel undrained to keep the window open.
	_, secondErr := sess.Scan(c)
	if secondErr != nil {
		assert.ErrorIs(t, secondErr, ErrBusy)
	}
	drain(t, events)
}

// TestSlowConsumerDoesNotStallUnit verifies the engine never blocks on an
// abandoned event channel: the terminal event is still delivered into the
// buffer and the session frees up.
func TestSlowConsumerDoesNotStallUnit(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 60; i++ {
		writeFileAt(t, filepath.Join(root, "d", string(rune('a'+i%26))+string(rune('a'+i/26))+".txt"),
			"x", date(2023, 1, 1))
	}

	sess := New(4) // tiny buffer
	events, err := sess.Scan(mustCriteria(t, root, criteria.Quarantine))
	require.NoError(t, err)

	// Do not read until the unit has certainly finished.
	require.Eventually(t, func() bool { return !sess.Busy() },
		5*time.Second, 10*time.Millisecond)

	term := drain(t, events)
	assert.Equal(t, EventScanDone, term.Kind)
}

// TestEmitterReservesTerminalSlot floods an undrained emitter with progress
// events and verifies the terminal send still has room.
func TestEmitterReservesTerminalSlot(t *testing.T) {
	m := newEmitter(4)
	for i := 0; i < 100; i++ {
		m.progress(Event{Kind: EventScanProgress})
	}
	assert.LessOrEqual(t, len(m.ch), 3)

	done := make(chan struct{})
	go func() {
		m.terminal(Event{Kind: EventScanDone})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("terminal send blocked on a full buffer")
	}

	var last Event
	for ev := range m.ch {
		last = ev
	}
	assert.Equal(t, EventScanDone, last.Kind)
	assert.Equal(t, m.unit, last.Unit)
}

func TestEventUnitIDsDiffer(t *testing.T) {
	root := buildTree(t)
	sess := New(DefaultEventBuffer)
	c := mustCriteria(t, root, criteria.Quarantine)

	first := drain(t, must(sess.Scan(c)))
	second := drain(t, must(sess.Scan(c)))
	assert.NotEqual(t, first.Unit, second.Unit)
}

// must unwraps a (channel, error) pair inside drain call sites.
func must(events <-chan Event, err error) <-chan Event {
	if err != nil {
		panic(err)
	}
	return events
}
