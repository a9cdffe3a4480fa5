// Package criteria defines the immutable description of a cleanup request:
// which tree to scan, which file timestamp to evaluate, the date window,
// name patterns, and the planned action. It also provides the pure matcher
// that decides whether a single file is a hit.
package criteria

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// TimeField selects which filesystem timestamp a scan evaluates.
type TimeField int

const (
	// ModTime evaluates the file's last modification time.
	ModTime TimeField = iota

	// ChangeTime evaluates the file's status-change time (st_ctime).
	// On platforms where it cannot be read, modification time is used.
	ChangeTime
)

// String returns the configuration name of the time field.
func (f TimeField) String() string {
	if f == ChangeTime {
		return "ctime"
	}
	return "mtime"
}

// ParseTimeField parses a time field name ("mtime" or "ctime").
func ParseTimeField(s string) (TimeField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mtime":
		return ModTime, nil
	case "ctime":
		return ChangeTime, nil
	default:
		return ModTime, fmt.Errorf("%w: time field %q", ErrBadWindow, s)
	}
}

// WindowMode selects how the date window is interpreted.
type WindowMode int

const (
	// OnDay matches timestamps within the start day: [start, start+24h).
	OnDay WindowMode = iota

	// Before matches timestamps strictly earlier than start.
	Before

	// After matches timestamps at or later than start, start day included.
	After

	// Between matches the half-open interval [start, end).
	Between
)

// String returns the configuration name of the window mode.
func (m WindowMode) String() string {
	switch m {
	case Before:
		return "before"
	case After:
		return "after"
	case Between:
		return "between"
	default:
		return "on"
	}
}

// ParseWindowMode parses a window mode name.
func ParseWindowMode(s string) (WindowMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "on":
		return OnDay, nil
	case "before":
		return Before, nil
	case "after":
		return After, nil
	case "between":
		return Between, nil
	default:
		return OnDay, fmt.Errorf("%w: mode %q", ErrBadWindow, s)
	}
}

// Action selects what an execute run does with the hit set.
// The action is part of the criteria signature: switching from quarantine
// to delete after a scan forces a rescan.
type Action int

const (
	// Quarantine moves hits into a fresh _trash_* directory under the root.
	Quarantine Action = iota

	// Delete removes hits permanently. No undo.
	Delete
)

// String returns the configuration name of the action.
func (a Action) String() string {
	if a == Delete {
		return "delete"
	}
	return "trash"
}

// ParseAction parses an action name ("trash" or "delete").
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trash", "quarantine":
		return Quarantine, nil
	case "delete":
		return Delete, nil
	default:
		return Quarantine, fmt.Errorf("%w: action %q", ErrBadWindow, s)
	}
}

// Sentinel errors for criteria validation. All are configuration errors:
// they are reported synchronously, before any unit of work starts.
var (
	// ErrBadRoot indicates the scan root is missing or not a directory.
	ErrBadRoot = errors.New("scan root does not exist or is not a directory")

	// ErrBadWindow indicates an invalid date window or enum value.
	ErrBadWindow = errors.New("invalid window")

	// ErrBadPattern indicates a name pattern that does not compile.
	ErrBadPattern = errors.New("invalid pattern")
)

// Criteria is an immutable description of one scan request.
// Build it with New; the zero value is not usable.
type Criteria struct {
	root           string
	timeField      TimeField
	mode           WindowMode
	start          time.Time
	end            time.Time
	include        []compiledPattern
	exclude        []compiledPattern
	skipQuarantine bool
	action         Action
}

// compiledPattern pairs a glob with its source text so the signature can be
// computed from the text while matching uses the compiled form.
type compiledPattern struct {
	src string
	g   glob.Glob
}

// New validates the inputs and builds a Criteria.
//
// root must exist and be a directory; it is resolved to an absolute path.
// For Between, end must be strictly later than start; for every other mode
// end is ignored. Patterns are case-sensitive shell globs matched against
// base filenames only. An empty include list matches any name.
func New(root string, field TimeField, mode WindowMode, start, end time.Time,
	include, exclude []string, skipQuarantine bool, action Action) (*Criteria, error) {

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadRoot, abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrBadRoot, abs)
	}

	if mode == Between {
		if !end.After(start) {
			return nil, fmt.Errorf("%w: end %s must be later than start %s",
				ErrBadWindow, end.Format(DateLayout), start.Format(DateLayout))
		}
	} else {
		end = time.Time{}
	}

	inc, err := compilePatterns(include)
	if err != nil {
		return nil, err
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, err
	}

	return &Criteria{
		root:           abs,
		timeField:      field,
		mode:           mode,
		start:          start,
		end:            end,
		include:        inc,
		exclude:        exc,
		skipQuarantine: skipQuarantine,
		action:         action,
	}, nil
}

// compilePatterns compiles shell-style globs, skipping empty entries.
func compilePatterns(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadPattern, p, err)
		}
		out = append(out, compiledPattern{src: p, g: g})
	}
	return out, nil
}

// Root returns the absolute scan root.
func (c *Criteria) Root() string { return c.root }

// TimeField returns the timestamp field the scan evaluates.
func (c *Criteria) TimeField() TimeField { return c.timeField }

// Action returns the planned action.
func (c *Criteria) Action() Action { return c.action }

// SkipQuarantine reports whether prior quarantine directories are excluded.
func (c *Criteria) SkipQuarantine() bool { return c.skipQuarantine }

// Match reports whether a single file is a hit.
//
// name is the base filename, mode the entry's file mode, and t the timestamp
// selected by TimeField. Only regular files ever match; exclude patterns win
// over include patterns. Quarantine-prefix skipping is based on the path
// relative to the root and is applied by the scanner, not here.
func (c *Criteria) Match(name string, mode fs.FileMode, t time.Time) bool {
	if !mode.IsRegular() {
		return false
	}
	for _, p := range c.exclude {
		if p.g.Match(name) {
			return false
		}
	}
	if len(c.include) > 0 {
		ok := false
		for _, p := range c.include {
			if p.g.Match(name) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return c.InWindow(t)
}

// InWindow reports whether a timestamp falls inside the date window.
func (c *Criteria) InWindow(t time.Time) bool {
	switch c.mode {
	case Before:
		return t.Before(c.start)
	case After:
		return !t.Before(c.start)
	case Between:
		return !t.Before(c.start) && t.Before(c.end)
	default: // OnDay: [start, start+24h)
		return !t.Before(c.start) && t.Before(c.start.Add(24*time.Hour))
	}
}

// Signature returns a deterministic digest of every criterion plus the
// planned action. Two criteria with identical observable behavior produce
// equal signatures; any field change produces a different one. The session
// controller compares signatures to refuse executes against stale scans.
func (c *Criteria) Signature() string {
	var b strings.Builder
	b.WriteString("root=" + c.root)
	b.WriteString("|field=" + c.timeField.String())
	b.WriteString("|mode=" + c.mode.String())
	b.WriteString("|start=" + strconv.FormatInt(c.start.UnixNano(), 10))
	b.WriteString("|end=" + strconv.FormatInt(c.end.UnixNano(), 10))
	b.WriteString("|include=" + joinSources(c.include))
	b.WriteString("|exclude=" + joinSources(c.exclude))
	b.WriteString("|skiptrash=" + strconv.FormatBool(c.skipQuarantine))
	b.WriteString("|action=" + c.action.String())

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// joinSources joins pattern source texts in their original order.
func joinSources(ps []compiledPattern) string {
	srcs := make([]string, len(ps))
	for i, p := range ps {
		srcs[i] = p.src
	}
	return strings.Join(srcs, ",")
}
