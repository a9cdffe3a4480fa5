package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/jamesainslie/winnow/pkg/winnow/quarantine"
	"github.com/jamesainslie/winnow/pkg/winnow/types"
)

// ErrNoCriteria indicates the scanner was built without criteria.
var ErrNoCriteria = errors.New("scanner requires criteria")

// Scanner performs one recursive scan using fastwalk.
// A Scanner is single-use; build a new one per scan.
type Scanner struct {
	opts Options

	// Atomic counters for thread-safe progress reporting.
	filesVisited atomic.Int64
	matched      atomic.Int64
	bytesMatched atomic.Int64

	// currentPath is the path most recently visited (for progress).
	currentPath atomic.Value

	// hits collects matched files; order is fixed by a final sort.
	hits   []types.Hit
	hitsMu sync.Mutex
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	_ = opts.Validate()
	s := &Scanner{opts: opts}
	s.currentPath.Store("")
	return s
}

// Scan walks the tree and returns the result.
//
// Failure to read the root itself aborts the whole scan; I/O errors on
// individual entries exclude the entry and the scan continues. Hits are
// sorted ascending by timestamp, tie-broken by path, so two scans of an
// unchanged tree yield identical results.
func (s *Scanner) Scan() (*types.ScanResult, error) {
	if s.opts.Criteria == nil {
		return nil, ErrNoCriteria
	}
	start := time.Now()
	root := s.opts.Criteria.Root()

	// The criteria validated the root at construction time, but it may have
	// vanished since. Root failures are fatal: no partial result.
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, os.ErrInvalid
	}

	s.currentPath.Store(root)
	s.reportProgress()

	conf := fastwalk.Config{Follow: false}
	if err := fastwalk.Walk(&conf, root, s.walkCallback(root)); err != nil {
		return nil, err
	}

	sort.Slice(s.hits, func(i, j int) bool {
		if !s.hits[i].When.Equal(s.hits[j].When) {
			return s.hits[i].When.Before(s.hits[j].When)
		}
		return s.hits[i].Path < s.hits[j].Path
	})

	s.reportProgress()

	return &types.ScanResult{
		Hits:         s.hits,
		FilesVisited: s.filesVisited.Load(),
		BytesMatched: s.bytesMatched.Load(),
		Elapsed:      time.Since(start),
		Signature:    s.opts.Criteria.Signature(),
	}, nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (s *Scanner) walkCallback(root string) fs.WalkDirFunc {
	c := s.opts.Criteria
	return func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Failing to read the root aborts the scan: no partial result.
			// Per-entry errors exclude the entry and the walk continues.
			if path == root {
				return err
			}
			return nil
		}

		// Anything whose first component under root carries the quarantine
		// prefix is excluded, directories and plain files alike.
		if c.SkipQuarantine() && path != root {
			if rel, relErr := filepath.Rel(root, path); relErr == nil &&
				quarantine.IsQuarantinePath(rel) {
				if d.IsDir() {
					return fastwalk.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		s.processFile(path, d)
		return nil
	}
}

// processFile evaluates one regular file against the criteria.
func (s *Scanner) processFile(path string, d fs.DirEntry) {
	visited := s.filesVisited.Add(1)
	s.currentPath.Store(path)
	if visited%s.opts.ProgressEvery == 0 {
		s.reportProgress()
	}

	// A file whose metadata cannot be read (permission error, vanished
	// mid-walk) is silently excluded.
	info, err := d.Info()
	if err != nil {
		return
	}

	when := fileTime(info, s.opts.Criteria.TimeField())
	if !s.opts.Criteria.Match(d.Name(), info.Mode(), when) {
		return
	}

	size := info.Size()
	s.matched.Add(1)
	s.bytesMatched.Add(size)

	s.hitsMu.Lock()
	s.hits = append(s.hits, types.Hit{Path: path, When: when, Size: size})
	s.hitsMu.Unlock()
}

// reportProgress calls the progress callback if configured.
func (s *Scanner) reportProgress() {
	if s.opts.OnProgress == nil {
		return
	}
	current, _ := s.currentPath.Load().(string)
	s.opts.OnProgress(types.ScanProgress{
		FilesVisited: s.filesVisited.Load(),
		Matched:      s.matched.Load(),
		BytesMatched: s.bytesMatched.Load(),
		CurrentPath:  current,
	})
}
