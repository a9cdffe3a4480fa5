// Package quarantine allocates the destination directory for reversible
// cleanup runs and computes collision-free destination paths inside it.
// A quarantine root is a plain directory under the scanned root; moving
// files back by hand is the undo story.
package quarantine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Prefix is the reserved naming prefix for quarantine directories.
// Scans configured to skip prior quarantine output exclude any first-level
// directory whose name starts with this prefix.
const Prefix = "_trash_"

// stampLayout gives seconds resolution and lexical sortability.
const stampLayout = "20060102_150405"

// NewRoot creates a fresh, timestamp-named quarantine directory directly
// under root and returns its path. Creation fails if a directory with that
// exact name already exists: two runs started in the same second must not
// silently share a batch.
func NewRoot(root string) (string, error) {
	dir := filepath.Join(root, Prefix+time.Now().Format(stampLayout))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create quarantine root: %w", err)
	}
	return dir, nil
}

// DestinationFor computes where a hit should land inside qroot.
//
// The hit's path relative to root is preserved under qroot so provenance
// stays legible. If the computed destination already exists, the filename is
// disambiguated with a high-resolution timestamp before the extension; an
// existing quarantined file is never overwritten. The caller is responsible
// for creating parent directories.
func DestinationFor(path, root, qroot string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Outside the root should not happen for hits; keep the base name.
		rel = filepath.Base(path)
	}

	dest := filepath.Join(qroot, rel)
	if !exists(dest) {
		return dest
	}

	// Append a high-resolution timestamp before the extension. A counter
	// handles the same-microsecond case, since the caller moves each file
	// into place before the next destination is computed.
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	stamp := strings.Replace(time.Now().Format("150405.000000"), ".", "_", 1)
	for i := 0; ; i++ {
		cand := stem + "__" + stamp + ext
		if i > 0 {
			cand = fmt.Sprintf("%s__%s_%d%s", stem, stamp, i, ext)
		}
		if !exists(cand) {
			return cand
		}
	}
}

// exists reports whether any entry is present at path.
func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsQuarantinePath reports whether the first component of rel (a path
// relative to the scan root) names a quarantine directory.
func IsQuarantinePath(rel string) bool {
	first := rel
	if i := strings.IndexRune(rel, filepath.Separator); i >= 0 {
		first = rel[:i]
	}
	return strings.HasPrefix(first, Prefix)
}
