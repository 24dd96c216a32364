// Package engine coordinates the three-phase duplicate search: Walk
// discovers candidate files, Process fingerprints them, and
// MatchDuplicates builds the duplicate graph. It is the Go analogue of
// deckard's Rust Index type, restructured around the teacher's
// concurrent fan-out/fan-in walker and worker-pool idioms.
package engine

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/duplocate/deckard/internal/config"
	"github.com/duplocate/deckard/internal/fileentry"
	"github.com/duplocate/deckard/internal/types"
)

// Engine holds the state of one duplicate search across its three phases.
//
// Engine is single-use: construct with New, then call Walk, Process, and
// MatchDuplicates once each, in order. It is safe for the accessor methods
// to be called concurrently with later phases, but each phase method
// itself must not be called concurrently with another call to itself.
type Engine struct {
	roots []string
	cfg   config.SearchConfig

	// ErrCh, if non-nil, receives non-fatal per-file errors encountered
	// during Walk and Process (unreadable directories, open, read and
	// hashing failures) instead of aborting the whole search. Image and
	// audio decode failures are not sent; the file is simply left without
	// that fingerprint. The caller is responsible for
	// draining it; Engine never closes it.
	ErrCh chan error

	filesMu sync.RWMutex
	files   map[string]*fileentry.FileEntry

	duplicatesMu sync.RWMutex
	duplicates   map[string]map[string]struct{}

	sem types.Semaphore
}

// New validates roots and cfg and constructs an Engine ready for Walk.
//
// roots are canonicalized to absolute paths and deduplicated. It is an
// error for any root to be a proper prefix of another (e.g. "/a" and
// "/a/b" together), since that would double-count files under the nested
// root, and an error for the resulting root set to be empty.
func New(roots []string, cfg config.SearchConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cleaned, err := cleanRoots(roots)
	if err != nil {
		return nil, err
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("engine: no root paths given")
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	return &Engine{
		roots: cleaned,
		cfg:   cfg,
		files: make(map[string]*fileentry.FileEntry),
		sem:   types.NewSemaphore(workers),
	}, nil
}

func cleanRoots(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var abs []string
	for _, r := range roots {
		p, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("engine: resolving root %q: %w", r, err)
		}
		p = filepath.Clean(p)
		if seen[p] {
			continue
		}
		seen[p] = true
		abs = append(abs, p)
	}

	sort.Strings(abs)
	for i, a := range abs {
		for j, b := range abs {
			if i == j {
				continue
			}
			if isProperPrefix(a, b) {
				return nil, fmt.Errorf("engine: root %q is a subdirectory of root %q; pass only the outermost root", b, a)
			}
		}
	}

	return abs, nil
}

// isProperPrefix reports whether child is a strict descendant of parent in
// the filesystem tree (path-component-wise, not a raw string prefix).
func isProperPrefix(parent, child string) bool {
	if parent == child {
		return false
	}
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

func (e *Engine) sendError(err error) {
	if e.ErrCh != nil {
		e.ErrCh <- err
	}
}

// FindCommonPath returns the deepest directory common to every path given,
// or "" if paths is empty or they share no common ancestor.
func FindCommonPath(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	split := func(p string) []string {
		return strings.Split(filepath.Clean(p), string(filepath.Separator))
	}

	common := split(paths[0])
	for _, p := range paths[1:] {
		parts := split(p)
		n := min(len(common), len(parts))
		i := 0
		for i < n && common[i] == parts[i] {
			i++
		}
		common = common[:i]
		if len(common) == 0 {
			return ""
		}
	}

	joined := strings.Join(common, string(filepath.Separator))
	if joined == "" {
		return string(filepath.Separator)
	}
	return joined
}
