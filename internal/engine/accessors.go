package engine

import (
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/duplocate/deckard/internal/fileentry"
)

// FilesLen returns the number of files discovered by Walk.
func (e *Engine) FilesLen() int {
	e.filesMu.RLock()
	defer e.filesMu.RUnlock()
	return len(e.files)
}

// DuplicatesLen returns the number of files that have at least one
// confirmed duplicate.
func (e *Engine) DuplicatesLen() int {
	e.duplicatesMu.RLock()
	defer e.duplicatesMu.RUnlock()
	return len(e.duplicates)
}

// File returns the FileEntry at path, if Walk discovered it.
func (e *Engine) File(path string) (*fileentry.FileEntry, bool) {
	e.filesMu.RLock()
	defer e.filesMu.RUnlock()
	entry, ok := e.files[path]
	return entry, ok
}

// Duplicates returns the sorted paths of every file MatchDuplicates found
// to be a duplicate of path, or ok=false if path has no known duplicates.
func (e *Engine) Duplicates(path string) (paths []string, ok bool) {
	e.duplicatesMu.RLock()
	defer e.duplicatesMu.RUnlock()

	set, found := e.duplicates[path]
	if !found || len(set) == 0 {
		return nil, false
	}

	paths = make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, true
}

// DuplicatePaths returns every file path that has at least one confirmed
// duplicate, in no particular order.
func (e *Engine) DuplicatePaths() []string {
	e.duplicatesMu.RLock()
	defer e.duplicatesMu.RUnlock()
	paths := make([]string, 0, len(e.duplicates))
	for p := range e.duplicates {
		paths = append(paths, p)
	}
	return paths
}

// DuplicateCount returns how many files are duplicates of path (0 if none).
func (e *Engine) DuplicateCount(path string) int {
	e.duplicatesMu.RLock()
	defer e.duplicatesMu.RUnlock()
	return len(e.duplicates[path])
}

// FormattedSize renders a byte count the way the CLI reports sizes
// (IEC units, e.g. "1.2 MiB"), via the same go-humanize helper the
// teacher uses for scan and verification stats.
func FormattedSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
