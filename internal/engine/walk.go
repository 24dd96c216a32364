package engine

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/duplocate/deckard/internal/fileentry"
	"github.com/duplocate/deckard/internal/progress"
)

// Walk discovers files under the engine's roots using a concurrent
// fan-out/fan-in traversal: one goroutine per directory (bounded by the
// engine's worker semaphore), feeding a single collector goroutine over a
// buffered channel. This mirrors the teacher walker's shape, generalized
// from a single filter pass to the engine's include/exclude/skip-hidden/
// skip-empty rules and made cancellable via ctx.
//
// Walk populates e.files with empty *fileentry.FileEntry records (no
// fingerprints yet — those are computed by Process). progress, if non-nil,
// is called with the cumulative count of discovered files.
func (e *Engine) Walk(ctx context.Context, progressFn progress.WalkFunc) error {
	resultCh := make(chan *fileentry.FileEntry, 1000)
	var walkerWg sync.WaitGroup
	var discovered atomic.Int64

	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for entry := range resultCh {
			e.filesMu.Lock()
			e.files[entry.Path] = entry
			e.filesMu.Unlock()
			n := discovered.Add(1)
			if progressFn != nil {
				progressFn(int(n))
			}
		}
	}()

	for _, root := range e.roots {
		e.walkDirectory(ctx, root, resultCh, &walkerWg)
	}

	walkerWg.Wait()
	close(resultCh)
	collectorWg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (e *Engine) walkDirectory(ctx context.Context, dir string, resultCh chan<- *fileentry.FileEntry, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		if ctx.Err() != nil {
			return
		}

		e.sem.Acquire()
		files, subdirs, err := e.listDirectory(dir)
		e.sem.Release()
		if err != nil {
			e.sendError(err)
			return
		}

		for _, f := range files {
			if ctx.Err() != nil {
				return
			}
			if !e.includeFile(f) {
				continue
			}
			select {
			case resultCh <- fileentry.New(f.path, f.info):
			case <-ctx.Done():
				return
			}
		}

		for _, sub := range subdirs {
			e.walkDirectory(ctx, sub, resultCh, wg)
		}
	}()
}

type walkedFile struct {
	path string
	info fs.FileInfo
}

// listDirectory reads one directory's entries in batches, splitting them
// into regular files (with stat'd metadata) and subdirectories to recurse
// into. Symlinks and other non-regular entries are skipped.
func (e *Engine) listDirectory(dirPath string) (files []walkedFile, subdirs []string, err error) {
	dir, err := os.Open(dirPath)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = dir.Close() }()

	const batchSize = 1000
	for {
		entries, err := dir.ReadDir(batchSize)
		if len(entries) == 0 {
			if err != nil && err != io.EOF {
				return files, subdirs, err
			}
			break
		}

		for _, entry := range entries {
			full := filepath.Join(dirPath, entry.Name())

			if e.cfg.SkipHidden && strings.HasPrefix(entry.Name(), ".") {
				continue
			}

			if entry.IsDir() {
				subdirs = append(subdirs, full)
				continue
			}
			if !entry.Type().IsRegular() {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				continue // race with deletion, or permission issue - skip
			}
			files = append(files, walkedFile{path: full, info: info})
		}
	}

	return files, subdirs, nil
}

// includeFile applies the engine's size and name filters to a discovered
// file, independent of directory traversal.
func (e *Engine) includeFile(f walkedFile) bool {
	minSize := e.cfg.MinSize
	if e.cfg.SkipEmpty && minSize < 1 {
		minSize = 1
	}
	if f.info.Size() < minSize {
		return false
	}

	name := strings.ToLower(f.info.Name())

	if e.cfg.IncludeFilter != "" {
		if !strings.Contains(name, strings.ToLower(e.cfg.IncludeFilter)) {
			return false
		}
	}
	if e.cfg.ExcludeFilter != "" {
		if strings.Contains(name, strings.ToLower(e.cfg.ExcludeFilter)) {
			return false
		}
	}

	return true
}
