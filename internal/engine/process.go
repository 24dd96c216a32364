package engine

import (
	"context"
	"sync"

	"github.com/duplocate/deckard/internal/fileentry"
	"github.com/duplocate/deckard/internal/progress"
)

// Process fingerprints every file Walk discovered, using a fixed worker
// pool bounded by the engine's configured concurrency — the same
// semaphore+WaitGroup+job-channel shape as the teacher's verifier, reduced
// from progressive (head/tail/chunk) hashing jobs down to one flat job per
// file, since this engine always fingerprints a file's full quick-hash (or
// full hash) in one pass rather than staging reads to eliminate
// non-duplicates early.
//
// progress, if non-nil, is called after every file with (done, total).
func (e *Engine) Process(ctx context.Context, progressFn progress.PhaseFunc) error {
	e.filesMu.RLock()
	entries := make([]*fileentry.FileEntry, 0, len(e.files))
	for _, entry := range e.files {
		entries = append(entries, entry)
	}
	e.filesMu.RUnlock()

	total := len(entries)
	if total == 0 {
		return nil
	}

	jobCh := make(chan *fileentry.FileEntry, 1000)
	var workerWg sync.WaitGroup
	var done int
	var doneMu sync.Mutex

	workers := cap(e.sem)
	for i := 0; i < workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for entry := range jobCh {
				if ctx.Err() != nil {
					continue
				}
				if err := entry.Process(e.cfg); err != nil {
					e.sendError(err)
				}
				doneMu.Lock()
				done++
				n := done
				doneMu.Unlock()
				if progressFn != nil {
					progressFn(n, total)
				}
			}
		}()
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		jobCh <- entry
	}
	close(jobCh)
	workerWg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
