package engine

import (
	"context"
	"sort"

	"github.com/duplocate/deckard/internal/config"
	"github.com/duplocate/deckard/internal/fileentry"
	"github.com/duplocate/deckard/internal/progress"
)

// MatchDuplicates builds the duplicate graph by comparing every pair of
// processed files once. It is an O(n²) sweep — the same shape as
// deckard's original find_duplicates double loop — with one
// correctness-preserving optimization: a pair is skipped without calling
// fileentry.Compare when none of the three comparators could possibly
// fire for it (sizes differ and no image/audio fingerprints are present
// on both sides). This is NOT a same-size bucketing: image and audio
// similarity are evaluated across files of different sizes too, since
// only the content comparator requires equal size.
//
// The result is a symmetric, irreflexive graph: if a and b are duplicates,
// e.Duplicates(a) includes b and e.Duplicates(b) includes a, and no entry
// lists itself.
//
// If ctx is cancelled mid-sweep, the graph built from pairs already
// compared is still assigned to e.duplicates before returning — callers
// get the partial result rather than nothing.
func (e *Engine) MatchDuplicates(ctx context.Context, progressFn progress.PhaseFunc) error {
	e.filesMu.RLock()
	entries := make([]*fileentry.FileEntry, 0, len(e.files))
	for _, entry := range e.files {
		entries = append(entries, entry)
	}
	e.filesMu.RUnlock()

	// Deterministic ordering so progress and results are stable across runs.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	n := len(entries)
	total := n * (n - 1) / 2
	done := 0

	graph := make(map[string]map[string]struct{})

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			e.duplicatesMu.Lock()
			e.duplicates = graph
			e.duplicatesMu.Unlock()
			return ctx.Err()
		}
		for j := i + 1; j < n; j++ {
			a, b := entries[i], entries[j]
			done++
			if progressFn != nil && done%1000 == 0 {
				progressFn(done, total)
			}

			if !couldMatch(a, b, e.cfg) {
				continue
			}
			if !fileentry.Compare(a, b, e.cfg) {
				continue
			}

			addDuplicateEdge(graph, a.Path, b.Path)
		}
	}

	if progressFn != nil {
		progressFn(total, total)
	}

	e.duplicatesMu.Lock()
	e.duplicates = graph
	e.duplicatesMu.Unlock()

	return nil
}

// couldMatch is the per-pair quick-reject: it returns false only when
// every comparator that Compare would try is guaranteed to skip this
// pair, letting MatchDuplicates avoid the cost of Compare (and any audio
// fingerprint alignment it would run) without changing which pairs end up
// matching.
func couldMatch(a, b *fileentry.FileEntry, cfg config.SearchConfig) bool {
	sameSize := a.Size == b.Size
	imageCouldFire := cfg.Image.Compare && a.ImageHash != nil && b.ImageHash != nil
	audioCouldFire := cfg.Audio.Compare && a.AudioFingerprint != nil && b.AudioFingerprint != nil
	return sameSize || imageCouldFire || audioCouldFire
}

func addDuplicateEdge(graph map[string]map[string]struct{}, a, b string) {
	if graph[a] == nil {
		graph[a] = make(map[string]struct{})
	}
	if graph[b] == nil {
		graph[b] = make(map[string]struct{})
	}
	graph[a][b] = struct{}{}
	graph[b][a] = struct{}{}
}
