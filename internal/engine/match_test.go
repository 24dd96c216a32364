package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/duplocate/deckard/internal/config"
	"github.com/duplocate/deckard/internal/fileentry"
	"github.com/duplocate/deckard/internal/hasher"
)

func TestMatchDuplicatesFindsContentDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("same"))
	writeFile(t, filepath.Join(dir, "b.txt"), []byte("same"))
	writeFile(t, filepath.Join(dir, "c.txt"), []byte("unique"))

	e, err := New([]string{dir}, config.DefaultSearchConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := e.Walk(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Process(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.MatchDuplicates(ctx, nil); err != nil {
		t.Fatal(err)
	}

	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")

	dupsA, ok := e.Duplicates(a)
	if !ok || len(dupsA) != 1 || dupsA[0] != b {
		t.Fatalf("expected a.txt's only duplicate to be b.txt, got %v (ok=%v)", dupsA, ok)
	}
	if _, ok := e.Duplicates(c); ok {
		t.Fatal("c.txt has no duplicates and should report ok=false")
	}
	if e.DuplicatesLen() != 2 {
		t.Fatalf("expected 2 files with duplicates in the graph, got %d", e.DuplicatesLen())
	}
}

func TestDuplicateGraphIsSymmetricAndIrreflexive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("x"))
	writeFile(t, filepath.Join(dir, "b.txt"), []byte("x"))

	e, err := New([]string{dir}, config.DefaultSearchConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	_ = e.Walk(ctx, nil)
	_ = e.Process(ctx, nil)
	if err := e.MatchDuplicates(ctx, nil); err != nil {
		t.Fatal(err)
	}

	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")

	dupsA, _ := e.Duplicates(a)
	dupsB, _ := e.Duplicates(b)
	if len(dupsA) != 1 || dupsA[0] != b {
		t.Fatalf("a's duplicates should be [b], got %v", dupsA)
	}
	if len(dupsB) != 1 || dupsB[0] != a {
		t.Fatalf("b's duplicates should be [a], got %v", dupsB)
	}

	for _, p := range dupsA {
		if p == a {
			t.Fatal("duplicate graph must be irreflexive: a.txt cannot be its own duplicate")
		}
	}
}

func TestCouldMatchAllowsDifferentSizedImagesWhenImageCompareEnabled(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	cfg.Image.Compare = true

	hashA := hasher.ImageHash{Bits: []bool{true, true, false, false}}
	hashB := hashA

	a := &fileentry.FileEntry{Path: "a", Size: 10, Hash: "aaa", ImageHash: &hashA}
	b := &fileentry.FileEntry{Path: "b", Size: 99999, Hash: "bbb", ImageHash: &hashB}

	if !couldMatch(a, b, cfg) {
		t.Fatal("image comparator must be considered across differently-sized files, not just same-size pairs")
	}
}

func TestCouldMatchRejectsPairWithNoPossibleComparator(t *testing.T) {
	cfg := config.DefaultSearchConfig()

	a := &fileentry.FileEntry{Path: "a", Size: 10, Hash: "aaa"}
	b := &fileentry.FileEntry{Path: "b", Size: 20, Hash: "bbb"}

	if couldMatch(a, b, cfg) {
		t.Fatal("a pair with different sizes and no enabled image/audio comparators can never match")
	}
}
