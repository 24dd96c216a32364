package fileentry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/duplocate/deckard/internal/config"
	"github.com/duplocate/deckard/internal/hasher"
)

var fakeCloseHash = hasher.ImageHash{Bits: []bool{true, false, true, false}}

func mustWrite(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newEntry(t *testing.T, path string) *FileEntry {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return New(path, info)
}

func TestProcessIdenticalFilesHashEqual(t *testing.T) {
	dir := t.TempDir()
	pa := mustWrite(t, dir, "a.txt", []byte("the quick brown fox"))
	pb := mustWrite(t, dir, "b.txt", []byte("the quick brown fox"))

	cfg := config.DefaultSearchConfig()
	ea := newEntry(t, pa)
	eb := newEntry(t, pb)

	if err := ea.Process(cfg); err != nil {
		t.Fatal(err)
	}
	if err := eb.Process(cfg); err != nil {
		t.Fatal(err)
	}

	if !Compare(ea, eb, cfg) {
		t.Fatal("identical files should compare as duplicates")
	}
}

func TestProcessDifferentFilesHashDiffer(t *testing.T) {
	dir := t.TempDir()
	pa := mustWrite(t, dir, "a.txt", []byte("the quick brown fox"))
	pb := mustWrite(t, dir, "b.txt", []byte("a different sentence entirely"))

	cfg := config.DefaultSearchConfig()
	ea := newEntry(t, pa)
	eb := newEntry(t, pb)

	if err := ea.Process(cfg); err != nil {
		t.Fatal(err)
	}
	if err := eb.Process(cfg); err != nil {
		t.Fatal(err)
	}

	if Compare(ea, eb, cfg) {
		t.Fatal("different files should not compare as duplicates")
	}
}

func TestCompareRequiresEqualSizeForContentMatch(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	a := &FileEntry{Size: 10, Hash: "deadbeef"}
	b := &FileEntry{Size: 11, Hash: "deadbeef"}
	if Compare(a, b, cfg) {
		t.Fatal("content comparator must require equal size even if hashes happen to match")
	}
}

func TestCompareIgnoresImageWhenDisabled(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	cfg.Image.Compare = false
	cfg.Image.Threshold = 1000 // would match if evaluated
	a := &FileEntry{Size: 1, Hash: "a", ImageHash: &fakeCloseHash}
	b := &FileEntry{Size: 2, Hash: "b", ImageHash: &fakeCloseHash}
	if Compare(a, b, cfg) {
		t.Fatal("disabled image comparator must not contribute to a match")
	}
}

func TestReadAudioTagsSkipsNonAudioFiles(t *testing.T) {
	dir := t.TempDir()
	p := mustWrite(t, dir, "a.txt", []byte("not audio"))
	e := newEntry(t, p)
	e.MimeType = "text/plain"

	if err := e.ReadAudioTags(); err != nil {
		t.Fatal(err)
	}
	if e.AudioTags != nil {
		t.Fatal("non-audio files should never get AudioTags populated")
	}
}
