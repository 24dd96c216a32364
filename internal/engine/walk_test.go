package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/duplocate/deckard/internal/config"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestWalkDiscoversNestedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("hello"))
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), []byte("world"))

	e, err := New([]string{dir}, config.DefaultSearchConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Walk(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	if e.FilesLen() != 2 {
		t.Fatalf("expected 2 discovered files, got %d", e.FilesLen())
	}
}

func TestWalkSkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".hidden"), []byte("secret"))
	writeFile(t, filepath.Join(dir, "visible.txt"), []byte("public"))

	cfg := config.DefaultSearchConfig()
	cfg.SkipHidden = true
	e, err := New([]string{dir}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Walk(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	if e.FilesLen() != 1 {
		t.Fatalf("expected hidden file to be skipped, got %d files", e.FilesLen())
	}
	if _, ok := e.File(filepath.Join(dir, "visible.txt")); !ok {
		t.Fatal("visible.txt should have been discovered")
	}
}

func TestWalkSkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "empty.txt"), nil)
	writeFile(t, filepath.Join(dir, "full.txt"), []byte("data"))

	cfg := config.DefaultSearchConfig()
	cfg.SkipEmpty = true
	e, err := New([]string{dir}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Walk(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	if e.FilesLen() != 1 {
		t.Fatalf("expected empty file to be skipped, got %d files", e.FilesLen())
	}
}

func TestWalkAppliesExcludeFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.txt"), []byte("a"))
	writeFile(t, filepath.Join(dir, "skip.tmp"), []byte("b"))

	cfg := config.DefaultSearchConfig()
	cfg.ExcludeFilter = ".tmp"
	e, err := New([]string{dir}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Walk(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	if e.FilesLen() != 1 {
		t.Fatalf("expected excluded file to be skipped, got %d files", e.FilesLen())
	}
}

func TestWalkIncludeFilterIsCaseInsensitiveSubstring(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Report_2024.pdf"), []byte("a"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("b"))

	cfg := config.DefaultSearchConfig()
	cfg.IncludeFilter = "report"
	e, err := New([]string{dir}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Walk(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	if e.FilesLen() != 1 {
		t.Fatalf("expected only the report file to match, got %d files", e.FilesLen())
	}
	if _, ok := e.File(filepath.Join(dir, "Report_2024.pdf")); !ok {
		t.Fatal("expected Report_2024.pdf to be included despite case difference")
	}
}

func TestWalkMinSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small.txt"), []byte("ab"))
	writeFile(t, filepath.Join(dir, "big.txt"), []byte("abcdefghij"))

	cfg := config.DefaultSearchConfig()
	cfg.MinSize = 5
	e, err := New([]string{dir}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Walk(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	if e.FilesLen() != 1 {
		t.Fatalf("expected only the file at or above min size, got %d files", e.FilesLen())
	}
	if _, ok := e.File(filepath.Join(dir, "big.txt")); !ok {
		t.Fatal("expected big.txt to pass the min-size filter")
	}
}

func TestWalkRespectsCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 50; i++ {
		writeFile(t, filepath.Join(dir, "sub", string(rune('a'+i%26)), "f.txt"), []byte("x"))
	}

	e, err := New([]string{dir}, config.DefaultSearchConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.Walk(ctx, nil); err == nil {
		t.Fatal("expected Walk to report cancellation")
	}
}
