package engine

import (
	"path/filepath"
	"testing"

	"github.com/duplocate/deckard/internal/config"
)

func TestNewRejectsNestedRoots(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	_, err := New([]string{dir, sub}, config.DefaultSearchConfig())
	if err == nil {
		t.Fatal("expected error when one root is nested under another")
	}
}

func TestNewRejectsEmptyRootSet(t *testing.T) {
	_, err := New(nil, config.DefaultSearchConfig())
	if err == nil {
		t.Fatal("expected error for an empty root set")
	}
}

func TestNewDeduplicatesIdenticalRoots(t *testing.T) {
	dir := t.TempDir()
	e, err := New([]string{dir, dir}, config.DefaultSearchConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(e.roots) != 1 {
		t.Fatalf("expected duplicate roots to collapse to one, got %v", e.roots)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	cfg.Hasher.Algorithm = "crc32"
	_, err := New([]string{t.TempDir()}, cfg)
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestFindCommonPath(t *testing.T) {
	cases := []struct {
		paths []string
		want  string
	}{
		{nil, ""},
		{[]string{"/a/b/c"}, "/a/b/c"},
		{[]string{"/a/b/c", "/a/b/d"}, "/a/b"},
		{[]string{"/a/b/c", "/x/y/z"}, "/"},
		{[]string{"/a/b", "/a/b"}, "/a/b"},
	}
	for _, c := range cases {
		if got := FindCommonPath(c.paths); got != c.want {
			t.Errorf("FindCommonPath(%v) = %q, want %q", c.paths, got, c.want)
		}
	}
}
