// Package fileentry defines FileEntry, the per-file record the engine
// builds during the walk phase and fingerprints during the process phase:
// metadata plus whichever of content hash, image hash, and audio
// fingerprint its configuration calls for.
package fileentry

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/duplocate/deckard/internal/config"
	"github.com/duplocate/deckard/internal/hasher"
)

// FileEntry is one discovered file's metadata and fingerprints.
//
// Hash, ImageHash, and AudioFingerprint are populated by Process and are
// nil/zero until then. AudioTags is populated separately and lazily by
// ReadAudioTags, since tag reading is never required for matching.
type FileEntry struct {
	Path     string
	Name     string
	Size     int64
	Modified time.Time

	MimeType string

	Hash             string
	ImageHash        *hasher.ImageHash
	AudioFingerprint hasher.Fingerprint

	AudioTags *AudioTags
}

// New creates a FileEntry from a path and its already-stat'd os.FileInfo.
func New(path string, info os.FileInfo) *FileEntry {
	return &FileEntry{
		Path:     path,
		Name:     info.Name(),
		Size:     info.Size(),
		Modified: info.ModTime(),
	}
}

// Process computes every fingerprint cfg calls for: the content hash
// always, and the image or audio fingerprint when the file's MIME type
// matches and the corresponding comparator is enabled. It opens the file
// exactly once for all of them.
func (e *FileEntry) Process(cfg config.SearchConfig) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("fileentry: opening %s: %w", e.Path, err)
	}
	defer func() { _ = f.Close() }()

	if cfg.Hasher.FullHash {
		hash, err := hasher.FullHash(cfg.Hasher.Algorithm, f)
		if err != nil {
			return fmt.Errorf("fileentry: hashing %s: %w", e.Path, err)
		}
		e.Hash = hash
	} else {
		hash, err := hasher.QuickHash(cfg.Hasher.Algorithm, cfg.Hasher.Size, cfg.Hasher.Splits, f)
		if err != nil {
			return fmt.Errorf("fileentry: hashing %s: %w", e.Path, err)
		}
		e.Hash = hash
	}

	if !cfg.Image.Compare && !cfg.Audio.Compare {
		return nil
	}

	mimeType, err := detectMIMEType(e.Path, f)
	if err != nil {
		return fmt.Errorf("fileentry: detecting MIME type of %s: %w", e.Path, err)
	}
	e.MimeType = mimeType

	if cfg.Image.Compare && strings.HasPrefix(mimeType, "image") {
		imgHash, err := hasher.ComputeImageHash(cfg.Image, e.Path, f)
		if err != nil {
			// Decode failures are common for corrupt/truncated images and
			// shouldn't abort the whole scan: leave ImageHash nil so this
			// file simply never matches on image similarity.
			return nil //nolint:nilerr
		}
		e.ImageHash = imgHash
	}

	if cfg.Audio.Compare && strings.HasPrefix(mimeType, "audio") {
		fp, err := hasher.ComputeAudioFingerprint(e.Path, f)
		if err != nil {
			return nil //nolint:nilerr
		}
		e.AudioFingerprint = fp
	}

	return nil
}

// ReadAudioTags opportunistically populates AudioTags from the file's
// ID3v1 trailer, if its MIME type indicates audio. It is never called as
// part of Process and never influences matching; callers invoke it only
// when they intend to report tag metadata (e.g. the CLI's verbose output).
func (e *FileEntry) ReadAudioTags() error {
	if !strings.Contains(e.MimeType, "audio") {
		return nil
	}

	f, err := os.Open(e.Path)
	if err != nil {
		return fmt.Errorf("fileentry: opening %s: %w", e.Path, err)
	}
	defer func() { _ = f.Close() }()

	tags, err := readID3v1Tags(f)
	if err != nil {
		return fmt.Errorf("fileentry: reading audio tags of %s: %w", e.Path, err)
	}
	e.AudioTags = tags
	return nil
}

// Compare reports whether two entries are duplicates under cfg. Three
// comparators are tried in a fixed order — content, then image, then
// audio — and the first one that fires wins. Disabled comparators, or
// comparators whose required fingerprint is missing on either side, are
// skipped rather than treated as a non-match.
func Compare(a, b *FileEntry, cfg config.SearchConfig) bool {
	if a.Size == b.Size && a.Hash != "" && a.Hash == b.Hash {
		return true
	}

	if cfg.Image.Compare && a.ImageHash != nil && b.ImageHash != nil {
		if uint64(a.ImageHash.Distance(*b.ImageHash)) <= cfg.Image.Threshold {
			return true
		}
	}

	if cfg.Audio.Compare && a.AudioFingerprint != nil && b.AudioFingerprint != nil {
		segments := hasher.MatchFingerprints(a.AudioFingerprint, b.AudioFingerprint, cfg.Audio)
		score := hasher.AverageScore(segments)
		if len(segments) > 0 && uint64(len(segments)) <= cfg.Audio.SegmentsLimit && score <= cfg.Audio.Threshold {
			return true
		}
	}

	return false
}
