// Package hasher implements the pure fingerprinting primitives used by the
// duplicate-detection engine: content hashing (full and quick/sampled),
// perceptual image hashing, and acoustic audio fingerprinting. Every
// function here takes an already-open file, rewinds it before reading, and
// leaves its offset wherever reading stopped; none of them own the file's
// lifecycle.
package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/duplocate/deckard/internal/config"
)

func newHash(alg config.HashAlgorithm) (hash.Hash, error) {
	switch alg {
	case config.HashMD5:
		return md5.New(), nil
	case config.HashSHA1:
		return sha1.New(), nil
	case config.HashSHA256:
		return sha256.New(), nil
	case config.HashSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("hasher: unknown hash algorithm %q", alg)
	}
}

// FullHash hashes the entire content of f using alg, rewinding f first.
func FullHash(alg config.HashAlgorithm, f *os.File) (string, error) {
	h, err := newHash(alg)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hasher: reading %s: %w", f.Name(), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// QuickHash hashes a sample of f's content rather than the whole file:
// `splits` windows of `size` bytes each, evenly spaced across the file,
// concatenated and hashed together with the file's length appended so
// that two files sharing a common prefix but differing length never
// collide.
//
// QuickHash falls back to hashing the entire file when sampling wouldn't
// actually save work or can't be done evenly: an empty file, size==0,
// splits==0, at least as many splits as bytes, or windows that wouldn't fit without
// overlapping (file_len/splits < size).
func QuickHash(alg config.HashAlgorithm, size, splits uint64, f *os.File) (string, error) {
	h, err := newHash(alg)
	if err != nil {
		return "", err
	}

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	fileLen := uint64(info.Size())

	readWhole := fileLen == 0 || size == 0 || splits == 0 || splits >= fileLen || fileLen/splits < size
	if readWhole {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
		if _, err := io.Copy(h, f); err != nil {
			return "", fmt.Errorf("hasher: reading %s: %w", f.Name(), err)
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}

	indexStep := fileLen / splits
	if indexStep == 0 {
		indexStep = 1
	}

	windowSize := size
	if indexStep*(splits-1)+windowSize > fileLen {
		windowSize = fileLen - indexStep*(splits-1)
	}

	buf := make([]byte, windowSize)
	for i := uint64(0); i < splits; i++ {
		offset := i * indexStep
		if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
			return "", err
		}
		if _, err := io.ReadFull(f, buf); err != nil {
			return "", fmt.Errorf("hasher: reading window %d of %s: %w", i, f.Name(), err)
		}
		h.Write(buf)
	}

	var lenSuffix [8]byte
	binary.LittleEndian.PutUint64(lenSuffix[:], fileLen)
	h.Write(lenSuffix[:])

	return hex.EncodeToString(h.Sum(nil)), nil
}
