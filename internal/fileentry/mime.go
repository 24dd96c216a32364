package fileentry

import (
	"bytes"
	"io"
	"mime"
	"os"
	"path/filepath"
)

const magicSize = 12 // enough to see RIFF's "WAVE" subtype at bytes 8-11

// magicSignature pairs a byte prefix with the MIME type it identifies.
// Checked in order; the first match wins. Used only when the file's
// extension is unknown or unregistered, mirroring read_mime_type's
// extension-first, magic-number-fallback order.
var magicSignatures = []struct {
	prefix []byte
	mime   string
}{
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
	{[]byte("\xff\xd8\xff"), "image/jpeg"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
	{[]byte("BM"), "image/bmp"},
	{[]byte("RIFF"), "audio/wav"}, // narrowed below by checking the WAVE subtype
	{[]byte("ID3"), "audio/mpeg"},
	{[]byte("\xff\xfb"), "audio/mpeg"},
	{[]byte("\xff\xf3"), "audio/mpeg"},
	{[]byte("\xff\xf2"), "audio/mpeg"},
	{[]byte("%PDF"), "application/pdf"},
	{[]byte("PK\x03\x04"), "application/zip"},
}

// detectMIMEType classifies a file's content type by extension first, then
// by a magic-number signature fallback over the first magicSize bytes.
// Extension lookups are
// authoritative when they succeed since they're cheap and nearly always
// correct; the magic-number table only matters for extensionless or
// misnamed files.
func detectMIMEType(path string, f *os.File) (string, error) {
	if ext := filepath.Ext(path); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return t, nil
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	buf := make([]byte, magicSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	buf = buf[:n]

	for _, sig := range magicSignatures {
		if !bytes.HasPrefix(buf, sig.prefix) {
			continue
		}
		if sig.mime == "audio/wav" {
			if len(buf) < 12 || !bytes.Equal(buf[8:12], []byte("WAVE")) {
				continue // RIFF container holding something other than WAVE
			}
		}
		return sig.mime, nil
	}

	return "application/octet-stream", nil
}
