package fileentry

import (
	"io"
	"os"
	"strconv"
	"strings"
)

// AudioTags holds metadata opportunistically read from an audio file's
// ID3v1 trailer. It is never used for duplicate matching — only for
// reporting — so a missing or corrupt tag block is not an error, just a
// nil AudioTags.
type AudioTags struct {
	Title   string
	Artist  string
	Album   string
	Genre   string
	Comment string
	Year    string
}

const id3v1Size = 128

var id3v1Genres = []string{
	"Blues", "Classic Rock", "Country", "Dance", "Disco", "Funk", "Grunge",
	"Hip-Hop", "Jazz", "Metal", "New Age", "Oldies", "Other", "Pop", "R&B",
	"Rap", "Reggae", "Rock", "Techno", "Industrial", "Alternative", "Ska",
}

// readID3v1Tags reads the trailing 128-byte ID3v1 tag block from f, if
// present. It returns nil, nil when the file is too short or the block
// doesn't start with the "TAG" marker.
func readID3v1Tags(f *os.File) (*AudioTags, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < id3v1Size {
		return nil, nil
	}

	buf := make([]byte, id3v1Size)
	if _, err := f.Seek(-id3v1Size, io.SeekEnd); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}

	if string(buf[0:3]) != "TAG" {
		return nil, nil
	}

	tags := &AudioTags{
		Title:   trimTagField(buf[3:33]),
		Artist:  trimTagField(buf[33:63]),
		Album:   trimTagField(buf[63:93]),
		Year:    trimTagField(buf[93:97]),
		Comment: trimTagField(buf[97:125]),
	}
	if genre := int(buf[127]); genre < len(id3v1Genres) {
		tags.Genre = id3v1Genres[genre]
	} else {
		tags.Genre = strconv.Itoa(genre)
	}

	return tags, nil
}

func trimTagField(b []byte) string {
	return strings.TrimRight(string(b), "\x00 ")
}
