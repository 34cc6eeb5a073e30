package catalog

import (
	"bytes"
	"errors"
	"fmt"
)

// TagSize is the length of the ID3v1 block at the end of a track.
const TagSize = 128

var ErrNoTag = errors.New("catalog: no ID3v1 tag")

// Tag is an ID3v1.1 trailer.
type Tag struct {
	Header  string
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Zero    byte
	Track   byte
	Genre   byte
}

// ParseTag decodes a 128-byte trailer. It returns ErrNoTag, along with the
// fields as read, when the block does not start with "TAG".
func ParseTag(b []byte) (Tag, error) {
	if len(b) != TagSize {
		return Tag{}, fmt.Errorf("catalog: tag is %d bytes, want %d", len(b), TagSize)
	}
	t := Tag{
		Header:  string(b[0:3]),
		Title:   text(b[3:33]),
		Artist:  text(b[33:63]),
		Album:   text(b[63:93]),
		Year:    text(b[93:97]),
		Comment: text(b[97:125]),
		Zero:    b[125],
		Track:   b[126],
		Genre:   b[127],
	}
	if !t.Valid() {
		return t, ErrNoTag
	}
	return t, nil
}

// Valid reports whether the header marks a real tag.
func (t Tag) Valid() bool {
	return t.Header == "TAG"
}

// MarshalBinary encodes the tag as a 128-byte trailer. Fields are truncated
// to their slots.
func (t Tag) MarshalBinary() ([]byte, error) {
	b := make([]byte, TagSize)
	copy(b[0:3], "TAG")
	copy(b[3:33], t.Title)
	copy(b[33:63], t.Artist)
	copy(b[63:93], t.Album)
	copy(b[93:97], t.Year)
	copy(b[97:125], t.Comment)
	b[125] = t.Zero
	b[126] = t.Track
	b[127] = t.Genre
	return b, nil
}

func text(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimRight(b, " "))
}
