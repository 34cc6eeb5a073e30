// Package catalog lists the tracks on a volume. The catalogue is built once
// at start-up and never changes afterwards.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// Extension selects track files, compared case-insensitively.
	Extension = ".mp3"
	// MaxNameLen is the longest filename kept.
	MaxNameLen = 256
	// MaxTracks is how many tracks a catalogue holds.
	MaxTracks = 256
)

// FS is the part of a volume the catalogue and player need.
type FS interface {
	ReadDir(dir string) ([]os.FileInfo, error)
	Open(name string) (io.ReadSeekCloser, error)
}

type Track struct {
	Index    int
	Filename string
	Path     string
	Size     int64
	Tag      Tag
}

// Title falls back to the filename without its extension when the tag has
// no title.
func (t Track) Title() string {
	if t.Tag.Valid() && t.Tag.Title != "" {
		return t.Tag.Title
	}
	return strings.TrimSuffix(t.Filename, path.Ext(t.Filename))
}

func (t Track) Artist() string { return t.Tag.Artist }
func (t Track) Album() string  { return t.Tag.Album }

type Catalog struct {
	tracks []Track
}

// New builds a catalogue from tracks, renumbering them in order.
func New(tracks []Track) *Catalog {
	c := &Catalog{tracks: make([]Track, len(tracks))}
	for i, t := range tracks {
		t.Index = i
		c.tracks[i] = t
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tracks)
}

// Track returns the track at index i.
func (c *Catalog) Track(i int) (Track, bool) {
	if i < 0 || i >= c.Len() {
		return Track{}, false
	}
	return c.tracks[i], true
}

// Tracks returns a copy of every track.
func (c *Catalog) Tracks() []Track {
	if c == nil {
		return nil
	}
	return append([]Track(nil), c.tracks...)
}

// Scan lists the track files in dir, in directory order, and reads each
// one's tag. Files that cannot be read are skipped. If dir cannot be listed
// Scan returns an empty catalogue along with the error.
func Scan(fsys FS, dir string, log logrus.FieldLogger) (*Catalog, error) {
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return New(nil), fmt.Errorf("catalog: list %v: %w", dir, err)
	}
	var tracks []Track
	for _, fi := range infos {
		name := fi.Name()
		if fi.IsDir() || !strings.EqualFold(path.Ext(name), Extension) {
			continue
		}
		if len(name) > MaxNameLen {
			log.WithField("file", name[:32]+"...").Warn("name too long, skipping")
			continue
		}
		if len(tracks) == MaxTracks {
			log.WithField("limit", MaxTracks).Warn("too many tracks, ignoring the rest")
			break
		}
		t := Track{Filename: name, Path: path.Join(dir, name), Size: fi.Size()}
		t.Tag, err = readTag(fsys, t.Path, t.Size)
		switch {
		case errors.Is(err, ErrNoTag):
			log.WithField("file", name).Debug("no tag")
		case err != nil:
			log.WithError(err).WithField("file", name).Warn("unreadable, skipping")
			continue
		}
		tracks = append(tracks, t)
	}
	return New(tracks), nil
}

func readTag(fsys FS, name string, size int64) (Tag, error) {
	if size < TagSize {
		return Tag{}, ErrNoTag
	}
	f, err := fsys.Open(name)
	if err != nil {
		return Tag{}, err
	}
	defer f.Close()
	if _, err := f.Seek(-TagSize, io.SeekEnd); err != nil {
		return Tag{}, fmt.Errorf("seek tag: %w", err)
	}
	buf := make([]byte, TagSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return Tag{}, fmt.Errorf("read tag: %w", err)
	}
	return ParseTag(buf)
}
