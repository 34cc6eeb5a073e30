package mock

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabidaudio/irmp3/catalog"
)

var _ catalog.FS = (*Volume)(nil)

// ErrRead is returned by reads while a Volume's FailReads counter is
// positive.
var ErrRead = errors.New("mock: read error")

// Volume is a flat in-memory filesystem.
type Volume struct {
	// FailReads makes that many of the next reads fail.
	FailReads atomic.Int32
	// FailList makes ReadDir fail.
	FailList bool

	mu    sync.Mutex
	files map[string][]byte
	order []string
	opens int
}

func NewVolume() *Volume {
	return &Volume{files: map[string][]byte{}}
}

// Add stores a file in the root directory. Files are listed in the order
// they were added.
func (v *Volume) Add(name string, data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.files[name]; !ok {
		v.order = append(v.order, name)
	}
	v.files[name] = data
}

func (v *Volume) ReadDir(dir string) ([]os.FileInfo, error) {
	if v.FailList {
		return nil, fs.ErrPermission
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	infos := make([]os.FileInfo, 0, len(v.order))
	for _, name := range v.order {
		infos = append(infos, fileInfo{name: name, size: int64(len(v.files[name]))})
	}
	return infos, nil
}

func (v *Volume) Open(name string) (io.ReadSeekCloser, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	data, ok := v.files[path.Base(name)]
	if !ok {
		return nil, fs.ErrNotExist
	}
	v.opens++
	return &file{Reader: bytes.NewReader(data), vol: v}, nil
}

// Opens counts successful Open calls.
func (v *Volume) Opens() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opens
}

type file struct {
	*bytes.Reader
	vol    *Volume
	closed bool
}

func (f *file) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if f.vol.FailReads.Load() > 0 && f.vol.FailReads.Add(-1) >= 0 {
		return 0, ErrRead
	}
	return f.Reader.Read(p)
}

func (f *file) Close() error {
	f.closed = true
	return nil
}

type fileInfo struct {
	name string
	size int64
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) Mode() fs.FileMode  { return 0o444 }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return false }
func (fi fileInfo) Sys() any           { return nil }
