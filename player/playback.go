package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Playback is the open track and how far into it the producer has read.
// It is changed only by tasks holding the storage lock. The internal mutex
// only keeps snapshots consistent.
type Playback struct {
	mtx        sync.Mutex
	track      int
	size       int64
	consumed   int64
	generation uint64
	loaded     bool
	auto       bool
	requested  uint64
	file       io.ReadSeekCloser
	changed    chan struct{} // closed and replaced on every load
}

// PlaybackSnapshot is a consistent copy of a Playback.
type PlaybackSnapshot struct {
	Track    int
	Size     int64
	Consumed int64
	// Generation counts track loads, so readers can tell a reload of the
	// same track from no change at all.
	Generation uint64
	Loaded     bool
	// Auto is set when the player chose the track itself.
	Auto bool
	// Requested counts loads the listener asked for.
	Requested uint64
}

func NewPlayback() *Playback {
	return &Playback{changed: make(chan struct{})}
}

func (p *Playback) Snapshot() PlaybackSnapshot {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return PlaybackSnapshot{
		Track:      p.track,
		Size:       p.size,
		Consumed:   p.consumed,
		Generation: p.generation,
		Loaded:     p.loaded,
		Auto:       p.auto,
		Requested:  p.requested,
	}
}

// WaitChange blocks until the generation moves past gen, the timeout
// elapses or ctx is done. It reports whether a change happened.
func (p *Playback) WaitChange(ctx context.Context, gen uint64, timeout time.Duration) bool {
	p.mtx.Lock()
	if p.generation != gen {
		p.mtx.Unlock()
		return true
	}
	ch := p.changed
	p.mtx.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
	case <-ctx.Done():
	}
	return false
}

// load replaces the open track. A nil file marks the track as unplayable:
// it has size 0 and the producer moves past it. auto is false when the
// listener asked for the track. The caller holds the storage lock.
func (p *Playback) load(track int, file io.ReadSeekCloser, size int64, auto bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.file != nil {
		p.file.Close()
	}
	p.track = track
	p.file = file
	p.size = size
	p.consumed = 0
	p.loaded = true
	p.auto = auto
	if !auto {
		p.requested++
	}
	p.generation++
	close(p.changed)
	p.changed = make(chan struct{})
}

// read fills buf from the open track and returns the bytes read along with
// the generation they belong to. A short count means the end of the track.
// On failure the file is rewound to the last good offset so the next
// attempt rereads the same bytes. The caller holds the storage lock.
func (p *Playback) read(buf []byte) (int, uint64, error) {
	p.mtx.Lock()
	file, gen, consumed, size := p.file, p.generation, p.consumed, p.size
	p.mtx.Unlock()
	if file == nil {
		return 0, gen, errors.New("player: no open track")
	}
	if remaining := size - consumed; int64(len(buf)) > remaining {
		buf = buf[:remaining]
	}

	n, err := io.ReadFull(file, buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// the file is shorter than it was when opened
		err = nil
		consumed = size - int64(n)
	case err != nil:
		if _, serr := file.Seek(consumed, io.SeekStart); serr != nil {
			err = fmt.Errorf("%w (rewind: %v)", err, serr)
		}
		return 0, gen, err
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.generation == gen {
		p.consumed = consumed + int64(n)
	}
	return n, gen, nil
}

func (p *Playback) close() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
}
