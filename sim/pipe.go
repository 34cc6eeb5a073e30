package sim

import (
	"context"
	"io"
	"sync"
)

// pipe carries compressed audio from SendData to the software decoder. It
// holds a fixed number of writes; while it has room the device reports
// ready, like DREQ on the real chip.
type pipe struct {
	ch   chan []byte
	cur  []byte
	done chan struct{}
	once sync.Once
}

func newPipe(depth int) *pipe {
	return &pipe{
		ch:   make(chan []byte, depth),
		done: make(chan struct{}),
	}
}

func (p *pipe) Ready() bool {
	return len(p.ch) < cap(p.ch)
}

// Write queues a copy of b, blocking while the pipe is full.
func (p *pipe) Write(ctx context.Context, b []byte) error {
	select {
	case <-p.done:
		return io.ErrClosedPipe
	default:
	}
	buf := append([]byte(nil), b...)
	select {
	case p.ch <- buf:
		return nil
	case <-p.done:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Read blocks until data arrives or the pipe is closed.
func (p *pipe) Read(b []byte) (int, error) {
	for len(p.cur) == 0 {
		select {
		case buf := <-p.ch:
			p.cur = buf
		case <-p.done:
			return 0, io.EOF
		}
	}
	n := copy(b, p.cur)
	p.cur = p.cur[n:]
	return n, nil
}

func (p *pipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// pcmStream plays decoded blocks. When none is waiting it plays silence
// rather than stall the speaker, which would hold the speaker lock.
type pcmStream struct {
	ch  chan [][2]float64
	cur [][2]float64
}

func (s *pcmStream) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		if len(s.cur) == 0 {
			select {
			case s.cur = <-s.ch:
			default:
				clear(samples[n:])
				return len(samples), true
			}
		}
		c := copy(samples[n:], s.cur)
		s.cur = s.cur[c:]
		n += c
	}
	return n, true
}

func (s *pcmStream) Err() error { return nil }
