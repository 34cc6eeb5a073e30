package ir

import (
	"testing"
	"time"

	"github.com/rabidaudio/irmp3/rtos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func play(t *testing.T, d *Decoder, op Opcode, base time.Duration) {
	t.Helper()
	edges, err := Encode(op, d.BitThreshold)
	require.NoError(t, err)
	for _, e := range edges {
		d.HandleEdge(e.Rising, base+e.At)
	}
}

func drain(q *rtos.Queue[Opcode]) []Opcode {
	var out []Opcode
	for {
		op, ok := q.TryPop()
		if !ok {
			return out
		}
		out = append(out, op)
	}
}

func TestDecodeEveryButton(t *testing.T) {
	q := rtos.NewQueue[Opcode](len(Buttons()) + 1)
	d := NewDecoder(q)

	var base time.Duration
	for _, op := range Buttons() {
		play(t, d, op, base)
		base += 200 * time.Millisecond
	}
	assert.Equal(t, Buttons(), drain(q))
	assert.Equal(t, uint32(len(Buttons())), d.Forwarded())
}

func TestDebounceWithinWindow(t *testing.T) {
	q := rtos.NewQueue[Opcode](10)
	d := NewDecoder(q)

	play(t, d, VolumeUp, 0)
	play(t, d, VolumeUp, 50*time.Millisecond)
	assert.Equal(t, []Opcode{VolumeUp}, drain(q))
}

func TestDebounceBeyondWindow(t *testing.T) {
	q := rtos.NewQueue[Opcode](10)
	d := NewDecoder(q)

	play(t, d, VolumeUp, 0)
	play(t, d, VolumeUp, 150*time.Millisecond)
	play(t, d, VolumeUp, 300*time.Millisecond)
	assert.Equal(t, []Opcode{VolumeUp, VolumeUp, VolumeUp}, drain(q))
}

func TestDifferentOpcodesBypassDebounce(t *testing.T) {
	q := rtos.NewQueue[Opcode](10)
	d := NewDecoder(q)

	play(t, d, Left, 0)
	play(t, d, Right, 50*time.Millisecond)
	play(t, d, Left, 100*time.Millisecond)
	assert.Equal(t, []Opcode{Left, Right, Left}, drain(q))
}

func TestDebounceRestartsFromLastForward(t *testing.T) {
	q := rtos.NewQueue[Opcode](10)
	d := NewDecoder(q)

	// a held button: frames every 50ms, forwarded at most once per 100ms
	for i := 0; i < 5; i++ {
		play(t, d, Next, time.Duration(i)*50*time.Millisecond)
	}
	assert.Equal(t, []Opcode{Next, Next}, drain(q))
}

func TestResyncAfterNoise(t *testing.T) {
	q := rtos.NewQueue[Opcode](10)
	d := NewDecoder(q)

	// twenty stray pulses, long enough to complete a bogus frame
	var at time.Duration
	for i := 0; i < 20; i++ {
		d.HandleEdge(true, at)
		w := 300 * time.Microsecond
		if i%3 == 0 {
			w = 900 * time.Microsecond
		}
		d.HandleEdge(false, at+w)
		at += w + pulseGap
	}

	play(t, d, Mute, at+time.Millisecond)
	got := drain(q)
	require.NotEmpty(t, got)
	assert.Equal(t, Mute, got[len(got)-1])
}

func TestQueueFullIsSilentDrop(t *testing.T) {
	q := rtos.NewQueue[Opcode](1)
	d := NewDecoder(q)

	play(t, d, Left, 0)
	play(t, d, Right, 50*time.Millisecond)
	play(t, d, Left, 100*time.Millisecond)

	assert.Equal(t, []Opcode{Left}, drain(q))
	assert.Equal(t, uint32(1), d.Forwarded())
	assert.Equal(t, uint32(2), d.Dropped())
}

func TestEncodeRejectsHighBit(t *testing.T) {
	_, err := Encode(0x8001, 0)
	assert.Error(t, err)

	edges, err := Encode(Power, 0)
	require.NoError(t, err)
	assert.Len(t, edges, 2*(2*FrameBits-1))
	assert.True(t, edges[0].Rising)
}
