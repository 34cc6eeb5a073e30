package ir

import (
	"testing"
	"time"

	"github.com/rabidaudio/irmp3/rtos"
	"github.com/stretchr/testify/assert"
)

func TestButtonDebounce(t *testing.T) {
	q := rtos.NewQueue[Opcode](10)
	b := NewButtonDebouncer(q, 10*time.Millisecond)

	assert.True(t, b.Press(15, PlayPause, 100*time.Millisecond))
	// contact bounce
	assert.False(t, b.Press(15, PlayPause, 102*time.Millisecond))
	assert.False(t, b.Press(15, PlayPause, 110*time.Millisecond))
	// another button is tracked on its own
	assert.True(t, b.Press(16, Next, 103*time.Millisecond))
	assert.True(t, b.Press(15, PlayPause, 111*time.Millisecond))

	assert.Equal(t, []Opcode{PlayPause, Next, PlayPause}, drain(q))
}

func TestButtonFirstPressAtBoot(t *testing.T) {
	q := rtos.NewQueue[Opcode](1)
	b := NewButtonDebouncer(q, 0)
	assert.Equal(t, DefaultButtonDebounce, b.Window)

	assert.True(t, b.Press(0, Source, 0))
	assert.False(t, b.Press(MaxSources, Source, time.Second))
	assert.False(t, b.Press(-1, Source, time.Second))
}

func TestButtonQueueFull(t *testing.T) {
	q := rtos.NewQueue[Opcode](1)
	b := NewButtonDebouncer(q, time.Millisecond)

	assert.True(t, b.Press(1, Left, 0))
	assert.False(t, b.Press(2, Right, 0))
}
