package vs1053_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabidaudio/irmp3/mock"
	"github.com/rabidaudio/irmp3/rtos"
	"github.com/rabidaudio/irmp3/vs1053"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rig struct {
	bus                    *mock.Bus
	xcs, xdcs, reset, dreq *mock.Pin
	dev                    *vs1053.Driver
}

func newRig() *rig {
	r := &rig{
		bus:   &mock.Bus{},
		xcs:   mock.NewPin(true),
		xdcs:  mock.NewPin(true),
		reset: mock.NewPin(true),
		dreq:  mock.NewPin(true),
	}
	r.dev = vs1053.New(r.bus, r.xcs, r.xdcs, r.reset, r.dreq)
	r.dev.Timeout = 20 * time.Millisecond
	return r
}

func TestInit(t *testing.T) {
	r := newRig()
	require.NoError(t, r.dev.Init(context.Background()))

	assert.Equal(t, []byte{
		0x02, vs1053.RegMode, 0x48, 0x00,
		0x02, vs1053.RegClockF, 0x60, 0x00,
	}, r.bus.Sent())
	assert.Equal(t, 1, r.reset.Lows())
	assert.Equal(t, 2, r.xcs.Lows())
	assert.True(t, r.xcs.High())
	assert.True(t, r.xdcs.High())
}

func TestReadRegister(t *testing.T) {
	r := newRig()
	r.bus.Replies = []byte{0, 0, 0x12, 0x34}
	v, err := r.dev.DecodeTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v)
	assert.Equal(t, []byte{0x03, vs1053.RegDecodeTime, 0xFF, 0xFF}, r.bus.Sent())
}

func TestSendDataPollsEveryBurst(t *testing.T) {
	r := newRig()
	chunk := make([]byte, 512)
	for i := range chunk {
		chunk[i] = byte(i)
	}
	require.NoError(t, r.dev.SendData(context.Background(), chunk))

	assert.Equal(t, chunk, r.bus.Sent())
	assert.Equal(t, 512/vs1053.BurstSize, r.dreq.Reads())
	assert.Len(t, r.bus.Writes(), 512/vs1053.BurstSize)
	assert.Equal(t, 1, r.xdcs.Lows())
	assert.True(t, r.xdcs.High())
	assert.Equal(t, 0, r.xcs.Lows())
}

func TestSendDataPartialChunk(t *testing.T) {
	r := newRig()
	require.NoError(t, r.dev.SendData(context.Background(), make([]byte, 33)))
	assert.Len(t, r.bus.Sent(), 33)
	assert.Equal(t, 2, r.dreq.Reads())
	assert.Equal(t, []int{32, 1}, r.bus.Writes())
}

func TestSendDataWriteError(t *testing.T) {
	r := newRig()
	r.bus.WriteErr = errors.New("spi fault")

	err := r.dev.SendData(context.Background(), make([]byte, 64))
	assert.ErrorIs(t, err, r.bus.WriteErr)
	assert.Equal(t, 1, r.dreq.Reads())
	assert.True(t, r.xdcs.High())
}

func TestSendDataTimesOut(t *testing.T) {
	r := newRig()
	r.dreq.Set(false)

	err := r.dev.SendData(context.Background(), make([]byte, 64))
	assert.ErrorIs(t, err, vs1053.ErrNotReady)
	assert.ErrorIs(t, err, rtos.ErrTimeout)
	assert.Empty(t, r.bus.Sent())
	// data select is released even on failure
	assert.True(t, r.xdcs.High())
}

func TestSetVolume(t *testing.T) {
	r := newRig()
	require.NoError(t, r.dev.SetVolume(context.Background(), 30))
	assert.Equal(t, []byte{0x02, vs1053.RegVolume, 30, 30}, r.bus.Sent())
}

func TestToneKeepsOtherHalf(t *testing.T) {
	r := newRig()
	ctx := context.Background()

	require.NoError(t, r.dev.SetBass(ctx, 7, 6))
	assert.Equal(t, uint16(0x0076), r.dev.Tone())

	require.NoError(t, r.dev.SetTreble(ctx, -2, 1))
	assert.Equal(t, uint16(0xE176), r.dev.Tone())

	require.NoError(t, r.dev.SetBass(ctx, 0, 6))
	assert.Equal(t, uint16(0xE106), r.dev.Tone())

	out := r.bus.Sent()
	assert.Equal(t, []byte{0x02, vs1053.RegBass, 0xE1, 0x06}, out[len(out)-4:])
}

func TestToneNotCachedOnFailure(t *testing.T) {
	r := newRig()
	r.dreq.Set(false)
	assert.Error(t, r.dev.SetBass(context.Background(), 7, 6))
	assert.Equal(t, uint16(0), r.dev.Tone())
}

func TestSineTest(t *testing.T) {
	r := newRig()
	require.NoError(t, r.dev.SineTest(context.Background(), 0x44, time.Millisecond))
	assert.Equal(t, []byte{
		0x02, vs1053.RegMode, 0x08, 0x24,
		0x53, 0xEF, 0x6E, 0x44, 0, 0, 0, 0,
		0x45, 0x78, 0x69, 0x74, 0, 0, 0, 0,
	}, r.bus.Sent())
	assert.Equal(t, 2, r.xdcs.Lows())
}
