// Package player runs the player's tasks: the audio producer and consumer,
// the settings coordinator and the input dispatcher. Everything they share
// lives in a Context built by the entry point.
package player

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabidaudio/irmp3/catalog"
	"github.com/rabidaudio/irmp3/display"
	"github.com/rabidaudio/irmp3/ir"
	"github.com/rabidaudio/irmp3/menu"
	"github.com/rabidaudio/irmp3/rtos"
	"github.com/rabidaudio/irmp3/settings"
	"github.com/sirupsen/logrus"
)

const (
	ChunkSize = 512

	ChunkQueueLen    = 2
	OpcodeQueueLen   = 10
	SettingsQueueLen = 10
)

// Device is the audio decoder.
type Device interface {
	// Ready reports whether the device can take another 32 bytes.
	Ready() bool
	SendData(ctx context.Context, p []byte) error
	SetVolume(ctx context.Context, v uint8) error
	SetBass(ctx context.Context, amp, freq uint8) error
	SetTreble(ctx context.Context, amp int8, freq uint8) error
}

// ToneTester is a device with a built-in test tone. Init returns it to
// normal decoding.
type ToneTester interface {
	SineTest(ctx context.Context, freq uint8, duration time.Duration) error
	Init(ctx context.Context) error
}

// Chunk is one read's worth of a track. Only the last chunk of a track may
// be short.
type Chunk struct {
	Data [ChunkSize]byte
	Len  int
}

func (c *Chunk) Bytes() []byte {
	return c.Data[:c.Len]
}

// Params are the audio parameters last applied to the device. Volume is in
// device units; Bass and Treble are levels.
type Params struct {
	Volume uint8
	Bass   uint8
	Treble uint8
}

// Context is the state shared by the player's tasks.
type Context struct {
	Device  Device
	Volume  catalog.FS
	Catalog *catalog.Catalog
	Display display.Display
	Log     logrus.FieldLogger

	Opcodes  *rtos.Queue[ir.Opcode]
	Settings *rtos.Queue[settings.Command]
	Chunks   *rtos.Queue[Chunk]

	// BusLock guards the decoder's serial bus, StorageLock the volume and
	// Playback.
	BusLock     *rtos.Mutex
	StorageLock *rtos.Mutex

	Playback *Playback

	// ReadyTimeout bounds the producer's wait for the device.
	ReadyTimeout time.Duration
	// RetryDelay is how long the producer waits after a failed read.
	RetryDelay time.Duration
	// TrackWait is how long the producer waits for a requested track
	// change before asking again.
	TrackWait time.Duration

	// control-surface levels at power-on
	InitialVolume uint8
	InitialBass   uint8
	InitialTreble uint8

	// StorageErr, if set before Start, is shown in place of the splash.
	StorageErr error

	// Producer is set by Start so the dispatcher can pause it.
	Producer *rtos.Task

	paramsMtx sync.Mutex
	params    Params
	menu      atomic.Pointer[menu.State]
}

// New builds a Context with the standard queue sizes.
func New(dev Device, vol catalog.FS, cat *catalog.Catalog, disp display.Display, log logrus.FieldLogger) *Context {
	return &Context{
		Device:        dev,
		Volume:        vol,
		Catalog:       cat,
		Display:       disp,
		Log:           log,
		Opcodes:       rtos.NewQueue[ir.Opcode](OpcodeQueueLen),
		Settings:      rtos.NewQueue[settings.Command](SettingsQueueLen),
		Chunks:        rtos.NewQueue[Chunk](ChunkQueueLen),
		BusLock:       rtos.NewMutex("bus"),
		StorageLock:   rtos.NewMutex("storage"),
		Playback:      NewPlayback(),
		ReadyTimeout:  500 * time.Millisecond,
		RetryDelay:    50 * time.Millisecond,
		TrackWait:     250 * time.Millisecond,
		InitialBass:   settings.MinLevel,
		InitialTreble: settings.FlatLevel,
	}
}

// Start spawns the player's tasks and queues the initial settings and the
// first track.
func (c *Context) Start(g *rtos.Group) {
	s := menu.Initial(c.Catalog.Len(), c.InitialVolume, c.InitialBass, c.InitialTreble)
	c.menu.Store(&s)

	initial := []settings.Command{
		settings.SetVolume(settings.VolumeValue(s.Volume)),
		settings.SetBass(s.Bass),
		settings.SetTreble(s.Treble),
	}
	if c.Catalog.Len() > 0 {
		initial = append(initial, settings.AdvanceTrack(0))
	}
	for _, cmd := range initial {
		c.Settings.TryPush(cmd)
	}

	c.Producer = g.Spawn("producer", rtos.PriorityLow, c.produce)
	g.Spawn("consumer", rtos.PriorityNormal, c.consume)
	g.Spawn("settings", rtos.PriorityLow, c.coordinate)
	g.Spawn("dispatcher", rtos.PriorityHigh, c.dispatch)
}

// Params returns the audio parameters last applied.
func (c *Context) Params() Params {
	c.paramsMtx.Lock()
	defer c.paramsMtx.Unlock()
	return c.params
}

func (c *Context) setParams(fn func(*Params)) {
	c.paramsMtx.Lock()
	defer c.paramsMtx.Unlock()
	fn(&c.params)
}

// Status is a diagnostic snapshot of the player.
type Status struct {
	Playback       PlaybackSnapshot
	Params         Params
	Menu           menu.State
	Paused         bool
	OpcodesQueued  int
	SettingsQueued int
	ChunksQueued   int
	BusHolder      string
	StorageHolder  string
}

func (c *Context) Status() Status {
	st := Status{
		Playback:       c.Playback.Snapshot(),
		Params:         c.Params(),
		OpcodesQueued:  c.Opcodes.Len(),
		SettingsQueued: c.Settings.Len(),
		ChunksQueued:   c.Chunks.Len(),
		BusHolder:      c.BusLock.Holder(),
		StorageHolder:  c.StorageLock.Holder(),
	}
	if m := c.menu.Load(); m != nil {
		st.Menu = *m
	}
	if c.Producer != nil {
		st.Paused = c.Producer.Suspended()
	}
	return st
}

// Close releases the open track.
func (c *Context) Close() {
	c.Playback.close()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
