package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rabidaudio/irmp3/catalog"
	"github.com/rabidaudio/irmp3/display"
	"github.com/rabidaudio/irmp3/ir"
	"github.com/rabidaudio/irmp3/menu"
	"github.com/rabidaudio/irmp3/mock"
	"github.com/rabidaudio/irmp3/rtos"
	"github.com/rabidaudio/irmp3/settings"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = time.Millisecond
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func trackData(track, size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(i*7 + track*31)
	}
	return b
}

type rig struct {
	*Context
	dev    *mock.Device
	vol    *mock.Volume
	grid   *display.Grid
	tracks [][]byte
}

func newRig(t *testing.T, sizes ...int) *rig {
	r := &rig{dev: &mock.Device{}, vol: mock.NewVolume(), grid: display.NewGrid()}
	for i, size := range sizes {
		data := trackData(i, size)
		r.tracks = append(r.tracks, data)
		r.vol.Add(fmt.Sprintf("track%02d.mp3", i), data)
	}
	cat, err := catalog.Scan(r.vol, "/", quietLog())
	require.NoError(t, err)
	require.Equal(t, len(sizes), cat.Len())

	r.Context = New(r.dev, r.vol, cat, r.grid, quietLog())
	r.ReadyTimeout = 20 * time.Millisecond
	r.RetryDelay = time.Millisecond
	r.TrackWait = 20 * time.Millisecond
	return r
}

func (r *rig) start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := rtos.NewGroup(ctx, quietLog())
	r.Start(g)
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, g.Wait())
		r.Close()
	})
}

func TestApplyClampsParams(t *testing.T) {
	r := newRig(t, 100)
	ctx := context.Background()

	require.NoError(t, r.Apply(ctx, settings.SetVolume(250)))
	require.NoError(t, r.Apply(ctx, settings.SetBass(42)))
	require.NoError(t, r.Apply(ctx, settings.SetTreble(2)))

	assert.Equal(t, []mock.Setting{
		{Name: "volume", Value: 100},
		{Name: "bass", Value: 10, Freq: settings.BassFreq},
		{Name: "treble", Value: -3, Freq: settings.TrebleFreq},
	}, r.dev.Settings())
	assert.Equal(t, Params{Volume: 100, Bass: 10, Treble: 2}, r.Params())
	assert.Equal(t, "", r.BusLock.Holder())
}

func TestApplyDeviceFailure(t *testing.T) {
	r := newRig(t, 100)
	r.dev.Fail.Store(true)
	assert.ErrorIs(t, r.Apply(context.Background(), settings.SetVolume(30)), mock.ErrDevice)
	assert.Equal(t, Params{}, r.Params())
	// the lock is released on the error path
	assert.Equal(t, "", r.BusLock.Holder())
}

func TestApplyTrackChange(t *testing.T) {
	r := newRig(t, 1000, 600)
	ctx := context.Background()

	require.NoError(t, r.Apply(ctx, settings.ChangeTrack(1)))
	snap := r.Playback.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, 1, snap.Track)
	assert.Equal(t, int64(600), snap.Size)
	assert.Equal(t, int64(0), snap.Consumed)

	// out of range indexes wrap into the catalogue
	require.NoError(t, r.Apply(ctx, settings.ChangeTrack(4)))
	next := r.Playback.Snapshot()
	assert.Equal(t, 0, next.Track)
	assert.Equal(t, int64(1000), next.Size)
	assert.Greater(t, next.Generation, snap.Generation)
	assert.Equal(t, "", r.StorageLock.Holder())
}

func TestApplyTrackChangeWithoutTracks(t *testing.T) {
	r := newRig(t)
	assert.ErrorIs(t, r.Apply(context.Background(), settings.ChangeTrack(0)), ErrNoTracks)
	assert.False(t, r.Playback.Snapshot().Loaded)
}

func TestApplyUnknownKind(t *testing.T) {
	r := newRig(t, 10)
	assert.Error(t, r.Apply(context.Background(), settings.Command{Kind: 9}))
}

func TestPlaybackRead(t *testing.T) {
	r := newRig(t, 1300)
	require.NoError(t, r.Apply(context.Background(), settings.ChangeTrack(0)))

	var chunk Chunk
	var got []byte
	for r.Playback.Snapshot().Consumed < 1300 {
		n, _, err := r.Playback.read(chunk.Data[:])
		require.NoError(t, err)
		chunk.Len = n
		got = append(got, chunk.Bytes()...)
	}
	assert.Equal(t, r.tracks[0], got)
	assert.Equal(t, 276, chunk.Len)
}

func TestPlaybackWaitChange(t *testing.T) {
	p := NewPlayback()
	assert.False(t, p.WaitChange(context.Background(), 0, time.Millisecond))

	go p.load(0, nil, 0, true)
	assert.True(t, p.WaitChange(context.Background(), 0, waitFor))
	assert.True(t, p.WaitChange(context.Background(), 0, 0))
}

func TestStreamsTracksInOrder(t *testing.T) {
	r := newRig(t, 1300, 700)
	r.start(t)

	total := 1300 + 700 + 1300
	require.Eventually(t, func() bool { return len(r.dev.Data()) >= total }, waitFor, tick)

	data := r.dev.Data()
	assert.Equal(t, r.tracks[0], data[:1300])
	assert.Equal(t, r.tracks[1], data[1300:2000])
	// wraps back to the first track
	assert.Equal(t, r.tracks[0], data[2000:3300])
	assert.Equal(t, 0, r.dev.Overlaps())
}

func TestInitialSettingsApplied(t *testing.T) {
	r := newRig(t, 100)
	r.InitialVolume = 3
	r.InitialBass = 4
	r.InitialTreble = 5
	r.start(t)

	require.Eventually(t, func() bool { return len(r.dev.Settings()) >= 3 }, waitFor, tick)
	assert.Equal(t, []mock.Setting{
		{Name: "volume", Value: 30},
		{Name: "bass", Value: 4, Freq: settings.BassFreq},
		{Name: "treble", Value: 0, Freq: settings.TrebleFreq},
	}, r.dev.Settings()[:3])
}

func TestReadErrorsRetry(t *testing.T) {
	r := newRig(t, 2000)
	r.vol.FailReads.Store(3)
	r.start(t)

	require.Eventually(t, func() bool { return len(r.dev.Data()) >= 2000 }, waitFor, tick)
	assert.Equal(t, r.tracks[0], r.dev.Data()[:2000])
}

func TestUnreadableTrackSkipped(t *testing.T) {
	r := newRig(t, 600, 600)
	// drop the first file after cataloguing it
	r.Volume = &missing{FS: r.vol, name: "/track00.mp3"}
	r.start(t)

	require.Eventually(t, func() bool { return len(r.dev.Data()) >= 600 }, waitFor, tick)
	assert.Equal(t, r.tracks[1], r.dev.Data()[:600])
}

type missing struct {
	catalog.FS
	name string
}

func (m *missing) Open(name string) (io.ReadSeekCloser, error) {
	if name == m.name {
		return nil, fmt.Errorf("gone")
	}
	return m.FS.Open(name)
}

func TestPauseDrainsQueuedChunks(t *testing.T) {
	r := newRig(t, 100*ChunkSize)
	gate := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	r.dev.Sent = func([]byte) { <-gate }
	r.start(t)
	t.Cleanup(release)

	// consumer stuck on the first chunk, two more queued
	require.Eventually(t, func() bool { return r.Chunks.Len() == ChunkQueueLen }, waitFor, tick)

	require.True(t, r.Press(ir.PlayPause))
	require.Eventually(t, func() bool { return r.Status().Paused }, waitFor, tick)
	release()

	// the in-flight chunk and the queued ones play; the push that was
	// already blocked when the pause arrived does not land
	require.Eventually(t, func() bool { return r.Chunks.Len() == 0 && r.dev.Chunks() == 1+ChunkQueueLen }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	sent := r.dev.Chunks()
	assert.Equal(t, 1+ChunkQueueLen, sent)
	assert.Equal(t, 0, r.Chunks.Len())
	assert.Equal(t, r.tracks[0][:sent*ChunkSize], r.dev.Data())

	require.True(t, r.Press(ir.PlayPause))
	require.Eventually(t, func() bool { return r.dev.Chunks() > sent }, waitFor, tick)
	assert.False(t, r.Status().Paused)
}

func TestDeviceNotReadyHoldsProducer(t *testing.T) {
	r := newRig(t, 10*ChunkSize)
	r.dev.NotReady.Store(true)
	r.start(t)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, r.dev.Chunks())
	assert.Equal(t, 0, r.Chunks.Len())

	r.dev.NotReady.Store(false)
	require.Eventually(t, func() bool { return r.dev.Chunks() >= 10 }, waitFor, tick)
}

func TestDispatcherNextTrack(t *testing.T) {
	r := newRig(t, 50*ChunkSize, 50*ChunkSize, 50*ChunkSize)
	// hold the producer so tracks never end on their own
	r.dev.NotReady.Store(true)
	r.start(t)
	require.Eventually(t, func() bool { return r.Playback.Snapshot().Loaded }, waitFor, tick)

	require.True(t, r.Press(ir.Next))
	require.Eventually(t, func() bool { return r.Playback.Snapshot().Track == 1 }, waitFor, tick)
	require.Eventually(t, func() bool { return r.Status().Menu.Track == 1 }, waitFor, tick)

	require.True(t, r.Press(ir.Previous))
	require.True(t, r.Press(ir.Previous))
	require.Eventually(t, func() bool { return r.Playback.Snapshot().Track == 2 }, waitFor, tick)
}

func TestDispatcherScreens(t *testing.T) {
	r := newRig(t, 100, 100, 100)
	r.dev.NotReady.Store(true)
	r.start(t)

	require.True(t, r.Press(ir.Source))
	require.Eventually(t, func() bool { return r.Status().Menu.Screen == menu.TrackList }, waitFor, tick)
	assert.Equal(t, ">track00", r.grid.Line(0))
	assert.Equal(t, " track02", r.grid.Line(2))

	require.True(t, r.Press(ir.Right))
	require.True(t, r.Press(ir.Right))
	require.True(t, r.Press(ir.SelectTrack))
	require.Eventually(t, func() bool { return r.Status().Menu.Screen == menu.TrackInfo }, waitFor, tick)
	assert.Equal(t, "Title: track02", r.grid.Line(1))
	require.Eventually(t, func() bool { return r.Playback.Snapshot().Track == 2 }, waitFor, tick)
}

func TestDispatcherVolume(t *testing.T) {
	r := newRig(t, 20*ChunkSize)
	r.InitialVolume = 5
	r.start(t)

	for i := 0; i < 3; i++ {
		require.True(t, r.Press(ir.VolumeUp))
	}
	require.Eventually(t, func() bool { return r.Params().Volume == 20 }, waitFor, tick)

	require.True(t, r.Press(ir.Mute))
	require.Eventually(t, func() bool { return r.Params().Volume == settings.MuteValue }, waitFor, tick)
	require.True(t, r.Press(ir.Mute))
	require.Eventually(t, func() bool { return r.Params().Volume == 20 }, waitFor, tick)
	assert.Equal(t, 0, r.dev.Overlaps())
}

func TestDispatcherStorageError(t *testing.T) {
	r := newRig(t)
	r.StorageErr = errors.New("no card")
	r.start(t)

	require.Eventually(t, func() bool { return r.grid.Line(0) == "ERROR" }, waitFor, tick)
	assert.Equal(t, "Storage:", r.grid.Line(1))
	assert.Equal(t, "no card", r.grid.Line(2))
}

// startDispatcher runs only the input dispatcher so a test can apply the
// queued settings commands itself.
func (r *rig) startDispatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := rtos.NewGroup(ctx, quietLog())
	s := menu.Initial(r.Catalog.Len(), r.InitialVolume, r.InitialBass, r.InitialTreble)
	r.menu.Store(&s)
	// an idle producer for the dispatcher to pause and resume
	r.Producer = g.Spawn("producer", rtos.PriorityLow, func(ctx context.Context, _ *rtos.Task) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.Spawn("dispatcher", rtos.PriorityHigh, r.dispatch)
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, g.Wait())
		r.Close()
	})
}

// press queues op and waits for the dispatcher to queue n settings commands.
func (r *rig) press(t *testing.T, op ir.Opcode, n int) {
	require.True(t, r.Press(op))
	require.Eventually(t, func() bool { return r.Settings.Len() == n }, waitFor, tick)
}

func (r *rig) applyQueued(t *testing.T) []settings.Command {
	var applied []settings.Command
	for {
		cmd, ok := r.Settings.TryPop()
		if !ok {
			return applied
		}
		require.NoError(t, r.Apply(context.Background(), cmd))
		applied = append(applied, cmd)
	}
}

func TestDispatcherKeepsQueuedTrackRequests(t *testing.T) {
	r := newRig(t, 100, 100, 100, 100, 100, 100)
	r.startDispatcher(t)
	require.NoError(t, r.Apply(context.Background(), settings.AdvanceTrack(0)))

	r.press(t, ir.Next, 1)
	r.press(t, ir.Next, 2)
	cmd, ok := r.Settings.TryPop()
	require.True(t, ok)
	require.NoError(t, r.Apply(context.Background(), cmd))

	// the second request is still queued when the first lands
	r.press(t, ir.Next, 2)
	assert.Equal(t, []settings.Command{settings.ChangeTrack(2), settings.ChangeTrack(3)}, r.applyQueued(t))
	assert.Equal(t, 3, r.Playback.Snapshot().Track)
}

func TestDispatcherFollowsAutoplay(t *testing.T) {
	r := newRig(t, 100, 100, 100, 100, 100, 100)
	r.startDispatcher(t)
	require.NoError(t, r.Apply(context.Background(), settings.AdvanceTrack(0)))

	// end of track moves playback on; the next press starts from there
	require.NoError(t, r.Apply(context.Background(), settings.AdvanceTrack(3)))
	r.press(t, ir.Next, 1)
	assert.Equal(t, []settings.Command{settings.ChangeTrack(4)}, r.applyQueued(t))

	// an automatic advance landing ahead of a queued request is not adopted
	r.press(t, ir.Next, 1)
	require.NoError(t, r.Apply(context.Background(), settings.AdvanceTrack(0)))
	r.press(t, ir.Next, 2)
	assert.Equal(t, []settings.Command{settings.ChangeTrack(5), settings.ChangeTrack(0)}, r.applyQueued(t))
	assert.Equal(t, 0, r.Playback.Snapshot().Track)
}

func TestSineTestRestoresParams(t *testing.T) {
	r := newRig(t, 10)
	ctx := context.Background()
	require.NoError(t, r.Apply(ctx, settings.SetVolume(30)))
	require.NoError(t, r.Apply(ctx, settings.SetBass(4)))
	require.NoError(t, r.Apply(ctx, settings.SetTreble(7)))

	require.NoError(t, r.SineTest(ctx, 0x44, time.Millisecond))
	bassAmp, bassFreq := settings.BassNibbles(4)
	trebleAmp, trebleFreq := settings.TrebleNibbles(7)
	assert.Equal(t, []mock.Setting{
		{Name: "sine", Value: 0x44},
		{Name: "init"},
		{Name: "volume", Value: 30},
		{Name: "bass", Value: int(bassAmp), Freq: bassFreq},
		{Name: "treble", Value: int(trebleAmp), Freq: trebleFreq},
	}, r.dev.Settings()[3:])
	assert.Equal(t, "", r.BusLock.Holder())
}

func TestSineTestUnsupported(t *testing.T) {
	r := newRig(t, 10)
	r.Device = struct{ Device }{r.dev}
	assert.ErrorIs(t, r.SineTest(context.Background(), 0x44, time.Millisecond), ErrNoSineTest)
}
