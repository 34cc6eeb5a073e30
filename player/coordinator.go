package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rabidaudio/irmp3/rtos"
	"github.com/rabidaudio/irmp3/settings"
)

var (
	ErrNoTracks   = errors.New("player: no tracks")
	ErrNoSineTest = errors.New("player: device has no test tone")
)

// coordinate applies settings commands one at a time, in arrival order.
func (c *Context) coordinate(ctx context.Context, t *rtos.Task) error {
	log := c.Log.WithField("task", t.Name)
	for {
		cmd, err := c.Settings.Pop(ctx)
		if err != nil {
			return err
		}
		if err := c.Apply(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).WithField("command", cmd).Warn("command failed")
			continue
		}
		log.WithField("command", cmd).Debug("applied")
	}
}

// Apply carries out one command. Device parameters are written under the
// bus lock and track changes are made under the storage lock. Values are
// clamped to their ranges first.
func (c *Context) Apply(ctx context.Context, cmd settings.Command) error {
	switch cmd.Kind {
	case settings.Volume, settings.Bass, settings.Treble:
		if err := c.BusLock.Lock(ctx, "settings"); err != nil {
			return err
		}
		defer c.BusLock.Unlock()
		return c.applyParam(ctx, cmd)
	case settings.TrackChange:
		if err := c.StorageLock.Lock(ctx, "settings"); err != nil {
			return err
		}
		defer c.StorageLock.Unlock()
		return c.changeTrack(int(cmd.Value), cmd.Auto)
	default:
		return fmt.Errorf("player: unknown command %v", cmd)
	}
}

func (c *Context) applyParam(ctx context.Context, cmd settings.Command) error {
	switch cmd.Kind {
	case settings.Volume:
		v := settings.ClampVolume(cmd.Value)
		if err := c.Device.SetVolume(ctx, v); err != nil {
			return err
		}
		c.setParams(func(p *Params) { p.Volume = v })
	case settings.Bass:
		level := settings.ClampLevel(int(cmd.Value))
		amp, freq := settings.BassNibbles(level)
		if err := c.Device.SetBass(ctx, amp, freq); err != nil {
			return err
		}
		c.setParams(func(p *Params) { p.Bass = level })
	case settings.Treble:
		level := settings.ClampLevel(int(cmd.Value))
		amp, freq := settings.TrebleNibbles(level)
		if err := c.Device.SetTreble(ctx, amp, freq); err != nil {
			return err
		}
		c.setParams(func(p *Params) { p.Treble = level })
	}
	return nil
}

// changeTrack closes the current track and opens index, wrapping it into
// the catalogue. A track that fails to open is loaded as empty so the
// producer skips it.
func (c *Context) changeTrack(index int, auto bool) error {
	count := c.Catalog.Len()
	if count == 0 {
		return ErrNoTracks
	}
	index %= count
	track, _ := c.Catalog.Track(index)
	log := c.Log.WithField("task", "settings").WithField("track", index)

	f, err := c.Volume.Open(track.Path)
	if err != nil {
		c.Playback.load(index, nil, 0, auto)
		return fmt.Errorf("open %v: %w", track.Path, err)
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		f.Close()
		c.Playback.load(index, nil, 0, auto)
		return fmt.Errorf("seek %v: %w", track.Path, err)
	}
	c.Playback.load(index, f, size, auto)
	log.WithField("title", track.Title()).Info("now playing")
	return nil
}

// SineTest plays the device's test tone while holding the bus, then resets
// the device and writes the current volume and tone back. Playback resumes
// where it stopped.
func (c *Context) SineTest(ctx context.Context, freq uint8, duration time.Duration) error {
	tt, ok := c.Device.(ToneTester)
	if !ok {
		return ErrNoSineTest
	}
	if err := c.BusLock.Lock(ctx, "sinetest"); err != nil {
		return err
	}
	defer c.BusLock.Unlock()

	testErr := tt.SineTest(ctx, freq, duration)
	// restore even if ctx ended the tone early
	ctx = context.WithoutCancel(ctx)
	if err := tt.Init(ctx); err != nil {
		return errors.Join(testErr, err)
	}
	p := c.Params()
	for _, cmd := range []settings.Command{
		settings.SetVolume(p.Volume),
		settings.SetBass(p.Bass),
		settings.SetTreble(p.Treble),
	} {
		if err := c.applyParam(ctx, cmd); err != nil {
			return errors.Join(testErr, err)
		}
	}
	c.Log.WithField("freq", freq).WithField("duration", duration).Info("sine test done")
	return testErr
}
