package player

import (
	"context"
	"errors"

	"github.com/rabidaudio/irmp3/rtos"
	"github.com/rabidaudio/irmp3/settings"
)

// produce reads the open track a chunk at a time and queues each chunk once
// the device is ready for data. At the end of a track it asks the settings
// coordinator for the next one. Suspending the task stops new chunks being
// queued; chunks already queued still play.
func (c *Context) produce(ctx context.Context, t *rtos.Task) error {
	log := c.Log.WithField("task", t.Name)
	var chunk Chunk
	for {
		if err := t.Checkpoint(ctx); err != nil {
			return err
		}
		snap := c.Playback.Snapshot()
		if !snap.Loaded {
			c.Playback.WaitChange(ctx, snap.Generation, c.TrackWait)
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		if snap.Consumed >= snap.Size {
			if err := c.advance(ctx, snap); err != nil {
				return err
			}
			continue
		}

		n, gen, err := c.readChunk(ctx, &chunk)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).WithField("track", snap.Track).Warn("read failed, retrying")
			if err := sleep(ctx, c.RetryDelay); err != nil {
				return err
			}
			continue
		}
		if n == 0 {
			continue
		}
		chunk.Len = n

		if err := c.waitDevice(ctx, t); err != nil {
			return err
		}
		if err := c.push(ctx, t, chunk, gen); err != nil {
			return err
		}
	}
}

// push queues chunk unless its track has been replaced. A pause that
// arrives while the queue is full holds the chunk until the task resumes.
func (c *Context) push(ctx context.Context, t *rtos.Task, chunk Chunk, gen uint64) error {
	for {
		if err := t.Checkpoint(ctx); err != nil {
			return err
		}
		if c.Playback.Snapshot().Generation != gen {
			// the track changed while we waited; this chunk is stale
			return nil
		}
		pushed, err := c.Chunks.PushUntil(ctx, chunk, t.Suspending())
		if err != nil || pushed {
			return err
		}
	}
}

func (c *Context) readChunk(ctx context.Context, chunk *Chunk) (int, uint64, error) {
	if err := c.StorageLock.Lock(ctx, "producer"); err != nil {
		return 0, 0, err
	}
	defer c.StorageLock.Unlock()
	return c.Playback.read(chunk.Data[:])
}

// waitDevice spins until the device asks for data, logging each time the
// wait times out. It still honours suspension while the device is stuck.
func (c *Context) waitDevice(ctx context.Context, t *rtos.Task) error {
	for {
		err := rtos.SpinUntil(ctx, c.ReadyTimeout, c.Device.Ready)
		if !errors.Is(err, rtos.ErrTimeout) {
			return err
		}
		c.Log.WithField("task", t.Name).Warn("device not ready")
		if err := t.Checkpoint(ctx); err != nil {
			return err
		}
	}
}

// advance requests the track after snap's and waits for the change to land.
// The request is best-effort; if it is lost the next pass asks again.
func (c *Context) advance(ctx context.Context, snap PlaybackSnapshot) error {
	count := c.Catalog.Len()
	if count == 0 {
		c.Playback.WaitChange(ctx, snap.Generation, c.TrackWait)
		return ctx.Err()
	}
	if snap.Size == 0 {
		// unplayable track; don't spin through a catalogue of them
		if err := sleep(ctx, c.TrackWait); err != nil {
			return err
		}
	}
	next := (snap.Track + 1) % count
	log := c.Log.WithField("task", "producer").WithField("track", next)
	if c.Settings.TryPush(settings.AdvanceTrack(uint8(next))) {
		log.Debug("end of track")
	} else {
		log.Warn("settings queue full, track change dropped")
	}
	c.Playback.WaitChange(ctx, snap.Generation, c.TrackWait)
	return ctx.Err()
}
