package player

import (
	"context"

	"github.com/rabidaudio/irmp3/rtos"
)

// consume writes queued chunks to the device. The device driver polls its
// ready line between 32-byte bursts; a chunk it cannot deliver is dropped.
func (c *Context) consume(ctx context.Context, t *rtos.Task) error {
	log := c.Log.WithField("task", t.Name)
	for {
		chunk, err := c.Chunks.Pop(ctx)
		if err != nil {
			return err
		}
		if err := c.BusLock.Lock(ctx, t.Name); err != nil {
			return err
		}
		err = c.Device.SendData(ctx, chunk.Bytes())
		c.BusLock.Unlock()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).Warn("dropping chunk")
		}
	}
}
