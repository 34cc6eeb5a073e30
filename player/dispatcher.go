package player

import (
	"context"

	"github.com/rabidaudio/irmp3/display"
	"github.com/rabidaudio/irmp3/ir"
	"github.com/rabidaudio/irmp3/menu"
	"github.com/rabidaudio/irmp3/rtos"
	"github.com/rabidaudio/irmp3/settings"
)

// dispatch feeds decoded opcodes through the menu and carries out the
// effects: settings commands are queued, the producer is paused or resumed
// and the screen redrawn. Menu state belongs to this task alone.
func (c *Context) dispatch(ctx context.Context, t *rtos.Task) error {
	log := c.Log.WithField("task", t.Name)
	r := &menu.Renderer{Display: c.Display, Catalog: c.Catalog}

	state := *c.menu.Load()
	// track changes queued by this task, compared against the loads the
	// coordinator has made for them
	var requested uint64
	draw := menu.Splash
	if c.StorageErr != nil {
		draw = func(d display.Display) error { return menu.StorageError(d, c.StorageErr) }
	}
	if err := draw(c.Display); err != nil {
		log.WithError(err).Warn("draw failed")
	}
	for {
		op, err := c.Opcodes.Pop(ctx)
		if err != nil {
			return err
		}
		// follow tracks the player chose on its own, but never while one of
		// our own requests is still queued
		if snap := c.Playback.Snapshot(); snap.Loaded && snap.Auto && snap.Requested >= requested {
			state.Track = snap.Track
		}

		next, fx := menu.Transition(state, op)
		log.WithField("opcode", op).WithField("screen", next.Screen).Debug("input")
		for _, cmd := range fx.Commands {
			if !c.Settings.TryPush(cmd) {
				log.WithField("command", cmd).Warn("settings queue full, dropping")
				continue
			}
			if cmd.Kind == settings.TrackChange && !cmd.Auto {
				requested++
			}
		}
		switch fx.Playback {
		case menu.PlaybackPause:
			c.Producer.Suspend()
		case menu.PlaybackResume:
			c.Producer.Resume()
		}
		if err := r.Render(fx.Render, state, next); err != nil {
			log.WithError(err).Warn("draw failed")
		}
		state = next
		s := state
		c.menu.Store(&s)
	}
}

// Press queues an opcode as if it came from the remote. It never blocks and
// reports whether the opcode was queued.
func (c *Context) Press(op ir.Opcode) bool {
	return c.Opcodes.TryPush(op)
}
