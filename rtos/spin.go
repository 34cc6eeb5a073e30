package rtos

import (
	"context"
	"errors"
	"runtime"
	"time"
)

// ErrTimeout is returned by SpinUntil when the condition never came true.
var ErrTimeout = errors.New("rtos: timed out")

// how many polls between deadline and context checks
const spinCheckEvery = 64

// SpinUntil polls cond until it reports true, the timeout elapses or ctx is
// done. It yields between polls but never sleeps, so the caller keeps its
// processor busy while waiting on a hardware line. A zero timeout waits for
// as long as ctx allows.
func SpinUntil(ctx context.Context, timeout time.Duration, cond func() bool) error {
	if cond() {
		return nil
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for i := 1; ; i++ {
		if cond() {
			return nil
		}
		if i%spinCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return ErrTimeout
			}
		}
		runtime.Gosched()
	}
}
