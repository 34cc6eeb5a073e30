package rtos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Priority orders tasks for diagnostics and start-up. Go schedules goroutines
// itself; the value documents which task should win when they contend.
type Priority int

const (
	PriorityIdle      Priority = 1 // terminal / diagnostics
	PriorityLow       Priority = 2 // audio producer, settings coordinator
	PriorityNormal    Priority = 3 // audio consumer
	PriorityHigh      Priority = 4 // input dispatcher
	PriorityInterrupt Priority = 5 // edge sources feeding interrupt handlers
)

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "idle"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityInterrupt:
		return "interrupt"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// State is the lifecycle state of a Task.
type State int

const (
	StateReady State = iota
	StateRunning
	StateSuspended
	StateExited
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateSuspended:
		return "SUSPENDED"
	case StateExited:
		return "EXITED"
	default:
		return "UNKNOWN"
	}
}

// Task is a long-lived goroutine spawned through a Group. A task can be
// suspended from another task; the suspension takes effect at the task's
// next Checkpoint.
type Task struct {
	Name     string
	Priority Priority

	mtx       sync.Mutex
	state     State
	suspended bool
	resume    chan struct{} // closed by Resume
	stopping  chan struct{} // closed by Suspend
	err       error
}

// Suspend asks the task to stop at its next Checkpoint. Suspending a
// suspended task does nothing.
func (t *Task) Suspend() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.suspended || t.state == StateExited {
		return
	}
	t.suspended = true
	t.resume = make(chan struct{})
	t.state = StateSuspended
	if t.stopping != nil {
		close(t.stopping)
	}
}

// Resume releases a suspended task.
func (t *Task) Resume() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if !t.suspended {
		return
	}
	t.suspended = false
	close(t.resume)
	t.stopping = nil
	if t.state == StateSuspended {
		t.state = StateRunning
	}
}

// Suspended reports whether Suspend is in effect.
func (t *Task) Suspended() bool {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.suspended
}

// Suspending returns a channel that is closed once Suspend is in effect, for
// selecting on alongside a blocking operation. Fetch it again after each
// Resume.
func (t *Task) Suspending() <-chan struct{} {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.stopping == nil {
		t.stopping = make(chan struct{})
		if t.suspended {
			close(t.stopping)
		}
	}
	return t.stopping
}

// Checkpoint blocks while the task is suspended.
func (t *Task) Checkpoint(ctx context.Context) error {
	t.mtx.Lock()
	if !t.suspended {
		t.mtx.Unlock()
		return nil
	}
	ch := t.resume
	t.mtx.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.state
}

// Err is the error the task returned, once it has exited.
func (t *Task) Err() error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.err
}

func (t *Task) setState(s State) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if s == StateRunning && t.suspended {
		s = StateSuspended
	}
	t.state = s
}

func (t *Task) exit(err error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.state = StateExited
	t.err = err
	if t.suspended {
		t.suspended = false
		close(t.resume)
		t.stopping = nil
	}
}

// TaskFunc is the body of a task. It should run until ctx is done.
type TaskFunc func(ctx context.Context, t *Task) error

// Group spawns tasks and waits for them. The first task to fail with
// anything other than a cancellation cancels the others.
type Group struct {
	eg  *errgroup.Group
	ctx context.Context
	log logrus.FieldLogger

	mtx   sync.Mutex
	tasks []*Task
}

// NewGroup creates a group whose tasks run until ctx is done.
func NewGroup(ctx context.Context, log logrus.FieldLogger) *Group {
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{eg: eg, ctx: ctx, log: log}
}

// Context is the context handed to every task in the group.
func (g *Group) Context() context.Context { return g.ctx }

// Spawn starts fn as a new task.
func (g *Group) Spawn(name string, prio Priority, fn TaskFunc) *Task {
	t := &Task{Name: name, Priority: prio}
	g.mtx.Lock()
	g.tasks = append(g.tasks, t)
	g.mtx.Unlock()

	g.eg.Go(func() error {
		t.setState(StateRunning)
		err := fn(g.ctx, t)
		t.exit(err)
		if err == nil || errors.Is(err, context.Canceled) {
			g.log.WithField("task", name).Debug("task exited")
			return nil
		}
		g.log.WithField("task", name).WithError(err).Error("task failed")
		return fmt.Errorf("task %s: %w", name, err)
	})
	return t
}

// Wait blocks until every task has exited and returns the first failure.
func (g *Group) Wait() error {
	return g.eg.Wait()
}

// Tasks lists the spawned tasks, highest priority first.
func (g *Group) Tasks() []*Task {
	g.mtx.Lock()
	out := make([]*Task, len(g.tasks))
	copy(out, g.tasks)
	g.mtx.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}
