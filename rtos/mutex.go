package rtos

import (
	"context"
	"sync/atomic"
)

// Mutex guards a shared peripheral (the decoder's serial bus, the storage
// medium). Unlike sync.Mutex, waiting can be abandoned through a context and
// the current holder is visible for diagnostics.
type Mutex struct {
	name   string
	sem    chan struct{}
	holder atomic.Pointer[string]
}

// NewMutex creates an unlocked mutex. name shows up in diagnostics.
func NewMutex(name string) *Mutex {
	return &Mutex{name: name, sem: make(chan struct{}, 1)}
}

// Name returns the name given to NewMutex.
func (m *Mutex) Name() string { return m.name }

// Lock waits until the mutex is free or ctx is done. owner is recorded as the
// holder until Unlock.
func (m *Mutex) Lock(ctx context.Context, owner string) error {
	select {
	case m.sem <- struct{}{}:
		m.holder.Store(&owner)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryLock takes the mutex only if it is free.
func (m *Mutex) TryLock(owner string) bool {
	select {
	case m.sem <- struct{}{}:
		m.holder.Store(&owner)
		return true
	default:
		return false
	}
}

// Unlock releases the mutex. Unlocking a free mutex is a programming error.
func (m *Mutex) Unlock() {
	m.holder.Store(nil)
	select {
	case <-m.sem:
	default:
		panic("rtos: unlock of unlocked mutex " + m.name)
	}
}

// Holder returns the owner passed to the Lock call currently holding the
// mutex, or "" when it is free.
func (m *Mutex) Holder() string {
	if h := m.holder.Load(); h != nil {
		return *h
	}
	return ""
}
