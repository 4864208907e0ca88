// Package shutdown provides a process-wide stop signal that is passed
// explicitly to every task that needs to trigger or observe it.
package shutdown

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrUserQuit = errors.New("user requested quit")

type Handle struct {
	once      sync.Once
	triggered chan struct{}
	mu        sync.Mutex
	reason    error
	inflight  sync.WaitGroup
}

func New() *Handle {
	return &Handle{triggered: make(chan struct{})}
}

// Trigger records reason and wakes every waiter. Only the first call has an
// effect; it reports whether this call was the one that triggered.
func (h *Handle) Trigger(reason error) bool {
	fired := false
	h.once.Do(func() {
		if reason == nil {
			reason = ErrUserQuit
		}
		h.mu.Lock()
		h.reason = reason
		h.mu.Unlock()
		close(h.triggered)
		fired = true
	})
	return fired
}

// Triggered is closed once Trigger has been called.
func (h *Handle) Triggered() <-chan struct{} {
	return h.triggered
}

func (h *Handle) IsTriggered() bool {
	select {
	case <-h.triggered:
		return true
	default:
		return false
	}
}

// Reason returns the trigger reason, or nil before Trigger.
func (h *Handle) Reason() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

// WaitTriggered blocks until Trigger or ctx is done.
func (h *Handle) WaitTriggered(ctx context.Context) error {
	select {
	case <-h.triggered:
		return h.Reason()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Track marks one unit of in-flight work. The returned func must be called
// when the work finishes.
func (h *Handle) Track() func() {
	h.inflight.Add(1)
	var once sync.Once
	return func() { once.Do(h.inflight.Done) }
}

// Drain waits for tracked work for at most grace and reports whether it all
// finished in time.
func (h *Handle) Drain(grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
