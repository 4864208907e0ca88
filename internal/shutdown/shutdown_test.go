package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTriggerOnceWakesAllWaiters(t *testing.T) {
	h := New()
	first := errors.New("first")

	var wg sync.WaitGroup
	results := make([]error, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.WaitTriggered(context.Background())
		}(i)
	}

	if !h.Trigger(first) {
		t.Fatal("expected first Trigger to fire")
	}
	if h.Trigger(errors.New("second")) {
		t.Fatal("expected second Trigger to be a no-op")
	}
	wg.Wait()

	for i, err := range results {
		if !errors.Is(err, first) {
			t.Fatalf("waiter %d got %v, want first reason", i, err)
		}
	}
	if !h.IsTriggered() {
		t.Fatal("expected IsTriggered true")
	}
}

func TestTriggerNilUsesUserQuit(t *testing.T) {
	h := New()
	h.Trigger(nil)
	if !errors.Is(h.Reason(), ErrUserQuit) {
		t.Fatalf("expected ErrUserQuit, got %v", h.Reason())
	}
}

func TestWaitTriggeredHonoursContext(t *testing.T) {
	h := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := h.WaitTriggered(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if h.Reason() != nil {
		t.Fatalf("expected nil reason before trigger, got %v", h.Reason())
	}
}

func TestDrainWaitsForTrackedWork(t *testing.T) {
	h := New()
	done := h.Track()
	go func() {
		time.Sleep(10 * time.Millisecond)
		done()
		done()
	}()
	if !h.Drain(time.Second) {
		t.Fatal("expected tracked work to drain")
	}
}

func TestDrainTimesOut(t *testing.T) {
	h := New()
	done := h.Track()
	defer done()
	if h.Drain(10 * time.Millisecond) {
		t.Fatal("expected drain to time out while work is outstanding")
	}
}
