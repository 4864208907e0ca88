package input

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	ErrQueueFull    = errors.New("input: action queue full")
	ErrMergerClosed = errors.New("input: merger closed")
)

type Options struct {
	TickInterval time.Duration
	QueueSize    int
}

// Merger interleaves frame ticks and queued actions with the terminal events
// the program loop already receives. Next resolves to whichever source is
// ready first; terminal events race the pending Next in the same loop, so no
// source can starve another.
//
// A Merger belongs to one program run. After a restart a new one is built.
type Merger struct {
	ctx     context.Context
	cancel  context.CancelFunc
	actions chan Action
	ticker  *time.Ticker

	mu     sync.Mutex
	closed bool
	stash  []Action
}

func NewMerger(ctx context.Context, opts Options) *Merger {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 20 * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Merger{
		ctx:     ctx,
		cancel:  cancel,
		actions: make(chan Action, opts.QueueSize),
		ticker:  time.NewTicker(opts.TickInterval),
	}
}

// Submit enqueues a without blocking. A full queue is reported, never
// silently dropped.
func (m *Merger) Submit(a Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMergerClosed
	}
	select {
	case m.actions <- a:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending is the number of queued actions not yet delivered.
func (m *Merger) Pending() int {
	return len(m.actions)
}

// Next returns a command that waits for the next tick or action. Keep exactly
// one Next outstanding: re-arm it after every merged input.
func (m *Merger) Next() tea.Cmd {
	return func() tea.Msg {
		in, ok := m.next()
		if !ok {
			return nil
		}
		return mergedMsg{input: in}
	}
}

func (m *Merger) next() (Input, bool) {
	if m.ctx.Err() != nil {
		return nil, false
	}
	select {
	case a := <-m.actions:
		if m.ctx.Err() != nil {
			m.mu.Lock()
			m.stash = append(m.stash, a)
			m.mu.Unlock()
			return nil, false
		}
		return ActionInput{Action: a}, true
	case at := <-m.ticker.C:
		return FrameTick{At: at}, true
	case <-m.ctx.Done():
		return nil, false
	}
}

// Close stops the ticker and releases any pending Next. Actions still queued
// stay available through Leftover.
func (m *Merger) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.ticker.Stop()
	m.cancel()
}

// Leftover returns the actions a closed merger never delivered, oldest first.
// It returns nil while the merger is open.
func (m *Merger) Leftover() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		return nil
	}
	out := m.stash
	m.stash = nil
	for {
		select {
		case a := <-m.actions:
			out = append(out, a)
		default:
			return out
		}
	}
}
