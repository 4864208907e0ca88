package update

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskmesh/internal/input"
	"github.com/sandeepkv93/taskmesh/internal/logger"
	"github.com/sandeepkv93/taskmesh/internal/shutdown"
)

var ErrTooManyRestarts = errors.New("input loop restarted too many times")

type Program interface {
	Run() (tea.Model, error)
}

type ProgramFactory func(m tea.Model, opts ...tea.ProgramOption) Program

func defaultProgramFactory(m tea.Model, opts ...tea.ProgramOption) Program {
	return tea.NewProgram(m, opts...)
}

type RunOptions struct {
	ProgramOptions []tea.ProgramOption
	NewProgram     ProgramFactory
}

// Run drives the program until shutdown. A run that fails before shutdown
// was triggered is logged and started again from the last model, with a new
// merger, so sessions and focus survive the restart. Actions the old merger
// never delivered are queued on the new one.
func Run(ctx context.Context, m Model, opts RunOptions) (Model, error) {
	log := logger.ComponentLogger("driver")
	if m.Shutdown == nil {
		m.Shutdown = shutdown.New()
	}
	newProgram := opts.NewProgram
	if newProgram == nil {
		newProgram = defaultProgramFactory
	}

	var carried []input.Action
	for attempt := 1; ; attempt++ {
		merger := input.NewMerger(ctx, input.Options{
			TickInterval: m.runtime.TickInterval,
			QueueSize:    m.runtime.ActionQueueSize,
		})
		for _, a := range carried {
			if err := merger.Submit(a); err != nil {
				log.Error("carry action failed", "action", a.String(), "error", err)
			}
		}
		carried = nil
		m.Merger = merger

		programOpts := append([]tea.ProgramOption{tea.WithContext(ctx)}, opts.ProgramOptions...)
		final, err := newProgram(m, programOpts...).Run()
		merger.Close()
		if fm, ok := final.(Model); ok {
			m = fm
		}
		m.Merger = nil
		carried = merger.Leftover()

		stop := true
		switch {
		case m.Shutdown.IsTriggered():
		case ctx.Err() != nil:
			m.Shutdown.Trigger(context.Cause(ctx))
		case err == nil:
		default:
			stop = false
		}
		if stop {
			if len(carried) > 0 {
				log.Warn("discarding queued actions at shutdown", "count", len(carried))
			}
			return m, nil
		}

		if limit := m.runtime.MaxRestarts; limit > 0 && attempt > limit {
			log.Error("input loop failed, giving up", "attempt", attempt, "error", err)
			return m, fmt.Errorf("%w: %w", ErrTooManyRestarts, err)
		}
		log.Error("input loop failed, restarting", "attempt", attempt, "carried", len(carried), "error", err)
		m.Quitting = false
	}
}
