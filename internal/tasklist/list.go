// Package tasklist holds the latest visible task snapshot for one profile.
//
// The sync engine replaces the snapshot from its own goroutine while the UI
// reads it on every frame. Both sides only touch a single atomic slot, so a
// reader sees either the previous or the next complete snapshot and neither
// side ever waits on the other.
package tasklist

import (
	"slices"
	"sync/atomic"

	"github.com/sandeepkv93/taskmesh/internal/model"
)

type snapshot struct {
	tasks   []model.Task
	version uint64
}

type List struct {
	slot atomic.Pointer[snapshot]
	seq  atomic.Uint64
}

func New() *List {
	l := &List{}
	l.slot.Store(&snapshot{})
	return l
}

// Replace swaps in a private copy of tasks. The last writer wins.
func (l *List) Replace(tasks []model.Task) {
	next := &snapshot{
		tasks:   slices.Clone(tasks),
		version: l.seq.Add(1),
	}
	l.slot.Store(next)
}

// Snapshot returns a copy the caller may keep or modify.
func (l *List) Snapshot() []model.Task {
	return slices.Clone(l.slot.Load().tasks)
}

func (l *List) Len() int {
	return len(l.slot.Load().tasks)
}

// At returns the task at index i of the current snapshot.
func (l *List) At(i int) (model.Task, bool) {
	tasks := l.slot.Load().tasks
	if i < 0 || i >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[i], true
}

// Version counts replacements; zero means no result has arrived yet.
func (l *List) Version() uint64 {
	return l.slot.Load().version
}
