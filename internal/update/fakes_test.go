package update

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskmesh/internal/config"
	"github.com/sandeepkv93/taskmesh/internal/dql"
	"github.com/sandeepkv93/taskmesh/internal/input"
	"github.com/sandeepkv93/taskmesh/internal/model"
	"github.com/sandeepkv93/taskmesh/internal/shutdown"
	"github.com/sandeepkv93/taskmesh/internal/syncstore"
)

type executed struct {
	statement string
	params    model.Document
}

// fakeStore applies statements to an in-memory map and notifies observers
// synchronously, which keeps tests deterministic.
type fakeStore struct {
	mu            sync.Mutex
	tasks         map[string]model.Task
	observers     map[int]func([]model.Document)
	nextObserver  int
	executed      []executed
	subscriptions int
	cancelled     int
	closed        bool
	syncActive    bool

	subscribeErr error
	observeErr   error
	executeErr   error
}

func newFakeStore(tasks ...model.Task) *fakeStore {
	s := &fakeStore{
		tasks:      make(map[string]model.Task),
		observers:  make(map[int]func([]model.Document)),
		syncActive: true,
	}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *fakeStore) Subscribe(string) (*syncstore.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	s.subscriptions++
	return syncstore.NewHandle(func() {
		s.mu.Lock()
		s.cancelled++
		s.mu.Unlock()
	}), nil
}

func (s *fakeStore) Observe(_ string, onChange func([]model.Document)) (*syncstore.Handle, error) {
	s.mu.Lock()
	if s.observeErr != nil {
		s.mu.Unlock()
		return nil, s.observeErr
	}
	s.nextObserver++
	id := s.nextObserver
	s.observers[id] = onChange
	docs := s.docsLocked()
	s.mu.Unlock()

	onChange(docs)
	return syncstore.NewHandle(func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.cancelled++
		s.mu.Unlock()
	}), nil
}

func (s *fakeStore) Execute(_ context.Context, statement string, params model.Document) error {
	s.mu.Lock()
	s.executed = append(s.executed, executed{statement: statement, params: params})
	if s.executeErr != nil {
		err := s.executeErr
		s.mu.Unlock()
		return err
	}
	stmt, err := dql.Parse(statement)
	if err == nil {
		err = dql.Execute(stmt, params, dql.Handlers{
			Insert: func(_ string, doc model.Document) error {
				task, err := model.DecodeTask(doc)
				if err != nil {
					return err
				}
				s.tasks[task.ID] = task
				return nil
			},
			Update: func(_ string, id, field string, value any) error {
				task, ok := s.tasks[id]
				if !ok {
					return errors.New("not found")
				}
				switch field {
				case "title":
					task.Title = value.(string)
				case "done":
					task.Done = value.(bool)
				case "deleted":
					task.Deleted = value.(bool)
				}
				s.tasks[id] = task
				return nil
			},
		})
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// replace swaps the whole collection, as a remote peer would.
func (s *fakeStore) replace(tasks ...model.Task) {
	s.mu.Lock()
	s.tasks = make(map[string]model.Task)
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	s.mu.Unlock()
	s.notify()
}

func (s *fakeStore) notify() {
	s.mu.Lock()
	docs := s.docsLocked()
	callbacks := make([]func([]model.Document), 0, len(s.observers))
	for _, cb := range s.observers {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()
	for _, cb := range callbacks {
		cb(docs)
	}
}

func (s *fakeStore) docsLocked() []model.Document {
	ids := make([]string, 0, len(s.tasks))
	for id, t := range s.tasks {
		if !t.Deleted {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]model.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.tasks[id].Document())
	}
	return out
}

func (s *fakeStore) Executed() []executed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]executed(nil), s.executed...)
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) IsSyncActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncActive
}

func (s *fakeStore) StartSync() {
	s.mu.Lock()
	s.syncActive = true
	s.mu.Unlock()
}

func (s *fakeStore) StopSync() {
	s.mu.Lock()
	s.syncActive = false
	s.mu.Unlock()
}

// connector hands out one fake store per profile and counts connects.
type fakeConnector struct {
	stores   map[string]*fakeStore
	connects map[string]int
	err      error
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{stores: make(map[string]*fakeStore), connects: make(map[string]int)}
}

func (c *fakeConnector) connect(p config.Profile) (Store, error) {
	c.connects[p.ID]++
	if c.err != nil {
		return nil, c.err
	}
	s, ok := c.stores[p.ID]
	if !ok {
		s = newFakeStore()
		c.stores[p.ID] = s
	}
	return s, nil
}

func testRuntime() RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	cfg.TickInterval = time.Hour
	cfg.StatusTimeout = time.Millisecond
	return cfg
}

func testProfiles(ids ...string) []config.Profile {
	out := make([]config.Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, config.Profile{Name: "Profile " + id, ID: id})
	}
	return out
}

// newTestModel returns a model with a merger whose ticker never fires during
// a test, so Next only yields queued actions.
func newTestModel(t *testing.T, profiles []config.Profile, conn *fakeConnector) Model {
	t.Helper()
	cfg := testRuntime()
	m := NewModelWithConfig(profiles, conn.connect, shutdown.New(), cfg)
	m.Merger = input.NewMerger(context.Background(), input.Options{TickInterval: cfg.TickInterval, QueueSize: cfg.ActionQueueSize})
	t.Cleanup(m.Merger.Close)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter     = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc       = tea.KeyMsg{Type: tea.KeyEsc}
	keyBackspace = tea.KeyMsg{Type: tea.KeyBackspace}
	keySpace     = tea.KeyMsg{Type: tea.KeySpace}
	keyUp        = tea.KeyMsg{Type: tea.KeyUp}
	keyDown      = tea.KeyMsg{Type: tea.KeyDown}
)

// send feeds msg to the model, then delivers any queued actions the way the
// merger would.
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next := updated.(Model)
	return pump(t, next), cmd
}

func pump(t *testing.T, m Model) Model {
	t.Helper()
	for m.Merger != nil && m.Merger.Pending() > 0 {
		msg := m.Merger.Next()()
		if msg == nil {
			t.Fatal("merger closed while actions were pending")
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

// typeText sends one key per rune.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = send(t, m, runes(string(r)))
	}
	return m
}

// runCmd executes cmd, expanding batches, and returns every message produced.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle runs cmd and feeds its messages back into the model.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range runCmd(cmd) {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func enterProfile(t *testing.T, m Model, index int) Model {
	t.Helper()
	for m.Profiles.Cursor > index {
		m, _ = send(t, m, keyUp)
	}
	for m.Profiles.Cursor < index {
		m, _ = send(t, m, keyDown)
	}
	m, _ = send(t, m, keyEnter)
	return m
}
