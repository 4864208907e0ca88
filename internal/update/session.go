package update

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sandeepkv93/taskmesh/internal/config"
	"github.com/sandeepkv93/taskmesh/internal/dql"
	"github.com/sandeepkv93/taskmesh/internal/keys"
	"github.com/sandeepkv93/taskmesh/internal/logger"
	"github.com/sandeepkv93/taskmesh/internal/model"
	"github.com/sandeepkv93/taskmesh/internal/syncstore"
	"github.com/sandeepkv93/taskmesh/internal/tasklist"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeCreate
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "CreateTask"
	case ModeEdit:
		return "EditTask"
	default:
		return "Normal"
	}
}

type Tracker interface {
	Track() func()
}

type TodoSession struct {
	Profile config.Profile
	List    *tasklist.List

	store        Store
	subscription *syncstore.Handle
	observer     *syncstore.Handle
	tracker      Tracker
	runtime      RuntimeConfig
	keys         *keys.Map
	log          *slog.Logger

	mode   Mode
	buffer []rune
	editID string
	cursor int

	// pendingDone holds done values that were requested but not yet seen in
	// a snapshot, so repeated toggles alternate.
	pendingMu   sync.Mutex
	pendingDone map[string]bool

	seq       sequencer
	closeOnce sync.Once
	closed    atomic.Bool
}

// OpenSession starts the live queries for profile on store. The session
// takes ownership of store; on failure everything acquired so far, store
// included, is released before returning.
func OpenSession(profile config.Profile, store Store, tracker Tracker, cfg RuntimeConfig) (*TodoSession, error) {
	if store == nil {
		return nil, fmt.Errorf("open session %s: %w", profile.ID, ErrNoConnector)
	}
	cfg = cfg.withDefaults()
	s := &TodoSession{
		Profile: profile,
		List:    tasklist.New(),
		store:   store,
		tracker: tracker,
		runtime: cfg,
		keys:    keys.New(cfg.Keys),
		log:     logger.ComponentLogger("session").With("profile", profile.ID),

		pendingDone: make(map[string]bool),
	}

	sub, err := store.Subscribe(dql.QuerySubscribeTasks)
	if err != nil {
		_ = closeStore(store)
		return nil, fmt.Errorf("subscribe %s: %w", profile.ID, err)
	}
	s.subscription = sub

	obs, err := store.Observe(dql.QueryVisibleTasks, s.onResults)
	if err != nil {
		sub.Cancel()
		_ = closeStore(store)
		return nil, fmt.Errorf("observe %s: %w", profile.ID, err)
	}
	s.observer = obs
	s.log.Info("session opened")
	return s, nil
}

func (s *TodoSession) onResults(docs []model.Document) {
	tasks, skipped := model.DecodeTasks(docs)
	if skipped > 0 {
		s.log.Warn("skipped undecodable task documents", "count", skipped)
	}
	s.confirmDone(tasks)
	s.List.Replace(tasks)
}

func (s *TodoSession) nextDone(task model.Task) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	current, ok := s.pendingDone[task.ID]
	if !ok {
		current = task.Done
	}
	s.pendingDone[task.ID] = !current
	return !current
}

func (s *TodoSession) confirmDone(tasks []model.Task) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if len(s.pendingDone) == 0 {
		return
	}
	present := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		present[t.ID] = true
		if want, ok := s.pendingDone[t.ID]; ok && want == t.Done {
			delete(s.pendingDone, t.ID)
		}
	}
	for id := range s.pendingDone {
		if !present[id] {
			delete(s.pendingDone, id)
		}
	}
}

func (s *TodoSession) dropPendingDone(id string, value bool) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if want, ok := s.pendingDone[id]; ok && want == value {
		delete(s.pendingDone, id)
	}
}

func (s *TodoSession) Mode() Mode {
	return s.mode
}

func (s *TodoSession) Buffer() string {
	return string(s.buffer)
}

func (s *TodoSession) EditingID() string {
	return s.editID
}

func (s *TodoSession) Editing() bool {
	return s.mode != ModeNormal
}

// Cursor is the selected row clamped into the current snapshot, or -1 when
// the list is empty.
func (s *TodoSession) Cursor() int {
	n := s.List.Len()
	switch {
	case n == 0:
		return -1
	case s.cursor >= n:
		return n - 1
	case s.cursor < 0:
		return 0
	default:
		return s.cursor
	}
}

func (s *TodoSession) Selected() (model.Task, bool) {
	i := s.Cursor()
	if i < 0 {
		return model.Task{}, false
	}
	return s.List.At(i)
}

func (s *TodoSession) SyncActive() bool {
	if toggler, ok := s.store.(SyncToggler); ok {
		return toggler.IsSyncActive()
	}
	return true
}

func (s *TodoSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.observer.Cancel()
		s.subscription.Cancel()
		err = closeStore(s.store)
		s.log.Info("session closed")
	})
	return err
}

func closeStore(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// sequencer chains mutations so each one starts only after the previous one
// issued on the same session has finished.
type sequencer struct {
	mu   sync.Mutex
	tail chan struct{}
}

func (q *sequencer) reserve() (wait <-chan struct{}, done chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()
	wait = q.tail
	done = make(chan struct{})
	q.tail = done
	return wait, done
}

type SessionRegistry struct {
	sessions map[string]*TodoSession
	order    []string
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*TodoSession)}
}

func (r *SessionRegistry) Get(id string) (*TodoSession, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *SessionRegistry) Put(s *TodoSession) {
	id := s.Profile.ID
	if _, exists := r.sessions[id]; !exists {
		r.order = append(r.order, id)
	}
	r.sessions[id] = s
}

func (r *SessionRegistry) Len() int {
	return len(r.order)
}

func (r *SessionRegistry) CloseAll() error {
	var errs []error
	for _, id := range r.order {
		if err := r.sessions[id].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
