// Package syncstore is the local document-sync engine behind one profile.
//
// A Store keeps its tasks in SQLite and pushes full result sets to registered
// observers from a dispatcher goroutine: once when the observer registers and
// again after every applied mutation. Deliveries wait while sync is stopped.
package syncstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sandeepkv93/taskmesh/internal/config"
	"github.com/sandeepkv93/taskmesh/internal/dql"
	"github.com/sandeepkv93/taskmesh/internal/logger"
	"github.com/sandeepkv93/taskmesh/internal/model"
	"github.com/sandeepkv93/taskmesh/internal/storage"
)

const tasksCollection = "tasks"

var (
	ErrStoreClosed          = errors.New("syncstore: store closed")
	ErrUnknownCollection    = errors.New("syncstore: unknown collection")
	ErrObserverCallbackNil  = errors.New("syncstore: observer callback is nil")
	ErrSelectNotExecutable  = errors.New("syncstore: select statements cannot be executed")
	ErrMutationNotSupported = errors.New("syncstore: statement is not a mutation")
)

// Handle keeps a subscription or observer registered until Cancel.
type Handle struct {
	once   sync.Once
	cancel func()
}

// NewHandle wraps cancel so it runs at most once.
func NewHandle(cancel func()) *Handle {
	return &Handle{cancel: cancel}
}

func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		if h.cancel != nil {
			h.cancel()
		}
	})
}

type observer struct {
	id       uint64
	query    dql.Statement
	onChange func([]model.Document)
}

type Store struct {
	repo    *storage.SQLiteRepository
	log     *slog.Logger
	onClose func()

	mu            sync.Mutex
	nextID        uint64
	subscriptions map[uint64]string
	observers     map[uint64]*observer
	dirty         map[uint64]bool
	closed        bool

	syncActive atomic.Bool

	wakeup chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewStore starts the dispatcher for repo. The store owns repo from here on.
func NewStore(profile config.Profile, repo *storage.SQLiteRepository) *Store {
	s := &Store{
		repo:          repo,
		log:           logger.ComponentLogger("syncstore").With("profile", profile.ID),
		subscriptions: make(map[uint64]string),
		observers:     make(map[uint64]*observer),
		dirty:         make(map[uint64]bool),
		wakeup:        make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	s.syncActive.Store(true)
	go s.loop()
	return s
}

// Subscribe records interest in query. Locally every document is already
// resident, so the handle only tracks the registration.
func (s *Store) Subscribe(query string) (*Handle, error) {
	stmt, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	s.nextID++
	id := s.nextID
	s.subscriptions[id] = stmt.Raw
	s.log.Debug("subscription registered", "id", id, "query", stmt.Raw)
	return NewHandle(func() {
		s.mu.Lock()
		delete(s.subscriptions, id)
		s.mu.Unlock()
		s.log.Debug("subscription cancelled", "id", id)
	}), nil
}

// Observe registers onChange for query. It is called on the dispatcher
// goroutine with the full result set: once right after registration, then
// after every mutation, until the handle is cancelled.
func (s *Store) Observe(query string, onChange func([]model.Document)) (*Handle, error) {
	if onChange == nil {
		return nil, ErrObserverCallbackNil
	}
	stmt, err := parseSelect(query)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	s.nextID++
	id := s.nextID
	s.observers[id] = &observer{id: id, query: stmt, onChange: onChange}
	s.dirty[id] = true
	s.mu.Unlock()
	s.signalWakeup()
	s.log.Debug("observer registered", "id", id, "query", stmt.Raw)

	return NewHandle(func() {
		s.mu.Lock()
		delete(s.observers, id)
		delete(s.dirty, id)
		s.mu.Unlock()
		s.log.Debug("observer cancelled", "id", id)
	}), nil
}

// Execute applies one insert or update statement and schedules observers.
func (s *Store) Execute(ctx context.Context, statement string, params model.Document) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrStoreClosed
	}

	stmt, err := dql.Parse(statement)
	if err != nil {
		return err
	}
	if stmt.Kind == dql.KindSelect {
		return ErrSelectNotExecutable
	}
	if stmt.Collection != tasksCollection {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, stmt.Collection)
	}

	err = dql.Execute(stmt, params, dql.Handlers{
		Insert: func(_ string, doc model.Document) error {
			task, err := model.DecodeTask(doc)
			if err != nil {
				return err
			}
			if err := task.Validate(); err != nil {
				return err
			}
			return s.repo.InsertTask(ctx, storage.Task{
				ID:      task.ID,
				Title:   task.Title,
				Done:    task.Done,
				Deleted: task.Deleted,
			})
		},
		Update: func(_ string, id, field string, value any) error {
			return s.repo.UpdateTaskField(ctx, id, field, value)
		},
	})
	if err != nil {
		s.log.Warn("execute failed", "statement", stmt.Raw, "error", err)
		return err
	}
	s.log.Debug("execute applied", "statement", stmt.Raw)
	s.markAllDirty()
	return nil
}

func (s *Store) IsSyncActive() bool {
	return s.syncActive.Load()
}

// StartSync resumes observer delivery and flushes what changed meanwhile.
func (s *Store) StartSync() {
	if !s.syncActive.Swap(true) {
		s.log.Info("sync started")
		s.signalWakeup()
	}
}

// StopSync holds observer deliveries until StartSync. Mutations still apply.
func (s *Store) StopSync() {
	if s.syncActive.Swap(false) {
		s.log.Info("sync stopped")
	}
}

// Close stops the dispatcher and closes the database. Safe to call twice.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopCh)
	s.mu.Unlock()
	<-s.doneCh

	err := s.repo.Close()
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

// query evaluates a select against every stored task, tombstones included,
// so that the statement's own filter decides visibility.
func (s *Store) query(ctx context.Context, stmt dql.Statement) ([]model.Document, error) {
	rows, err := s.repo.ListTasks(ctx, storage.TaskListFilter{IncludeDeleted: true})
	if err != nil {
		return nil, err
	}
	out := make([]model.Document, 0, len(rows))
	for _, row := range rows {
		doc := model.Task{ID: row.ID, Title: row.Title, Done: row.Done, Deleted: row.Deleted}.Document()
		if stmt.Select.Where != nil && !matches(doc, *stmt.Select.Where) {
			continue
		}
		out = append(out, doc)
	}
	if field := stmt.Select.OrderBy; field != "" && field != "_id" {
		sort.SliceStable(out, func(i, j int) bool {
			return fmt.Sprint(out[i][field]) < fmt.Sprint(out[j][field])
		})
	}
	return out, nil
}

func matches(doc model.Document, cond dql.Condition) bool {
	want, err := cond.Value.Resolve(nil)
	if err != nil {
		return false
	}
	return doc[cond.Field] == want
}

func parseSelect(query string) (dql.Statement, error) {
	stmt, err := dql.Parse(query)
	if err != nil {
		return dql.Statement{}, err
	}
	if stmt.Kind != dql.KindSelect {
		return dql.Statement{}, ErrMutationNotSupported
	}
	if stmt.Collection != tasksCollection {
		return dql.Statement{}, fmt.Errorf("%w: %s", ErrUnknownCollection, stmt.Collection)
	}
	if stmt.Select.Where != nil && stmt.Select.Where.Value.Param != "" {
		return dql.Statement{}, &dql.StatementError{Code: dql.ErrCodeInvalidArgument, Message: "live queries take literal filters only"}
	}
	return stmt, nil
}
