package update

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/sandeepkv93/taskmesh/internal/config"
	"github.com/sandeepkv93/taskmesh/internal/input"
	"github.com/sandeepkv93/taskmesh/internal/keys"
	"github.com/sandeepkv93/taskmesh/internal/model"
	"github.com/sandeepkv93/taskmesh/internal/shutdown"
	"github.com/sandeepkv93/taskmesh/internal/syncstore"
)

var (
	ErrNoSelection   = errors.New("no selection")
	ErrNoMerger      = errors.New("input merger not attached")
	ErrNoConnector   = errors.New("no store connector configured")
	ErrSessionClosed = errors.New("session closed")
)

type Store interface {
	Subscribe(query string) (*syncstore.Handle, error)
	Observe(query string, onChange func([]model.Document)) (*syncstore.Handle, error)
	Execute(ctx context.Context, statement string, params model.Document) error
}

type SyncToggler interface {
	IsSyncActive() bool
	StartSync()
	StopSync()
}

type Connector func(profile config.Profile) (Store, error)

type Focus string

const (
	FocusProfiles Focus = "Profiles"
	FocusTodoList Focus = "TodoList"
)

type EventResult int

const (
	Consumed EventResult = iota
	Ignored
)

func (r EventResult) String() string {
	if r == Ignored {
		return "ignored"
	}
	return "consumed"
}

type StatusBar struct {
	Text    string
	IsError bool
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

// ClearStatusMsg clears the status line if it is still the one set as Seq.
type ClearStatusMsg struct {
	Seq uint64
}

// MutationResultMsg reports the completion of one task mutation.
type MutationResultMsg struct {
	Profile string
	Op      string
	Err     error
}

type Model struct {
	Focus      Focus
	Active     string
	Registry   *SessionRegistry
	Profiles   ProfilesState
	Status     StatusBar
	Merger     *input.Merger
	Shutdown   *shutdown.Handle
	LastResult EventResult
	LastError  error
	Quitting   bool

	HelpVisible bool
	Width       int
	Height      int
	Frames      uint64

	connect    Connector
	runtime    RuntimeConfig
	keys       *keys.Map
	statusSeq  uint64
	helpModel  help.Model
	helpRender string
}

func NewModel(profiles []config.Profile, connect Connector) Model {
	return NewModelWithConfig(profiles, connect, shutdown.New(), DefaultRuntimeConfig())
}

func NewModelWithConfig(profiles []config.Profile, connect Connector, sd *shutdown.Handle, cfg RuntimeConfig) Model {
	if sd == nil {
		sd = shutdown.New()
	}
	cfg = cfg.withDefaults()
	return Model{
		Focus:     FocusProfiles,
		Registry:  NewSessionRegistry(),
		Profiles:  NewProfilesState(profiles),
		Shutdown:  sd,
		connect:   connect,
		runtime:   cfg,
		keys:      keys.New(cfg.Keys),
		helpModel: help.New(),
	}
}

func (m Model) ActiveSession() (*TodoSession, bool) {
	if m.Active == "" {
		return nil, false
	}
	return m.Registry.Get(m.Active)
}

func (m Model) Sessions() int {
	return m.Registry.Len()
}

func (m Model) Close() error {
	return m.Registry.CloseAll()
}
