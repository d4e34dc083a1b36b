// Package engine is the composition root of the task list: it owns the
// state and the sync controller and applies every event, one at a time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/tasksync/internal/model"
	"github.com/dori/tasksync/internal/state"
	"github.com/dori/tasksync/internal/syncer"
)

// Saver persists the entries after each mutation
type Saver interface {
	Save(ctx context.Context, entries []model.Entry) error
}

// Snapshot is a read-only view of everything the UI renders
type Snapshot struct {
	Visible      []model.Entry
	Filter       model.Filter
	NewEntryText string
	EditBuffer   string
	Total        int
	Remaining    int
	Completed    int
	AllCompleted bool
	Sync         syncer.Status
	SyncInterval time.Duration
}

// Engine applies messages to the task list. Dispatch must be called from a
// single goroutine; the bubbletea Update loop is that goroutine.
type Engine struct {
	state       *state.State
	sync        *syncer.Controller
	saver       Saver
	logger      *slog.Logger
	pullOnStart bool
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the diagnostic logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithoutPull disables the startup pull
func WithoutPull() Option {
	return func(e *Engine) {
		e.pullOnStart = false
	}
}

// New creates an engine. st is typically built from the persisted entries.
func New(st *state.State, ctrl *syncer.Controller, saver Saver, opts ...Option) *Engine {
	e := &Engine{
		state:       st,
		sync:        ctrl,
		saver:       saver,
		logger:      slog.Default(),
		pullOnStart: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init starts the startup pull and the push timer
func (e *Engine) Init() tea.Cmd {
	var pull tea.Cmd
	if e.pullOnStart {
		pull = e.sync.Pull()
	}
	return tea.Batch(pull, e.sync.Tick())
}

// Snapshot returns what the UI needs to render
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Visible:      e.state.Visible(),
		Filter:       e.state.Filter(),
		NewEntryText: e.state.NewEntryText(),
		EditBuffer:   e.state.EditBuffer(),
		Total:        e.state.Total(),
		Remaining:    e.state.Remaining(),
		Completed:    e.state.TotalCompleted(),
		AllCompleted: e.state.IsAllCompleted(),
		Sync:         e.sync.Status(),
		SyncInterval: e.sync.Interval(),
	}
}

// Entries returns a copy of the full entry list
func (e *Engine) Entries() []model.Entry {
	return e.state.Entries()
}

// Dispatch applies one message to completion. It returns the follow-up
// command, if any, and the error of a UI operation that could not be
// applied (such as an index that no longer resolves). Entries are saved
// after every message that changed them.
func (e *Engine) Dispatch(msg tea.Msg) (tea.Cmd, error) {
	var (
		cmd     tea.Cmd
		err     error
		mutated bool
	)

	switch msg := msg.(type) {
	case AddMsg:
		e.state.Add(e.state.NewEntryText())
		mutated = true

	case SetFilterMsg:
		e.state.SetFilter(msg.Filter)

	case ToggleMsg:
		err = e.state.Toggle(msg.Index)
		mutated = err == nil

	case ToggleEditMsg:
		err = e.state.ToggleEdit(msg.Index)
		mutated = err == nil

	case EditMsg:
		err = e.state.CompleteEdit(msg.Index, e.state.EditBuffer())
		mutated = err == nil

	case RemoveMsg:
		err = e.state.Remove(msg.Index)
		mutated = err == nil

	case ToggleAllMsg:
		e.state.ToggleAll(!e.state.IsAllCompleted())
		mutated = true

	case ClearCompletedMsg:
		e.state.ClearCompleted()
		mutated = true

	case UpdateNewTextMsg:
		e.state.SetNewEntryText(msg.Text)

	case UpdateEditTextMsg:
		e.state.SetEditBuffer(msg.Text)

	case syncer.TickMsg:
		cmd = tea.Batch(e.sync.Push(e.state.Entries()), e.sync.Tick())

	case SyncNowMsg:
		cmd = e.sync.Push(e.state.Entries())

	case syncer.PullCompletedMsg:
		mutated = e.sync.ApplyPull(e.state, msg)

	case syncer.PushCompletedMsg:
		e.sync.HandlePushCompleted(msg)
	}

	if err != nil {
		e.logger.Debug("message rejected", "msg", fmt.Sprintf("%T", msg), "error", err)
	}
	if mutated {
		e.persist()
	}

	return cmd, err
}

// persist saves the entries. A failed save is logged and the engine keeps
// going with its in-memory state.
func (e *Engine) persist() {
	if e.saver == nil {
		return
	}
	if err := e.saver.Save(context.Background(), e.state.Entries()); err != nil {
		e.logger.Error("failed to save entries", "error", err)
	}
}

// Close stops in-flight network requests
func (e *Engine) Close() {
	e.sync.Stop()
}
