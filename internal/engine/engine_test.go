package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/tasksync/internal/model"
	"github.com/dori/tasksync/internal/state"
	"github.com/dori/tasksync/internal/syncer"
)

type fakeRemote struct {
	mu     sync.Mutex
	fetch  []model.Entry
	err    error
	pushed [][]model.Entry
}

func (f *fakeRemote) FetchEntries(ctx context.Context) ([]model.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return model.Clone(f.fetch), nil
}

func (f *fakeRemote) PushEntries(ctx context.Context, entries []model.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, entries)
	return f.err
}

type memorySaver struct {
	saves [][]model.Entry
	err   error
}

func (m *memorySaver) Save(ctx context.Context, entries []model.Entry) error {
	m.saves = append(m.saves, entries)
	return m.err
}

func (m *memorySaver) last() []model.Entry {
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(entries []model.Entry, remote *fakeRemote) (*Engine, *memorySaver) {
	saver := &memorySaver{}
	ctrl := syncer.New(remote, syncer.WithLogger(quietLogger()), syncer.WithInterval(time.Millisecond))
	return New(state.New(entries), ctrl, saver, WithLogger(quietLogger())), saver
}

func descriptions(entries []model.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Description
	}
	return out
}

func mustDispatch(t *testing.T, e *Engine, msg tea.Msg) tea.Cmd {
	t.Helper()
	cmd, err := e.Dispatch(msg)
	require.NoError(t, err)
	return cmd
}

func TestAddUsesNewEntryBuffer(t *testing.T) {
	e, saver := newTestEngine(nil, &fakeRemote{})

	mustDispatch(t, e, UpdateNewTextMsg{Text: "buy milk"})
	assert.Empty(t, saver.saves, "buffer updates are not persisted")

	mustDispatch(t, e, AddMsg{})

	snap := e.Snapshot()
	assert.Equal(t, []string{"buy milk"}, descriptions(snap.Visible))
	assert.Empty(t, snap.NewEntryText)
	require.Len(t, saver.saves, 1)
	assert.Equal(t, []string{"buy milk"}, descriptions(saver.last()))
}

func TestAddEmptyBuffer(t *testing.T) {
	e, _ := newTestEngine(nil, &fakeRemote{})

	mustDispatch(t, e, AddMsg{})

	assert.Equal(t, []string{""}, descriptions(e.Entries()))
}

func TestEditFlow(t *testing.T) {
	e, saver := newTestEngine([]model.Entry{{Description: "a"}, {Description: "b"}}, &fakeRemote{})

	mustDispatch(t, e, ToggleEditMsg{Index: 1})
	assert.Equal(t, "b", e.Snapshot().EditBuffer)
	assert.True(t, e.Entries()[1].Editing)

	mustDispatch(t, e, UpdateEditTextMsg{Text: "b2"})
	mustDispatch(t, e, EditMsg{Index: 1})

	entries := e.Entries()
	assert.Equal(t, []string{"a", "b2"}, descriptions(entries))
	assert.False(t, entries[1].Editing)
	assert.Empty(t, e.Snapshot().EditBuffer)
	assert.Len(t, saver.saves, 2)
}

func TestToggleAllFlipsTarget(t *testing.T) {
	e, _ := newTestEngine([]model.Entry{{Description: "a"}, {Description: "b", Completed: true}}, &fakeRemote{})

	mustDispatch(t, e, ToggleAllMsg{})
	assert.True(t, e.Snapshot().AllCompleted)

	mustDispatch(t, e, ToggleAllMsg{})
	assert.Equal(t, 0, e.Snapshot().Completed)
}

func TestToggleAllOnEmptyViewCompletes(t *testing.T) {
	e, _ := newTestEngine([]model.Entry{{Description: "a"}}, &fakeRemote{})
	mustDispatch(t, e, SetFilterMsg{Filter: model.FilterCompleted})

	// Empty view is not "all completed", so the target is true; nothing fits.
	mustDispatch(t, e, ToggleAllMsg{})

	assert.False(t, e.Entries()[0].Completed)
}

func TestSetFilterDoesNotPersist(t *testing.T) {
	e, saver := newTestEngine([]model.Entry{{Description: "a", Completed: true}, {Description: "b"}}, &fakeRemote{})

	mustDispatch(t, e, SetFilterMsg{Filter: model.FilterActive})

	snap := e.Snapshot()
	assert.Equal(t, model.FilterActive, snap.Filter)
	assert.Equal(t, []string{"b"}, descriptions(snap.Visible))
	assert.Empty(t, saver.saves)
}

func TestIndexErrorIsRecoverable(t *testing.T) {
	e, saver := newTestEngine([]model.Entry{{Description: "a"}}, &fakeRemote{})

	for _, msg := range []tea.Msg{ToggleMsg{Index: 3}, ToggleEditMsg{Index: 3}, EditMsg{Index: 3}, RemoveMsg{Index: 3}} {
		cmd, err := e.Dispatch(msg)
		assert.Nil(t, cmd)
		assert.ErrorIs(t, err, state.ErrIndexOutOfRange)
	}

	assert.Empty(t, saver.saves)
	assert.Equal(t, []string{"a"}, descriptions(e.Entries()))

	// The engine keeps working after a rejected message.
	mustDispatch(t, e, ToggleMsg{Index: 0})
	assert.True(t, e.Entries()[0].Completed)
}

func TestRemoveUnderFilter(t *testing.T) {
	e, saver := newTestEngine([]model.Entry{{Description: "a", Completed: true}, {Description: "b"}}, &fakeRemote{})
	mustDispatch(t, e, SetFilterMsg{Filter: model.FilterActive})

	mustDispatch(t, e, RemoveMsg{Index: 0})

	assert.Equal(t, []string{"a"}, descriptions(e.Entries()))
	assert.Equal(t, []string{"a"}, descriptions(saver.last()))
}

func TestClearCompletedPersists(t *testing.T) {
	e, saver := newTestEngine([]model.Entry{{Description: "a", Completed: true}, {Description: "b", Completed: true}}, &fakeRemote{})
	mustDispatch(t, e, SetFilterMsg{Filter: model.FilterActive})

	mustDispatch(t, e, ClearCompletedMsg{})

	assert.Empty(t, e.Entries())
	require.Len(t, saver.saves, 1)
	assert.Empty(t, saver.last())
}

func TestPullOverwritesLocalEdits(t *testing.T) {
	remote := &fakeRemote{fetch: []model.Entry{{Description: "x"}}}
	e, saver := newTestEngine(nil, remote)

	pull := e.sync.Pull()
	require.NotNil(t, pull)

	// Local edits land before the pull resolves.
	mustDispatch(t, e, UpdateNewTextMsg{Text: "y"})
	mustDispatch(t, e, AddMsg{})
	assert.Equal(t, []string{"y"}, descriptions(e.Entries()))

	mustDispatch(t, e, pull())

	entries := e.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].Description)
	assert.False(t, entries[0].Completed)
	assert.False(t, entries[0].Editing)
	assert.Equal(t, []string{"x"}, descriptions(saver.last()))
}

func TestPullFailureKeepsPersistedEntries(t *testing.T) {
	e, saver := newTestEngine([]model.Entry{{Description: "stored"}}, &fakeRemote{err: errors.New("offline")})

	mustDispatch(t, e, e.sync.Pull()())

	assert.Equal(t, []string{"stored"}, descriptions(e.Entries()))
	assert.Empty(t, saver.saves)
	assert.Error(t, e.Snapshot().Sync.PullErr)
}

func TestTickPushesAndRearms(t *testing.T) {
	remote := &fakeRemote{}
	e, saver := newTestEngine([]model.Entry{{Description: "a"}}, remote)

	cmd := mustDispatch(t, e, syncer.TickMsg{Time: time.Now()})
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)

	var sawPush, sawTick bool
	for _, c := range batch {
		switch msg := c().(type) {
		case syncer.PushCompletedMsg:
			sawPush = true
			assert.NoError(t, msg.Err)
			_, err := e.Dispatch(msg)
			assert.NoError(t, err)
		case syncer.TickMsg:
			sawTick = true
		}
	}

	assert.True(t, sawPush)
	assert.True(t, sawTick)
	require.Len(t, remote.pushed, 1)
	assert.Equal(t, []string{"a"}, descriptions(remote.pushed[0]))
	assert.Equal(t, 1, e.Snapshot().Sync.PushesSent)
	assert.Empty(t, saver.saves, "pushing does not touch persistence")
}

func TestPushFailureIsNotSurfaced(t *testing.T) {
	remote := &fakeRemote{err: errors.New("503")}
	e, _ := newTestEngine(nil, remote)

	push := mustDispatch(t, e, SyncNowMsg{})
	require.NotNil(t, push)

	cmd, err := e.Dispatch(push())
	assert.Nil(t, cmd)
	assert.NoError(t, err)
	assert.Equal(t, 1, e.Snapshot().Sync.PushesFailed)
}

func TestSaveFailureDoesNotStopEngine(t *testing.T) {
	e, saver := newTestEngine(nil, &fakeRemote{})
	saver.err = errors.New("disk full")

	mustDispatch(t, e, AddMsg{})
	mustDispatch(t, e, AddMsg{})

	assert.Len(t, e.Entries(), 2)
	assert.Len(t, saver.saves, 2)
}

func TestInitWithoutPullOnlyTicks(t *testing.T) {
	ctrl := syncer.New(&fakeRemote{}, syncer.WithLogger(quietLogger()), syncer.WithInterval(time.Millisecond))
	e := New(state.New(nil), ctrl, nil, WithLogger(quietLogger()), WithoutPull())

	cmd := e.Init()
	require.NotNil(t, cmd)

	_, ok := cmd().(syncer.TickMsg)
	assert.True(t, ok)
}

func TestInitPullsAndTicks(t *testing.T) {
	e, _ := newTestEngine(nil, &fakeRemote{})

	cmd := e.Init()
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	assert.Len(t, batch, 2)
}

func TestSnapshotCounters(t *testing.T) {
	entries := []model.Entry{
		{ID: "1", Description: "a"},
		{ID: "2", Description: "b", Completed: true},
		{ID: "3", Description: "c"},
	}
	e, _ := newTestEngine(entries, &fakeRemote{})
	mustDispatch(t, e, SetFilterMsg{Filter: model.FilterCompleted})

	snap := e.Snapshot()
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 2, snap.Remaining)
	assert.Equal(t, 1, snap.Completed)
	assert.Len(t, snap.Visible, 1)
	assert.Equal(t, time.Millisecond, snap.SyncInterval)
}

func TestUnknownMessageIsIgnored(t *testing.T) {
	e, saver := newTestEngine(nil, &fakeRemote{})

	cmd, err := e.Dispatch(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Nil(t, cmd)
	assert.NoError(t, err)
	assert.Empty(t, saver.saves)
}
