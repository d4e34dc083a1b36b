// Package syncer keeps the local task list and the sync server in step:
// one pull at startup, then a full push on every tick.
//
// The controller never touches state from a background goroutine. Network
// calls run as tea.Cmd functions whose only effect is the message they
// return; the engine applies that message on its own loop.
package syncer

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/tasksync/internal/model"
	"github.com/dori/tasksync/internal/state"
)

// DefaultInterval is the push interval used when none is configured
const DefaultInterval = 5 * time.Second

// Remote is the transport the controller drives
type Remote interface {
	FetchEntries(ctx context.Context) ([]model.Entry, error)
	PushEntries(ctx context.Context, entries []model.Entry) error
}

// Status summarizes sync activity for display
type Status struct {
	Pulled  bool
	PullErr error

	// PushesSent counts pushes started, including ones still in flight
	PushesSent   int
	PushesFailed int
	LastPushErr  error
	LastPushAt   time.Time
}

// Controller orchestrates pull and push. Its methods must be called from
// the engine's loop only.
type Controller struct {
	remote   Remote
	interval time.Duration
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	pullStarted bool
	pushSeq     int
	status      Status
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the diagnostic logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithInterval sets the push interval
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// New creates a controller over remote
func New(remote Remote, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		remote:   remote,
		interval: DefaultInterval,
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Interval returns the push interval
func (c *Controller) Interval() time.Duration {
	return c.interval
}

// Status returns a snapshot of sync activity
func (c *Controller) Status() Status {
	return c.status
}

// Stop cancels every request still in flight
func (c *Controller) Stop() {
	c.cancel()
}

// Pull returns the command for the startup pull. Only the first call
// returns a command; later calls return nil.
func (c *Controller) Pull() tea.Cmd {
	if c.pullStarted {
		return nil
	}
	c.pullStarted = true
	c.logger.Debug("starting pull")

	ctx := c.ctx
	remote := c.remote
	return func() tea.Msg {
		entries, err := remote.FetchEntries(ctx)
		if err != nil {
			return PullCompletedMsg{Err: err}
		}
		return PullCompletedMsg{Entries: entries}
	}
}

// ApplyPull folds a pull outcome into st. On success the entries are
// replaced wholesale, discarding any local edits made since startup. On
// failure st is left as it is. Reports whether st's entries changed.
func (c *Controller) ApplyPull(st *state.State, msg PullCompletedMsg) bool {
	c.status.Pulled = true
	c.status.PullErr = msg.Err

	if msg.Err != nil {
		c.logger.Warn("initial sync failed, keeping local entries", "error", msg.Err, "local", st.Total())
		return false
	}

	c.logger.Info("initial sync complete", "entries", len(msg.Entries), "replaced", st.Total())
	st.Replace(msg.Entries)
	return true
}

// Tick returns a command that delivers a TickMsg after one interval
func (c *Controller) Tick() tea.Cmd {
	return tea.Tick(c.interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// Push returns a command that uploads a snapshot of entries. Pushes are
// independent: a new one does not wait for or cancel an earlier one.
func (c *Controller) Push(entries []model.Entry) tea.Cmd {
	c.pushSeq++
	c.status.PushesSent++
	seq := c.pushSeq
	snapshot := model.Clone(entries)
	ctx := c.ctx
	remote := c.remote

	c.logger.Debug("starting push", "seq", seq, "entries", len(snapshot))
	return func() tea.Msg {
		err := remote.PushEntries(ctx, snapshot)
		return PushCompletedMsg{Seq: seq, Count: len(snapshot), Err: err}
	}
}

// HandlePushCompleted records a push outcome. Failures are logged and
// otherwise ignored.
func (c *Controller) HandlePushCompleted(msg PushCompletedMsg) {
	c.status.LastPushErr = msg.Err
	c.status.LastPushAt = time.Now()

	if msg.Err != nil {
		c.status.PushesFailed++
		c.logger.Warn("push failed", "seq", msg.Seq, "entries", msg.Count, "error", msg.Err)
		return
	}
	c.logger.Debug("push complete", "seq", msg.Seq, "entries", msg.Count)
}
