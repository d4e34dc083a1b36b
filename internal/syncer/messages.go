package syncer

import (
	"time"

	"github.com/dori/tasksync/internal/model"
)

// TickMsg is delivered every sync interval and triggers a push
type TickMsg struct {
	Time time.Time
}

// PullCompletedMsg carries the outcome of the startup pull. Exactly one of
// Entries and Err is meaningful.
type PullCompletedMsg struct {
	Entries []model.Entry
	Err     error
}

// PushCompletedMsg carries the outcome of one push
type PushCompletedMsg struct {
	Seq   int
	Count int
	Err   error
}
