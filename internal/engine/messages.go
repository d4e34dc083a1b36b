package engine

import (
	"github.com/dori/tasksync/internal/model"
)

// Messages the UI sends to the engine. Indices are positions in the
// filtered view the UI rendered.

// AddMsg adds the contents of the new-entry buffer as an entry
type AddMsg struct{}

// SetFilterMsg changes the active filter
type SetFilterMsg struct {
	Filter model.Filter
}

// ToggleMsg flips completion of one entry
type ToggleMsg struct {
	Index int
}

// ToggleEditMsg opens or closes one entry for editing
type ToggleEditMsg struct {
	Index int
}

// EditMsg commits the edit buffer as the description of one entry
type EditMsg struct {
	Index int
}

// RemoveMsg deletes one entry
type RemoveMsg struct {
	Index int
}

// ToggleAllMsg completes every visible entry, or reopens them all when
// they are all completed already
type ToggleAllMsg struct{}

// ClearCompletedMsg drops every completed entry
type ClearCompletedMsg struct{}

// UpdateNewTextMsg replaces the new-entry buffer
type UpdateNewTextMsg struct {
	Text string
}

// UpdateEditTextMsg replaces the edit buffer
type UpdateEditTextMsg struct {
	Text string
}

// SyncNowMsg pushes immediately without waiting for the next tick
type SyncNowMsg struct{}
