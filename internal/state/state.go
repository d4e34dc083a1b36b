// Package state holds the task list aggregate and every operation that
// mutates it.
//
// Indices passed to the mutators are positions in the filtered view (the
// entries that fit the active filter, in backing order), not positions in
// the backing sequence. Each mutator resolves the filtered position to the
// entry's ID and then to its backing position before touching anything.
package state

import (
	"errors"
	"fmt"

	"github.com/dori/tasksync/internal/model"
)

var (
	// ErrIndexOutOfRange is returned when a filtered index does not resolve
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnknownEntry is returned when an entry ID is not in the list
	ErrUnknownEntry = errors.New("unknown entry")
)

// State is the task list: the ordered entries, the active filter and the
// two input buffers. It is not safe for concurrent use; the engine owns it
// and mutates it from a single goroutine.
type State struct {
	entries      []model.Entry
	filter       model.Filter
	newEntryText string
	editBuffer   string
}

// New creates a state with the given entries, the All filter and empty
// buffers. Entries without an ID get one.
func New(entries []model.Entry) *State {
	return &State{
		entries: model.EnsureIDs(model.Clone(entries)),
		filter:  model.FilterAll,
	}
}

// Entries returns a copy of the backing sequence
func (s *State) Entries() []model.Entry {
	return model.Clone(s.entries)
}

// Visible returns a copy of the entries that fit the active filter
func (s *State) Visible() []model.Entry {
	visible := make([]model.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if s.filter.Fit(e) {
			visible = append(visible, e)
		}
	}
	return visible
}

// Replace swaps the backing sequence wholesale. Filter and buffers are left
// alone.
func (s *State) Replace(entries []model.Entry) {
	s.entries = model.EnsureIDs(model.Clone(entries))
}

func (s *State) Filter() model.Filter { return s.filter }

// SetFilter changes the active filter. Entries are not touched.
func (s *State) SetFilter(f model.Filter) {
	s.filter = f
}

func (s *State) NewEntryText() string { return s.newEntryText }

func (s *State) SetNewEntryText(text string) {
	s.newEntryText = text
}

func (s *State) EditBuffer() string { return s.editBuffer }

func (s *State) SetEditBuffer(text string) {
	s.editBuffer = text
}

// Add appends a new unfinished entry at the end of the list, whatever the
// active filter, and clears the new-entry buffer. Empty descriptions are
// accepted.
func (s *State) Add(description string) model.Entry {
	e := model.NewEntry(description)
	s.entries = append(s.entries, e)
	s.newEntryText = ""
	return e
}

// Resolve maps a filtered index to the ID of the entry it designates
func (s *State) Resolve(idx int) (string, error) {
	n := 0
	for _, e := range s.entries {
		if !s.filter.Fit(e) {
			continue
		}
		if n == idx {
			return e.ID, nil
		}
		n++
	}
	return "", fmt.Errorf("%w: %d (visible entries: %d)", ErrIndexOutOfRange, idx, n)
}

// Position returns the backing position of the entry with the given ID
func (s *State) Position(id string) (int, error) {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
}

// locate resolves a filtered index all the way to a backing position
func (s *State) locate(idx int) (int, error) {
	id, err := s.Resolve(idx)
	if err != nil {
		return -1, err
	}
	return s.Position(id)
}

// Toggle flips the completed flag of the filtered entry at idx
func (s *State) Toggle(idx int) error {
	pos, err := s.locate(idx)
	if err != nil {
		return fmt.Errorf("toggle: %w", err)
	}
	s.entries[pos].Completed = !s.entries[pos].Completed
	return nil
}

// ToggleEdit flips the editing flag of the filtered entry at idx and loads
// its description into the edit buffer.
func (s *State) ToggleEdit(idx int) error {
	pos, err := s.locate(idx)
	if err != nil {
		return fmt.Errorf("toggle edit: %w", err)
	}
	s.editBuffer = s.entries[pos].Description
	s.entries[pos].Editing = !s.entries[pos].Editing
	return nil
}

// CompleteEdit stores text as the description of the filtered entry at idx,
// flips its editing flag and clears the edit buffer.
func (s *State) CompleteEdit(idx int, text string) error {
	pos, err := s.locate(idx)
	if err != nil {
		return fmt.Errorf("complete edit: %w", err)
	}
	s.entries[pos].Description = text
	s.entries[pos].Editing = !s.entries[pos].Editing
	s.editBuffer = ""
	return nil
}

// Remove deletes the filtered entry at idx from the list
func (s *State) Remove(idx int) error {
	pos, err := s.locate(idx)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	s.entries = append(s.entries[:pos], s.entries[pos+1:]...)
	return nil
}

// ToggleAll sets completed on every entry that fits the active filter.
// Entries outside the filter are untouched.
func (s *State) ToggleAll(completed bool) {
	filter := s.filter
	for i := range s.entries {
		if filter.Fit(s.entries[i]) {
			s.entries[i].Completed = completed
		}
	}
}

// IsAllCompleted reports whether the filtered view is non-empty and every
// entry in it is completed. An empty view is not "all completed".
func (s *State) IsAllCompleted() bool {
	seen := false
	for _, e := range s.entries {
		if !s.filter.Fit(e) {
			continue
		}
		if !e.Completed {
			return false
		}
		seen = true
	}
	return seen
}

// ClearCompleted drops every completed entry regardless of the active
// filter.
func (s *State) ClearCompleted() {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if model.FilterActive.Fit(e) {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// Total counts all entries
func (s *State) Total() int {
	return s.count(model.FilterAll)
}

// TotalCompleted counts completed entries across the whole list
func (s *State) TotalCompleted() int {
	return s.count(model.FilterCompleted)
}

// Remaining counts unfinished entries across the whole list
func (s *State) Remaining() int {
	return s.count(model.FilterActive)
}

func (s *State) count(f model.Filter) int {
	n := 0
	for _, e := range s.entries {
		if f.Fit(e) {
			n++
		}
	}
	return n
}
