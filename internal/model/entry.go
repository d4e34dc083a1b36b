package model

import (
	"github.com/google/uuid"
)

// Entry represents a single todo item.
//
// The ID is assigned locally and never leaves the client; the wire format
// only carries description, completed and editing.
type Entry struct {
	ID          string `json:"-"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Editing     bool   `json:"editing"`
}

// NewEntry creates an unfinished entry with a fresh ID
func NewEntry(description string) Entry {
	return Entry{
		ID:          uuid.New().String(),
		Description: description,
	}
}

// EnsureIDs assigns an ID to every entry that lacks one. Entries decoded
// from the server arrive without IDs.
func EnsureIDs(entries []Entry) []Entry {
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.New().String()
		}
	}
	return entries
}

// Clone returns an independent copy of entries. A nil input yields an
// empty, non-nil slice so it encodes as [] rather than null.
func Clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
