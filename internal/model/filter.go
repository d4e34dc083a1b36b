package model

import (
	"fmt"
	"strings"
)

// Filter selects which entries are visible and which ones UI indices
// refer to.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

// Filters returns every filter in display order
func Filters() []Filter {
	return []Filter{FilterAll, FilterActive, FilterCompleted}
}

// Fit reports whether the entry is part of the filtered view
func (f Filter) Fit(e Entry) bool {
	switch f {
	case FilterActive:
		return !e.Completed
	case FilterCompleted:
		return e.Completed
	default:
		return true
	}
}

// String returns the display name for a filter
func (f Filter) String() string {
	switch f {
	case FilterAll:
		return "All"
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Href returns the link form of the filter
func (f Filter) Href() string {
	switch f {
	case FilterActive:
		return "#/active"
	case FilterCompleted:
		return "#/completed"
	default:
		return "#/"
	}
}

// ParseFilter accepts a filter name (any case) or its href.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	for _, f := range Filters() {
		if strings.EqualFold(s, f.String()) || s == f.Href() {
			return f, nil
		}
	}
	return FilterAll, fmt.Errorf("unknown filter %q", s)
}
