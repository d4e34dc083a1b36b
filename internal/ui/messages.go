package ui

// inputMode is what keypresses are currently routed to
type inputMode int

const (
	modeNormal inputMode = iota
	modeAdd
	modeEdit
)

// String returns the display name for a mode
func (m inputMode) String() string {
	switch m {
	case modeAdd:
		return "Add"
	case modeEdit:
		return "Edit"
	default:
		return "Normal"
	}
}

// ErrorMsg contains an error to display
type ErrorMsg struct {
	Err error
}
