package midi

import "fmt"

// Event is something the controller reported to the host.
// It is one of NoteOn, ControlChange, Connected or Disconnected.
type Event interface {
	isEvent()
}

// NoteOn is a pad press. Velocity is always 1-127.
type NoteOn struct {
	Pad      uint8
	Velocity uint8
}

// ControlChange is a button press. Value is always 1-127.
type ControlChange struct {
	Control uint8
	Value   uint8
}

// Connected reports that the controller is in programmer mode and accepts color commands
type Connected struct{}

// Disconnected reports that the link to the controller was lost
type Disconnected struct{}

func (NoteOn) isEvent()        {}
func (ControlChange) isEvent() {}
func (Connected) isEvent()     {}
func (Disconnected) isEvent()  {}

func (e NoteOn) String() string { return fmt.Sprintf("NoteOn(pad=%d, velocity=%d)", e.Pad, e.Velocity) }

func (e ControlChange) String() string {
	return fmt.Sprintf("ControlChange(control=%d, value=%d)", e.Control, e.Value)
}

func (Connected) String() string    { return "Connected" }
func (Disconnected) String() string { return "Disconnected" }

// Command is something the host wants shown on the controller.
// It is one of SetPadColor, SetButtonColor or ClearAll.
type Command interface {
	isCommand()
}

// SetPadColor lights a pad (Note address) with a palette color code
type SetPadColor struct {
	Pad   uint8
	Color uint8
}

// SetButtonColor lights a button (Control Change address) with a palette color code
type SetButtonColor struct {
	Control uint8
	Color   uint8
}

// ClearAll turns off every Note and Control Change address
type ClearAll struct{}

func (SetPadColor) isCommand()    {}
func (SetButtonColor) isCommand() {}
func (ClearAll) isCommand()       {}

// State is the supervisor's connection state
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
