package input

import "fmt"

// Direction is a hat (d-pad) position: centered or one of 8 compass points.
type Direction uint8

const (
	HatCentered Direction = iota
	HatUp
	HatUpRight
	HatRight
	HatDownRight
	HatDown
	HatDownLeft
	HatLeft
	HatUpLeft
)

var directionNames = [...]string{
	"CENTERED",
	"UP", "UP_RIGHT", "RIGHT", "DOWN_RIGHT",
	"DOWN", "DOWN_LEFT", "LEFT", "UP_LEFT",
}

func (d Direction) String() string {
	if int(d) >= len(directionNames) {
		return fmt.Sprintf("DIRECTION(%d)", uint8(d))
	}
	return directionNames[d]
}

// HatFromNibble maps the HID hat switch encoding (0=up, clockwise through
// 7=up-left) to a Direction. Any value outside 0..7 is the null state.
func HatFromNibble(v uint8) Direction {
	if v > 7 {
		return HatCentered
	}
	return Direction(v + 1)
}

// DPad returns the d-pad buttons implied by the hat position. Diagonals
// press two buttons.
func (d Direction) DPad() ButtonSet {
	var s ButtonSet
	switch d {
	case HatUpLeft, HatUp, HatUpRight:
		s.Add(ButtonUp)
	case HatDownLeft, HatDown, HatDownRight:
		s.Add(ButtonDown)
	}
	switch d {
	case HatUpLeft, HatLeft, HatDownLeft:
		s.Add(ButtonLeft)
	case HatUpRight, HatRight, HatDownRight:
		s.Add(ButtonRight)
	}
	return s
}

// HatFromDPad derives a hat position from d-pad buttons, for layouts that
// report the d-pad as plain buttons. Contradictory inputs (up+down) cancel.
func HatFromDPad(s ButtonSet) Direction {
	up := s.Contains(ButtonUp) && !s.Contains(ButtonDown)
	down := s.Contains(ButtonDown) && !s.Contains(ButtonUp)
	left := s.Contains(ButtonLeft) && !s.Contains(ButtonRight)
	right := s.Contains(ButtonRight) && !s.Contains(ButtonLeft)
	switch {
	case up && left:
		return HatUpLeft
	case up && right:
		return HatUpRight
	case down && left:
		return HatDownLeft
	case down && right:
		return HatDownRight
	case up:
		return HatUp
	case down:
		return HatDown
	case left:
		return HatLeft
	case right:
		return HatRight
	}
	return HatCentered
}

// Thresholds for controls derived from analog values.
const (
	// TriggerThreshold is the analog trigger value at which L2/R2 count as
	// pressed.
	TriggerThreshold uint8 = 128
	// StickThreshold is the stick deflection at which the virtual
	// JOYSTICK_* buttons count as pressed.
	StickThreshold int16 = 8192
)

// Stick is one analog stick position. Positive Y is up; zero is centered.
type Stick struct {
	X, Y int16
}

// State is one decoded gamepad snapshot. It is a plain value: snapshots are
// replaced wholesale each poll and are safe to copy.
type State struct {
	Buttons      ButtonSet
	LeftStick    Stick
	RightStick   Stick
	LeftTrigger  uint8
	RightTrigger uint8
	Hat          Direction
}

// Pressed reports whether the given button is held in this snapshot.
func (s State) Pressed(b Button) bool { return s.Buttons.Contains(b) }
