// Package input defines the decoded gamepad state model: button identifiers,
// hat directions, analog stick values and the edge-detecting state tracker.
package input

import (
	"fmt"
	"math/bits"
	"strings"
)

// Button identifies one digital control of a gamepad.
//
// The last four values are virtual buttons derived from the left analog
// stick crossing StickThreshold; they let digital-only consumers treat the
// stick as a second d-pad.
type Button uint8

const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonStart
	ButtonSelect
	ButtonHome
	ButtonL1
	ButtonR1
	ButtonL2
	ButtonR2
	ButtonL3
	ButtonR3
	ButtonJoystickUp
	ButtonJoystickDown
	ButtonJoystickLeft
	ButtonJoystickRight

	buttonCount
)

var buttonNames = [buttonCount]string{
	"A", "B", "X", "Y",
	"UP", "DOWN", "LEFT", "RIGHT",
	"START", "SELECT", "HOME",
	"L1", "R1", "L2", "R2", "L3", "R3",
	"JOYSTICK_UP", "JOYSTICK_DOWN", "JOYSTICK_LEFT", "JOYSTICK_RIGHT",
}

func (b Button) String() string {
	if b >= buttonCount {
		return fmt.Sprintf("BUTTON(%d)", uint8(b))
	}
	return buttonNames[b]
}

// ParseButton resolves a button name as produced by Button.String.
func ParseButton(name string) (Button, error) {
	for i, n := range buttonNames {
		if strings.EqualFold(name, n) {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button name: %q", name)
}

// ButtonSet is a bitset of pressed buttons. The zero value is the empty set.
type ButtonSet uint32

func (s *ButtonSet) Add(b Button)          { *s |= 1 << b }
func (s *ButtonSet) Remove(b Button)       { *s &^= 1 << b }
func (s ButtonSet) Contains(b Button) bool { return s&(1<<b) != 0 }
func (s ButtonSet) IsEmpty() bool          { return s == 0 }
func (s ButtonSet) Len() int               { return bits.OnesCount32(uint32(s)) }

// Diff returns the buttons present in s but not in other.
func (s ButtonSet) Diff(other ButtonSet) ButtonSet { return s &^ other }

// Buttons expands the set into a slice, in identifier order.
func (s ButtonSet) Buttons() []Button {
	if s == 0 {
		return nil
	}
	out := make([]Button, 0, s.Len())
	for b := Button(0); b < buttonCount; b++ {
		if s.Contains(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s ButtonSet) String() string {
	if s == 0 {
		return "[]"
	}
	names := make([]string, 0, s.Len())
	for _, b := range s.Buttons() {
		names = append(names, b.String())
	}
	return "[" + strings.Join(names, " ") + "]"
}

// Event is a single button transition observed between two polls.
type Event struct {
	Button  Button
	Pressed bool
}

func (e Event) String() string {
	if e.Pressed {
		return e.Button.String() + " Pressed"
	}
	return e.Button.String() + " Released"
}

// Events flattens pressed/released sets into a slice of transitions,
// pressed first. Returns nil when both sets are empty.
func Events(pressed, released ButtonSet) []Event {
	n := pressed.Len() + released.Len()
	if n == 0 {
		return nil
	}
	out := make([]Event, 0, n)
	for _, b := range pressed.Buttons() {
		out = append(out, Event{Button: b, Pressed: true})
	}
	for _, b := range released.Buttons() {
		out = append(out, Event{Button: b, Pressed: false})
	}
	return out
}
