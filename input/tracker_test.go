package input_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relic-se/usbgamepad/input"
)

func TestTrackerEdges(t *testing.T) {
	var tr input.Tracker

	var st input.State
	st.Buttons.Add(input.ButtonA)
	st.Buttons.Add(input.ButtonStart)

	pressed, released := tr.Update(st)
	assert.ElementsMatch(t, []input.Button{input.ButtonA, input.ButtonStart}, pressed.Buttons())
	assert.True(t, released.IsEmpty())

	// A stays held, Start releases, B presses.
	var next input.State
	next.Buttons.Add(input.ButtonA)
	next.Buttons.Add(input.ButtonB)

	pressed, released = tr.Update(next)
	assert.Equal(t, []input.Button{input.ButtonB}, pressed.Buttons())
	assert.Equal(t, []input.Button{input.ButtonStart}, released.Buttons())
	assert.False(t, pressed.Contains(input.ButtonA), "held button must not re-press")
}

func TestTrackerIdempotent(t *testing.T) {
	var tr input.Tracker

	var st input.State
	st.Buttons.Add(input.ButtonX)
	st.LeftStick = input.Stick{X: 1000, Y: -1000}

	pressed, released := tr.Update(st)
	assert.False(t, pressed.IsEmpty())
	assert.True(t, released.IsEmpty())

	// Same state again: no edges.
	pressed, released = tr.Update(st)
	assert.True(t, pressed.IsEmpty())
	assert.True(t, released.IsEmpty())
}

func TestTrackerReset(t *testing.T) {
	var tr input.Tracker

	var st input.State
	st.Buttons.Add(input.ButtonY)
	tr.Update(st)

	tr.Reset()
	assert.Equal(t, input.State{}, tr.Previous())

	// After reset the same state presses again, as on a fresh connect.
	pressed, _ := tr.Update(st)
	assert.True(t, pressed.Contains(input.ButtonY))
}
