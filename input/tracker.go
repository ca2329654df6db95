package input

// Tracker detects button edges between consecutive state snapshots.
//
// It holds exactly one previous State, initially all neutral. It is not safe
// for concurrent use: a single owning poller must call Update sequentially.
type Tracker struct {
	prev State
}

// Update replaces the tracked state with next and returns the buttons that
// were newly pressed and newly released since the previous snapshot.
// Feeding the same state twice yields two empty sets on the second call.
func (t *Tracker) Update(next State) (pressed, released ButtonSet) {
	pressed = next.Buttons.Diff(t.prev.Buttons)
	released = t.prev.Buttons.Diff(next.Buttons)
	t.prev = next
	return pressed, released
}

// Previous returns the last snapshot passed to Update.
func (t *Tracker) Previous() State { return t.prev }

// Reset returns the tracker to the all-neutral state, as after construction.
// Used when a device disconnects so a reconnect starts from a clean diff base.
func (t *Tracker) Reset() { t.prev = State{} }
