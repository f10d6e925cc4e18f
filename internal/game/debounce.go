package game

import "time"

// buttonState is the edge detector for one button.
type buttonState struct {
	lastPress time.Time
	latched   bool // set while held after a registered press
}

// register feeds one raw reading and reports whether it is a new logical
// press. A press needs the pressed level, more than DebounceDelay since the
// previous registered press, and an unlatched button. Releasing re-arms the
// button immediately without its own debounce.
func (b *buttonState) register(pressed bool, now time.Time) bool {
	if !pressed {
		b.latched = false
		return false
	}
	if b.latched || now.Sub(b.lastPress) <= DebounceDelay {
		return false
	}
	b.lastPress = now
	b.latched = true
	return true
}
