package critsec

import "sync/atomic"

const (
	stateEnabled uintptr = iota + 1
	stateDisabled
)

// Flag models the interrupt-enable bit of a single core.
//
// Acquire clears the bit and remembers whether it was set; nested acquires are
// legal and only the outermost Release sets the bit again. Flag never blocks,
// so it provides no exclusion between goroutines: it is meant for code that
// runs on a single execution context, such as host test harnesses.
type Flag struct {
	disabled atomic.Bool
}

// Acquire implements Section.
func (f *Flag) Acquire() Token {
	if f.disabled.Swap(true) {
		return Token{state: stateDisabled}
	}
	return Token{state: stateEnabled}
}

// Release implements Section.
func (f *Flag) Release(t Token) {
	if t.state == stateEnabled {
		f.disabled.Store(false)
	}
}

// Disabled reports whether the section is currently held.
func (f *Flag) Disabled() bool {
	return f.disabled.Load()
}
