//go:build tinygo

package critsec

import "runtime/interrupt"

// Interrupts disables interrupt delivery on the current core.
// Nested sections are legal; each Release restores the state its Acquire saw.
type Interrupts struct{}

// Acquire implements Section.
func (Interrupts) Acquire() Token {
	return Token{state: uintptr(interrupt.Disable())}
}

// Release implements Section.
func (Interrupts) Release(t Token) {
	interrupt.Restore(interrupt.State(t.state))
}

// NewSection returns the section used by primitives which own one.
// On the device this disables interrupts.
func NewSection() Section {
	return Interrupts{}
}
