// Package critsec provides critical sections and the exclusive-access cell
// built on top of them.
//
// A critical section is the platform capability that stops every other
// execution context (interrupt handlers included) from running until it is
// released. On the device this disables interrupt delivery; on the host it
// is simulated. Acquire returns a Token which must be passed to exactly one
// matching Release.
package critsec

// Token is the opaque restore state returned by Section.Acquire.
type Token struct {
	state uintptr
}

// Section is a critical section provider.
type Section interface {
	// Acquire enters the critical section and returns the state to restore.
	Acquire() Token
	// Release restores the state saved by the matching Acquire.
	Release(Token)
}

// Do runs fn inside the critical section. The section is released on every
// exit path of fn, including a panic.
func Do(s Section, fn func()) {
	token := s.Acquire()
	defer s.Release(token)
	fn()
}
