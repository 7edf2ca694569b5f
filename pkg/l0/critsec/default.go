//go:build !tinygo

package critsec

// NewSection returns the section used by primitives which own one.
// On the host this is a Mutex.
func NewSection() Section {
	return &Mutex{}
}
