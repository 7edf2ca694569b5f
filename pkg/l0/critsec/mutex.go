//go:build !tinygo

package critsec

import (
	"errors"
	"sync"
	"time"
)

// ErrTimeout indicates a Mutex section which could not be entered within
// its Timeout.
var ErrTimeout = errors.New("critsec: section not entered in time")

// Mutex is the host stand-in for disabling interrupts: goroutines play the
// role of interrupt contexts, and holding the mutex keeps all of them out.
//
// Unlike a real interrupt mask it is not reentrant. With a zero Timeout a
// nested Acquire from the same goroutine blocks forever. With a Timeout a
// Cell on this section reports ErrAlreadyHeld once the wait exceeds it, so a
// nested session fails instead of hanging.
type Mutex struct {
	// Timeout bounds how long a Cell waits to enter the section.
	Timeout time.Duration

	mu sync.Mutex
}

// Acquire implements Section.
func (m *Mutex) Acquire() Token {
	m.mu.Lock()
	return Token{state: stateEnabled}
}

// Release implements Section.
func (m *Mutex) Release(Token) {
	m.mu.Unlock()
}

func (m *Mutex) acquireWithin() (Token, error) {
	if m.Timeout <= 0 {
		return m.Acquire(), nil
	}
	if m.mu.TryLock() {
		return Token{state: stateEnabled}, nil
	}
	deadline := time.Now().Add(m.Timeout)
	backoff := 50 * time.Microsecond
	for !m.mu.TryLock() {
		if !time.Now().Before(deadline) {
			return Token{}, ErrTimeout
		}
		time.Sleep(backoff)
		if backoff < time.Millisecond {
			backoff *= 2
		}
	}
	return Token{state: stateEnabled}, nil
}
