// Package mailbox provides a single-slot, last-write-wins mailbox.
//
// Signal never blocks: it replaces whatever value is pending. Wait hands the
// pending value to a single consumer, suspending until one is signalled.
// A value is observed at most once. It is not a queue: a producer faster
// than the consumer loses the older values.
package mailbox

import (
	"context"

	"github.com/robotalks/edgelink/pkg/l0/critsec"
)

// Mailbox holds zero or one value of type T.
// The value is kept in place, so Signal and TryTake do not allocate.
type Mailbox[T any] struct {
	section critsec.Section
	value   T
	full    bool
	wakeCh  chan struct{}
}

// New creates an empty Mailbox guarded by critsec.NewSection.
func New[T any]() *Mailbox[T] {
	return NewWithSection[T](critsec.NewSection())
}

// NewWithSection creates an empty Mailbox whose slot is guarded by section.
// Signal may run inside another critical section, so on the host section
// must not be shared with the signalling side.
func NewWithSection[T any](section critsec.Section) *Mailbox[T] {
	return &Mailbox[T]{section: section, wakeCh: make(chan struct{}, 1)}
}

// Signal stores a copy of v, discarding any unread value, and wakes the waiter.
func (m *Mailbox[T]) Signal(v T) {
	token := m.section.Acquire()
	m.value, m.full = v, true
	m.section.Release(token)
	select {
	case m.wakeCh <- struct{}{}:
	default:
	}
}

// Wait returns the pending value, suspending until one is signalled.
// The value is claimed and the slot cleared atomically.
// The context only ends the wait on shutdown.
func (m *Mailbox[T]) Wait(ctx context.Context) (T, error) {
	for {
		if v, ok := m.TryTake(); ok {
			return v, nil
		}
		select {
		case <-m.wakeCh:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// TryTake claims the pending value without suspending.
func (m *Mailbox[T]) TryTake() (v T, ok bool) {
	token := m.section.Acquire()
	if m.full {
		v, ok = m.value, true
		m.clear()
	}
	m.section.Release(token)
	return
}

// Clear drops the pending value and reports whether there was one.
func (m *Mailbox[T]) Clear() bool {
	token := m.section.Acquire()
	full := m.full
	m.clear()
	m.section.Release(token)
	return full
}

// Pending reports whether a value is waiting to be taken.
func (m *Mailbox[T]) Pending() bool {
	token := m.section.Acquire()
	full := m.full
	m.section.Release(token)
	return full
}

func (m *Mailbox[T]) clear() {
	var zero T
	m.value, m.full = zero, false
}
