package critsec

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrAlreadyHeld indicates TryAcquire on a cell which is already held.
	ErrAlreadyHeld = errors.New("critsec: cell already held")
	// ErrNotHeld indicates Release of a guard which no longer holds its cell.
	ErrNotHeld = errors.New("critsec: cell not held")
)

// timedSection is a section which can give up entering instead of waiting
// forever, see Mutex.Timeout.
type timedSection interface {
	acquireWithin() (Token, error)
}

// Cell owns a value which is only reachable while holding the cell.
//
// Holding the cell means being inside the cell's critical section, so a
// holder excludes every other context (task or interrupt) for the duration
// of the hold. The held flag turns a nested hold into ErrAlreadyHeld instead
// of a second writer on the same value.
//
// Acquiring and releasing a cell does not allocate.
type Cell[T any] struct {
	section Section
	held    atomic.Bool
	epoch   atomic.Uint32
	token   Token
	value   T
}

// NewCell creates a Cell guarding value with the given section.
func NewCell[T any](section Section, value T) *Cell[T] {
	return &Cell[T]{section: section, value: value}
}

// Guard is the exclusive access to a Cell granted by TryAcquire.
// The zero Guard holds nothing.
type Guard[T any] struct {
	cell  *Cell[T]
	epoch uint32
}

// TryAcquire enters the critical section and claims the cell.
// When the cell is already held the section is left again and
// ErrAlreadyHeld is returned.
func (c *Cell[T]) TryAcquire() (Guard[T], error) {
	token, err := c.enter()
	if err != nil {
		return Guard[T]{}, errors.Join(ErrAlreadyHeld, err)
	}
	if !c.held.CompareAndSwap(false, true) {
		c.section.Release(token)
		return Guard[T]{}, ErrAlreadyHeld
	}
	c.token = token
	return Guard[T]{cell: c, epoch: c.epoch.Add(1)}, nil
}

func (c *Cell[T]) enter() (Token, error) {
	if s, ok := c.section.(timedSection); ok {
		return s.acquireWithin()
	}
	return c.section.Acquire(), nil
}

// Held reports whether the cell is currently held.
func (c *Cell[T]) Held() bool {
	return c.held.Load()
}

// Holds reports whether g still holds its cell.
func (g Guard[T]) Holds() bool {
	return g.cell != nil && g.cell.held.Load() && g.cell.epoch.Load() == g.epoch
}

// Value returns the guarded value. The pointer must not be used after Release.
func (g Guard[T]) Value() *T {
	return &g.cell.value
}

// Release frees the cell and leaves the critical section.
// Releasing twice, or releasing a guard from an earlier hold, fails with
// ErrNotHeld.
func (g Guard[T]) Release() error {
	if !g.Holds() {
		return ErrNotHeld
	}
	token := g.cell.token
	g.cell.held.Store(false)
	g.cell.section.Release(token)
	return nil
}
