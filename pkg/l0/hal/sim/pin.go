// Package sim simulates the board collaborators on the host.
package sim

import (
	"context"
	"sync/atomic"

	"github.com/robotalks/edgelink/pkg/l0/hal"
)

// Pin is a simulated digital input.
//
// Edges are latched like a pending interrupt flag: edges injected while
// nobody waits collapse into one, and the waiter reads the level as it is
// when it wakes up.
type Pin struct {
	level  atomic.Int32
	edgeCh chan struct{}
}

// NewPin creates a Pin at the initial level.
func NewPin(initial hal.Level) *Pin {
	p := &Pin{edgeCh: make(chan struct{}, 1)}
	p.level.Store(int32(initial))
	return p
}

// Inject drives the pin to level and raises an edge, even when the level
// does not change (a glitch shorter than the sampling).
func (p *Pin) Inject(level hal.Level) {
	p.level.Store(int32(level))
	select {
	case p.edgeCh <- struct{}{}:
	default:
	}
}

// Toggle inverts the level and raises an edge.
func (p *Pin) Toggle() hal.Level {
	level := hal.High
	if p.Level() == hal.High {
		level = hal.Low
	}
	p.Inject(level)
	return level
}

// WaitForAnyEdge implements hal.EdgeInput.
func (p *Pin) WaitForAnyEdge(ctx context.Context) error {
	select {
	case <-p.edgeCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Level implements hal.EdgeInput.
func (p *Pin) Level() hal.Level {
	return hal.Level(p.level.Load())
}
