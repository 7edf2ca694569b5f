package framework

import (
	"context"
	"sync"
	"time"
)

// DefaultTickInterval is used when Ticker.Interval is not set.
const DefaultTickInterval = 100 * time.Millisecond

// TickFunc is invoked on every tick with the tick time.
type TickFunc func(ctx context.Context, now time.Time) error

// Ticker is a Runnable invoking Func periodically.
// A non-nil error from Func stops the Ticker. The zero Ticker is usable once
// Func is set.
type Ticker struct {
	Interval time.Duration
	Func     TickFunc

	wakeUpOnce sync.Once
	wakeUpCh   chan struct{}
}

// NewTicker creates a Ticker.
func NewTicker(interval time.Duration, fn TickFunc) *Ticker {
	return &Ticker{Interval: interval, Func: fn}
}

func (t *Ticker) wakeUp() chan struct{} {
	t.wakeUpOnce.Do(func() { t.wakeUpCh = make(chan struct{}, 1) })
	return t.wakeUpCh
}

// Run implements Runnable.
func (t *Ticker) Run(ctx context.Context) error {
	wakeUpCh := t.wakeUp()
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := t.Func(ctx, now); err != nil {
				return err
			}
		case <-wakeUpCh:
			if err := t.Func(ctx, time.Now()); err != nil {
				return err
			}
		}
	}
}

// TriggerNext schedules an extra tick immediately. Triggers before Run
// fire as soon as it starts; triggers pending together collapse into one.
func (t *Ticker) TriggerNext() {
	select {
	case t.wakeUp() <- struct{}{}:
	default:
	}
}
