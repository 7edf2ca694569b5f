package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robotalks/edgelink/pkg/framework"
	"github.com/robotalks/edgelink/pkg/l0/hal"
)

// Watchdog defaults.
const (
	DefaultWatchdogTimeout      = time.Second
	DefaultWatchdogFeedInterval = 100 * time.Millisecond
)

// WatchdogFeeder arms the watchdog and keeps feeding it. A stalled
// scheduler stops the feeding and the device resets.
type WatchdogFeeder struct {
	Watchdog     hal.Watchdog
	Timeout      time.Duration
	FeedInterval time.Duration
}

// Name implements framework.Named.
func (f *WatchdogFeeder) Name() string {
	return "watchdog"
}

// Run implements framework.Runnable.
func (f *WatchdogFeeder) Run(ctx context.Context) error {
	timeout, interval := f.Timeout, f.FeedInterval
	if timeout <= 0 {
		timeout = DefaultWatchdogTimeout
	}
	if interval <= 0 {
		interval = DefaultWatchdogFeedInterval
	}
	if interval >= timeout {
		return fmt.Errorf("watchdog feed interval %v not below timeout %v", interval, timeout)
	}
	if err := f.Watchdog.Configure(timeout); err != nil {
		return fmt.Errorf("configure watchdog: %w", err)
	}
	if err := f.Watchdog.Start(); err != nil {
		return fmt.Errorf("start watchdog: %w", err)
	}
	return framework.NewTicker(interval, func(context.Context, time.Time) error {
		f.Watchdog.Update()
		return nil
	}).Run(ctx)
}
