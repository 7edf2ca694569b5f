package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background tasks.
// A task on the device runs for the lifetime of the process, so Run only
// returns on context cancellation or on an unrecoverable error.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// TimeSource provides the time for tasks that need timestamps.
type TimeSource interface {
	Now() time.Time
}

// TimeSourceFunc is the func form of TimeSource.
type TimeSourceFunc func() time.Time

// Now implements TimeSource.
func (f TimeSourceFunc) Now() time.Time {
	return f()
}

// SystemTime is the TimeSource backed by time.Now.
var SystemTime TimeSource = TimeSourceFunc(time.Now)
