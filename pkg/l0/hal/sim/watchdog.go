package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/robotalks/edgelink/pkg/framework"
)

// ErrWatchdogNotConfigured is returned by Start before Configure.
var ErrWatchdogNotConfigured = errors.New("watchdog not configured")

// Watchdog counts feeds instead of resetting the process.
type Watchdog struct {
	Clock framework.TimeSource

	lock     sync.Mutex
	timeout  time.Duration
	started  bool
	feeds    int
	lastFeed time.Time
	maxGap   time.Duration
}

func (w *Watchdog) now() time.Time {
	if w.Clock != nil {
		return w.Clock.Now()
	}
	return time.Now()
}

// Configure implements hal.Watchdog.
func (w *Watchdog) Configure(timeout time.Duration) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.timeout = timeout
	return nil
}

// Start implements hal.Watchdog.
func (w *Watchdog) Start() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.timeout <= 0 {
		return ErrWatchdogNotConfigured
	}
	w.started = true
	w.lastFeed = w.now()
	return nil
}

// Update implements hal.Watchdog.
func (w *Watchdog) Update() {
	w.lock.Lock()
	defer w.lock.Unlock()
	now := w.now()
	if w.started {
		if gap := now.Sub(w.lastFeed); gap > w.maxGap {
			w.maxGap = gap
		}
	}
	w.feeds++
	w.lastFeed = now
}

// Feeds returns the number of Update calls.
func (w *Watchdog) Feeds() int {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.feeds
}

// Expired reports whether a real watchdog would have reset the device
// by now, or at any earlier point since Start.
func (w *Watchdog) Expired() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	if !w.started {
		return false
	}
	return w.maxGap > w.timeout || w.now().Sub(w.lastFeed) > w.timeout
}
