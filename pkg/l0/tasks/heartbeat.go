package tasks

import (
	"context"
	"time"

	"github.com/robotalks/edgelink/pkg/framework"
	"github.com/robotalks/edgelink/pkg/l0/devlog"
)

// DefaultHeartbeatInterval is the default period of Heartbeat.
const DefaultHeartbeatInterval = time.Second

// Heartbeat prints a liveness line through the device log periodically.
type Heartbeat struct {
	Log      *devlog.Logger
	Interval time.Duration
	Message  string

	ticker framework.Ticker
}

// Name implements framework.Named.
func (h *Heartbeat) Name() string {
	return "heartbeat"
}

// Run implements framework.Runnable.
func (h *Heartbeat) Run(ctx context.Context) error {
	interval := h.Interval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	msg := h.Message
	if msg == "" {
		msg = "heartbeat"
	}
	h.ticker.Interval = interval
	h.ticker.Func = func(context.Context, time.Time) error {
		h.Log.Println(msg)
		return nil
	}
	return h.ticker.Run(ctx)
}

// Beat emits a heartbeat now instead of waiting for the next interval.
func (h *Heartbeat) Beat() {
	h.ticker.TriggerNext()
}
