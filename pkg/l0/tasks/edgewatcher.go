package tasks

import (
	"context"
	"time"

	"github.com/robotalks/edgelink/pkg/framework"
	"github.com/robotalks/edgelink/pkg/l0/devlog"
	"github.com/robotalks/edgelink/pkg/l0/hal"
	"github.com/robotalks/edgelink/pkg/l0/packet"
)

// EdgeWatcher classifies every edge of Input and signals the matching
// message into Mailbox. A Low level after the edge is a falling edge
// (a pulse begins), High is a rising edge (a pause begins).
type EdgeWatcher struct {
	Input   hal.EdgeInput
	Mailbox *PacketMailbox
	Log     *devlog.Logger
	Clock   framework.TimeSource

	FallingMessage string
	RisingMessage  string
	// AliveInterval rate-limits the "alive" line. Zero disables it.
	AliveInterval time.Duration

	edges      uint64
	pulseBegin time.Time
	pauseBegin time.Time
	lastAlive  time.Time
}

// NewEdgeWatcher creates an EdgeWatcher with the default messages.
func NewEdgeWatcher(input hal.EdgeInput, mb *PacketMailbox, log *devlog.Logger) *EdgeWatcher {
	return &EdgeWatcher{
		Input:          input,
		Mailbox:        mb,
		Log:            log,
		FallingMessage: DefaultFallingMessage,
		RisingMessage:  DefaultRisingMessage,
	}
}

// Name implements framework.Named.
func (w *EdgeWatcher) Name() string {
	return "edge-watcher"
}

// Edges returns the number of edges seen so far.
// It is only meaningful after Run returned.
func (w *EdgeWatcher) Edges() uint64 {
	return w.edges
}

// Run implements framework.Runnable.
func (w *EdgeWatcher) Run(ctx context.Context) error {
	clock := w.Clock
	if clock == nil {
		clock = framework.SystemTime
	}
	w.lastAlive = clock.Now()
	for {
		if err := w.Input.WaitForAnyEdge(ctx); err != nil {
			return err
		}
		w.HandleEdge(w.Input.Level(), clock.Now())
	}
}

// HandleEdge processes one edge observed at now with the level read after it.
// Log lines go out before the edge message so that, when both share the
// mailbox, the edge message is the value left pending.
func (w *EdgeWatcher) HandleEdge(level hal.Level, now time.Time) {
	w.edges++
	if w.AliveInterval > 0 && now.Sub(w.lastAlive) >= w.AliveInterval {
		w.lastAlive = now
		w.Log.Infof("edge watcher alive, %d edges", w.edges)
	}

	var msg string
	switch level {
	case hal.Low:
		if !w.pauseBegin.IsZero() {
			w.Log.Debugf("pause %v", now.Sub(w.pauseBegin))
		}
		w.pulseBegin = now
		msg = w.FallingMessage
	default:
		if !w.pulseBegin.IsZero() {
			w.Log.Debugf("pulse %v", now.Sub(w.pulseBegin))
		}
		w.pauseBegin = now
		msg = w.RisingMessage
	}
	w.Mailbox.Signal(packet.FromString(msg))
}
