package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/edgelink/pkg/l1/monitor"
)

// Status payloads, published retained.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Topics names the per-device topics, relative to the queue prefix.
type Topics struct {
	Device string
}

// Edge carries edge text lines.
func (t Topics) Edge() string { return t.Device + "/edge" }

// Log carries decoded log records as JSON.
func (t Topics) Log() string { return t.Device + "/log" }

// Status carries the retained online/offline state of the monitor.
func (t Topics) Status() string { return t.Device + "/status" }

// Inject receives edge levels for the simulator.
func (t Topics) Inject() string { return t.Device + "/inject" }

// LogMessage is the JSON form of a log entry.
type LogMessage struct {
	Seq       int     `json:"seq"`
	Level     string  `json:"level"`
	Uptime    float64 `json:"uptime"`
	Message   string  `json:"message"`
	Truncated bool    `json:"truncated,omitempty"`
	Missed    int     `json:"missed,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// LogMessageFrom converts a log entry.
func LogMessageFrom(e *monitor.LogEntry) LogMessage {
	msg := LogMessage{
		Seq:       int(e.Seq),
		Level:     strings.ToLower(e.Level.String()),
		Uptime:    e.Record.Uptime.Seconds(),
		Message:   e.Record.Message,
		Truncated: e.FrameTruncated || e.Record.Truncated,
		Missed:    e.Missed,
	}
	if e.Err != nil {
		msg.Error = e.Err.Error()
	}
	return msg
}

// Bridge publishes monitor events.
type Bridge struct {
	Queue  *Queue
	Topics Topics
}

// NewBridgeFromURL creates a Bridge with its own client. The client's
// last will marks the device offline.
func NewBridgeFromURL(brokerURL, device string) (*Bridge, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	topics := Topics{Device: device}
	opts.SetWill(prefix+topics.Status(), StatusOffline, 1, true)
	b := &Bridge{Queue: NewQueue(opts, prefix), Topics: topics}
	b.Queue.OnConnect = func(q *Queue) {
		q.PubWith(topics.Status(), []byte(StatusOnline), 1, true)
	}
	return b, nil
}

// HandleEvent implements monitor.Handler.
func (b *Bridge) HandleEvent(e monitor.Event) {
	if e.IsText() {
		b.Queue.Pub(b.Topics.Edge(), []byte(e.Text))
		return
	}
	payload, err := json.Marshal(LogMessageFrom(e.Log))
	if err != nil {
		glog.Errorf("encode log entry: %v", err)
		return
	}
	b.Queue.Pub(b.Topics.Log(), payload)
}

// Run implements framework.Runnable: it connects, and on shutdown marks the
// device offline and disconnects.
func (b *Bridge) Run(ctx context.Context) error {
	if err := waitToken(ctx, b.Queue.Connect()); err != nil {
		return err
	}
	<-ctx.Done()
	waitToken(context.Background(), b.Queue.PubWith(b.Topics.Status(), []byte(StatusOffline), 1, true))
	b.Queue.Close()
	return ctx.Err()
}

func waitToken(ctx context.Context, token paho.Token) error {
	doneCh := make(chan struct{})
	go func() {
		token.Wait()
		close(doneCh)
	}()
	select {
	case <-doneCh:
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
