// Package monitor decodes the device byte stream on the host.
//
// The stream interleaves raw edge text with log frames. Text is split into
// lines, frames are decoded into log records.
package monitor

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/robotalks/edgelink/pkg/framework"
	"github.com/robotalks/edgelink/pkg/l0/devlog"
	"github.com/robotalks/edgelink/pkg/l0/frame"
)

// MaxLineLength flushes a text line which never sees its newline.
const MaxLineLength = 256

// LogEntry is a decoded log frame.
type LogEntry struct {
	Seq    frame.Seq
	Level  frame.Level
	Record devlog.Record
	// FrameTruncated is set when the encoder cut the payload.
	FrameTruncated bool
	// Missed counts frames lost before this one, judging by sequence.
	Missed int
	// Err is set when the payload is not a valid record; Record then
	// holds the raw payload as message.
	Err error
}

// Event is one unit of decoded output: a text line or a log entry.
type Event struct {
	Time time.Time
	Text string
	Log  *LogEntry
}

// IsText reports whether the event is a text line.
func (e *Event) IsText() bool {
	return e.Log == nil
}

// Handler consumes decoded events.
type Handler interface {
	HandleEvent(Event)
}

// HandlerFunc is the func form of Handler.
type HandlerFunc func(Event)

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(e Event) {
	f(e)
}

// Handlers fans an event out.
type Handlers []Handler

// HandleEvent implements Handler.
func (h Handlers) HandleEvent(e Event) {
	for _, handler := range h {
		handler.HandleEvent(e)
	}
}

// Stats counts what the decoder saw.
type Stats struct {
	Lines   int
	Frames  int
	Dropped int
	Missed  int
}

// Decoder turns stream bytes into events.
type Decoder struct {
	Handler Handler
	Clock   framework.TimeSource

	parser  frame.Parser
	line    []byte
	lastSeq frame.Seq
	stats   Stats
}

// NewDecoder creates a Decoder.
func NewDecoder(handler Handler) *Decoder {
	return &Decoder{Handler: handler, Clock: framework.SystemTime}
}

// Stats returns the counters so far.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Write implements io.Writer. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	for _, b := range p {
		d.feed(b)
	}
	return len(p), nil
}

// Flush emits a pending partial line.
func (d *Decoder) Flush() {
	if len(d.line) > 0 {
		d.emitLine()
	}
}

func (d *Decoder) feed(b byte) {
	pr := d.parser.Parse(b)
	if pr.Dropped {
		d.stats.Dropped++
	}
	switch {
	case pr.IsText:
		d.line = append(d.line, pr.Text)
		if pr.Text == '\n' || len(d.line) >= MaxLineLength {
			d.emitLine()
		}
	case pr.Frame != nil:
		d.emitFrame(pr.Frame)
	}
}

func (d *Decoder) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}

func (d *Decoder) emitLine() {
	d.stats.Lines++
	text := string(d.line)
	d.line = d.line[:0]
	if d.Handler != nil {
		d.Handler.HandleEvent(Event{Time: d.now(), Text: text})
	}
}

func (d *Decoder) emitFrame(f *frame.Frame) {
	d.stats.Frames++
	entry := &LogEntry{
		Seq:            f.Seq,
		Level:          f.Level,
		FrameTruncated: f.Truncated,
	}
	if d.lastSeq.IsValid() {
		entry.Missed = seqDistance(d.lastSeq, f.Seq) - 1
		d.stats.Missed += entry.Missed
	}
	d.lastSeq = f.Seq
	rec, err := devlog.DecodeRecord(f.Payload)
	if err != nil {
		entry.Err = err
		rec = devlog.Record{Message: string(f.Payload)}
	}
	entry.Record = rec
	if d.Handler != nil {
		d.Handler.HandleEvent(Event{Time: d.now(), Log: entry})
	}
}

// seqDistance counts Next steps from a to b. A repeated sequence means
// the device restarted the stream and counts as adjacent.
func seqDistance(a, b frame.Seq) int {
	if a == b || !b.IsValid() {
		return 1
	}
	if b > a {
		return int(b - a)
	}
	return int(frame.MaxSeq-a) + int(b)
}

// Monitor pumps a source into a Decoder until the source ends.
type Monitor struct {
	Source  io.ReadCloser
	Decoder *Decoder
}

// New creates a Monitor.
func New(source io.ReadCloser, handler Handler) *Monitor {
	return &Monitor{Source: source, Decoder: NewDecoder(handler)}
}

// Run implements framework.Runnable. The source is closed on return.
func (m *Monitor) Run(ctx context.Context) error {
	return framework.RunWithContextCloser(ctx, m.Source, func() error {
		_, err := io.Copy(m.Decoder, m.Source)
		m.Decoder.Flush()
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	})
}
