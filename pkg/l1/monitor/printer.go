package monitor

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Printer writes events as text lines.
type Printer struct {
	Out io.Writer

	lock sync.Mutex
}

// HandleEvent implements Handler.
func (p *Printer) HandleEvent(e Event) {
	p.lock.Lock()
	defer p.lock.Unlock()
	fmt.Fprintln(p.Out, FormatEvent(e))
}

// FormatEvent renders an event on one line.
func FormatEvent(e Event) string {
	ts := e.Time.Format("15:04:05.000")
	if e.IsText() {
		return fmt.Sprintf("%s %s", ts, strings.TrimRight(e.Text, "\r\n"))
	}
	l := e.Log
	var flags string
	if l.FrameTruncated || l.Record.Truncated {
		flags += " [truncated]"
	}
	if l.Missed > 0 {
		flags += fmt.Sprintf(" [missed %d]", l.Missed)
	}
	if l.Err != nil {
		flags += " [bad record]"
	}
	return fmt.Sprintf("%s %-5s %s #%d %s%s", ts, l.Level, formatUptime(l.Record.Uptime),
		l.Seq, l.Record.Message, flags)
}

func formatUptime(d time.Duration) string {
	return fmt.Sprintf("%.6f", d.Seconds())
}
