package devlog

import (
	"fmt"
	"time"

	"github.com/robotalks/edgelink/pkg/framework"
	"github.com/robotalks/edgelink/pkg/l0/frame"
)

// Logger formats log records and writes each as one encoder session.
// It is safe to use from any context the encoder's section covers.
type Logger struct {
	enc   *Encoder
	clock framework.TimeSource
	boot  time.Time
	level frame.Level
}

// NewLogger creates a Logger on top of enc. Records below level are dropped.
func NewLogger(enc *Encoder, clock framework.TimeSource, level frame.Level) *Logger {
	if clock == nil {
		clock = framework.SystemTime
	}
	return &Logger{enc: enc, clock: clock, boot: clock.Now(), level: level}
}

// Enabled reports whether records of level are emitted.
// A nil Logger emits nothing.
func (l *Logger) Enabled(level frame.Level) bool {
	return l != nil && level >= l.level
}

// Log emits msg at level.
func (l *Logger) Log(level frame.Level, msg string) {
	if !l.Enabled(level) {
		return
	}
	rec := Record{Uptime: l.clock.Now().Sub(l.boot), Message: msg}
	rec.FitMessage(frame.MaxPayload)
	var scratch [frame.MaxPayload]byte
	payload := rec.AppendTo(scratch[:0])

	l.enc.Acquire(level)
	l.enc.Write(payload)
	l.enc.Flush()
	l.enc.Release()
}

// Tracef logs at LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.logf(frame.LevelTrace, format, args...)
}

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(frame.LevelDebug, format, args...)
}

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(frame.LevelInfo, format, args...)
}

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(frame.LevelWarn, format, args...)
}

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(frame.LevelError, format, args...)
}

// Println logs at LevelPrint, which is never filtered.
func (l *Logger) Println(args ...interface{}) {
	msg := fmt.Sprintln(args...)
	l.Log(frame.LevelPrint, msg[:len(msg)-1])
}

func (l *Logger) logf(level frame.Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.Log(level, fmt.Sprintf(format, args...))
}
