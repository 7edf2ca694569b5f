package devlog

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/edgelink/pkg/l0/critsec"
	"github.com/robotalks/edgelink/pkg/l0/frame"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestLogger(level frame.Level) (*Logger, *testSink, *fakeClock) {
	var sink testSink
	clock := &fakeClock{now: time.Unix(1000, 0)}
	enc := NewEncoder(&critsec.Flag{}, sink.emit)
	return NewLogger(enc, clock, level), &sink, clock
}

func TestRecordRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		record Record
	}{
		{"empty", Record{}},
		{"message", Record{Uptime: 1500 * time.Millisecond, Message: "connected"}},
		{"truncated", Record{Uptime: time.Hour, Message: "abc", Truncated: true}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.record.AppendTo(nil)
			require.Len(t, data, tc.record.Size())
			r, err := DecodeRecord(data)
			require.NoError(t, err)
			require.Equal(t, tc.record, r)
		})
	}
}

func TestDecodeRecordErrors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"short bytes", []byte{0x12, 0x05, 'a'}},
		{"bad wire type", []byte{0x0d, 0, 0, 0, 0}},
		{"bad varint", []byte{0x08, 0x80}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRecord(tc.data)
			require.ErrorIs(t, err, ErrBadRecord)
		})
	}
}

func TestRecordFitMessage(t *testing.T) {
	r := Record{Uptime: time.Minute, Message: strings.Repeat("x", 200)}
	r.FitMessage(frame.MaxPayload)
	assert.True(t, r.Truncated)
	assert.LessOrEqual(t, r.Size(), frame.MaxPayload)
	assert.Greater(t, len(r.Message), 40)

	r = Record{Message: "short"}
	r.FitMessage(frame.MaxPayload)
	assert.False(t, r.Truncated)
	assert.Equal(t, "short", r.Message)
}

func TestRecordFitMessageKeepsRunes(t *testing.T) {
	for pad := 0; pad < 4; pad++ {
		msg := strings.Repeat("a", pad) + strings.Repeat("é€😀", 20)
		r := Record{Uptime: time.Minute, Message: msg}
		r.FitMessage(frame.MaxPayload)
		require.True(t, r.Truncated)
		require.LessOrEqual(t, r.Size(), frame.MaxPayload)
		require.True(t, utf8.ValidString(r.Message), "pad %d: %q", pad, r.Message)
		require.True(t, strings.HasPrefix(msg, r.Message))
		require.Greater(t, r.Size(), frame.MaxPayload-4, "cut more than one rune")
	}
}

func TestLoggerEmitsFrames(t *testing.T) {
	l, sink, clock := newTestLogger(frame.LevelDebug)
	clock.now = clock.now.Add(2 * time.Second)
	l.Infof("edge %s", "rising")
	l.Tracef("filtered")
	l.Println("lmao")

	frames := parseFrames(t, sink.stream())
	require.Len(t, frames, 2)

	require.Equal(t, frame.LevelInfo, frames[0].Level)
	rec, err := DecodeRecord(frames[0].Payload)
	require.NoError(t, err)
	require.Equal(t, "edge rising", rec.Message)
	require.Equal(t, 2*time.Second, rec.Uptime)

	require.Equal(t, frame.LevelPrint, frames[1].Level)
	rec, err = DecodeRecord(frames[1].Payload)
	require.NoError(t, err)
	require.Equal(t, "lmao", rec.Message)
}

func TestLoggerLongMessage(t *testing.T) {
	l, sink, _ := newTestLogger(frame.LevelTrace)
	l.Warnf("%s", strings.Repeat("w", 300))

	frames := parseFrames(t, sink.stream())
	require.Len(t, frames, 1)
	require.False(t, frames[0].Truncated, "record must be cut before it reaches the encoder")
	rec, err := DecodeRecord(frames[0].Payload)
	require.NoError(t, err)
	require.True(t, rec.Truncated)
	require.True(t, strings.HasPrefix(strings.Repeat("w", 300), rec.Message))
}

func TestLoggerDefaultClock(t *testing.T) {
	l := NewLogger(NewEncoder(&critsec.Flag{}, nil), nil, frame.LevelInfo)
	require.NotNil(t, l.clock)
	require.False(t, l.Enabled(frame.LevelDebug))
	require.True(t, l.Enabled(frame.LevelError))
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	require.False(t, l.Enabled(frame.LevelPrint))
	require.NotPanics(t, func() {
		l.Infof("dropped")
		l.Println("dropped")
	})
}
