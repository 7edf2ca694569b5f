package devlog

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/edgelink/pkg/l0/critsec"
	"github.com/robotalks/edgelink/pkg/l0/fault"
	"github.com/robotalks/edgelink/pkg/l0/frame"
	"github.com/robotalks/edgelink/pkg/l0/mailbox"
	"github.com/robotalks/edgelink/pkg/l0/packet"
)

type testSink struct {
	packets []packet.Packet
}

func (s *testSink) emit(p packet.Packet) {
	s.packets = append(s.packets, p)
}

func (s *testSink) stream() []byte {
	var b []byte
	for n := range s.packets {
		b = append(b, s.packets[n].Bytes()...)
	}
	return b
}

func parseFrames(t *testing.T, stream []byte) []*frame.Frame {
	var p frame.Parser
	var frames []*frame.Frame
	for _, b := range stream {
		pr := p.Parse(b)
		require.False(t, pr.IsText, "unexpected text byte %#x", b)
		require.False(t, pr.Dropped, "malformed frame")
		if pr.Frame != nil {
			frames = append(frames, pr.Frame)
		}
	}
	require.False(t, p.InFrame(), "stream ends inside a frame")
	return frames
}

func expectFault(t *testing.T, cause error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expect fault")
		f, ok := r.(*fault.Fault)
		require.True(t, ok, "expect *fault.Fault, got %T", r)
		require.ErrorIs(t, f, cause)
	}()
	fn()
}

func TestSequentialSessions(t *testing.T) {
	var sink testSink
	var section critsec.Flag
	enc := NewEncoder(&section, sink.emit)

	payloads := [][][]byte{
		{[]byte("he"), []byte("llo")},
		{},
		{bytes.Repeat([]byte{0xff}, 20), []byte{0, 1}},
	}
	for _, writes := range payloads {
		enc.Acquire(frame.LevelInfo)
		require.True(t, section.Disabled())
		for _, w := range writes {
			enc.Write(w)
		}
		enc.Flush()
		enc.Release()
		require.False(t, section.Disabled())
		require.False(t, enc.Held())
	}

	frames := parseFrames(t, sink.stream())
	require.Len(t, frames, len(payloads))
	for n, writes := range payloads {
		require.Equal(t, frame.Seq(n+1), frames[n].Seq)
		require.Equal(t, frame.LevelInfo, frames[n].Level)
		require.False(t, frames[n].Truncated)
		require.Equal(t, bytes.Join(writes, nil), append([]byte{}, frames[n].Payload...))
	}
}

func TestReentrantAcquireFaults(t *testing.T) {
	var sink testSink
	var section critsec.Flag
	enc := NewEncoder(&section, sink.emit)
	var reported *fault.Fault
	enc.OnFault = func(f *fault.Fault) { reported = f }

	enc.Acquire(frame.LevelInfo)
	expectFault(t, ErrReentrantAcquire, func() {
		enc.Acquire(frame.LevelWarn)
	})
	require.NotNil(t, reported)
	require.ErrorIs(t, reported, ErrReentrantAcquire)
	require.True(t, section.Disabled(), "outer session must stay in the critical section")
	require.Empty(t, sink.packets)
}

func TestReleaseOutOfContextFaults(t *testing.T) {
	var section critsec.Flag
	enc := NewEncoder(&section, nil)
	expectFault(t, ErrReleaseOutOfContext, enc.Release)
	require.False(t, section.Disabled())
}

func TestDoubleReleaseFaults(t *testing.T) {
	var sink testSink
	var section critsec.Flag
	enc := NewEncoder(&section, sink.emit)
	enc.Acquire(frame.LevelInfo)
	enc.Release()
	expectFault(t, ErrReleaseOutOfContext, enc.Release)
	require.Len(t, sink.packets, 1)
}

func TestWriteTruncates(t *testing.T) {
	var sink testSink
	enc := NewEncoder(&critsec.Flag{}, sink.emit)
	enc.Acquire(frame.LevelError)
	enc.Write(bytes.Repeat([]byte{'a'}, frame.MaxPayload-1))
	enc.WriteString("bcd")
	enc.Release()

	require.Len(t, sink.packets, 1)
	require.Equal(t, packet.Capacity, sink.packets[0].Len())
	frames := parseFrames(t, sink.stream())
	require.Len(t, frames, 1)
	require.True(t, frames[0].Truncated)
	require.Len(t, frames[0].Payload, frame.MaxPayload)
	require.Equal(t, byte('b'), frames[0].Payload[frame.MaxPayload-1])
}

func TestSessionReleasesOnPanic(t *testing.T) {
	var sink testSink
	var section critsec.Flag
	enc := NewEncoder(&section, sink.emit)
	require.Panics(t, func() {
		enc.Session(frame.LevelWarn, func(e *Encoder) {
			e.WriteString("partial")
			panic("boom")
		})
	})
	require.False(t, enc.Held())
	require.False(t, section.Disabled())
	frames := parseFrames(t, sink.stream())
	require.Len(t, frames, 1)
	require.Equal(t, "partial", string(frames[0].Payload))
}

func TestConcurrentSessionsDoNotInterleave(t *testing.T) {
	var sink testSink
	enc := NewEncoder(&critsec.Mutex{}, sink.emit)

	const loggers, perLogger = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < loggers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for n := 0; n < perLogger; n++ {
				enc.Session(frame.LevelDebug, func(e *Encoder) {
					e.WriteString(fmt.Sprintf("%d:", id))
					e.WriteString(fmt.Sprintf("%d", n))
				})
			}
		}(i)
	}
	wg.Wait()

	frames := parseFrames(t, sink.stream())
	require.Len(t, frames, loggers*perLogger)
	last := make(map[string]int)
	for n, f := range frames {
		require.Equal(t, frame.Seq(0).Next(), frames[0].Seq)
		if n > 0 {
			require.Equal(t, frames[n-1].Seq.Next(), f.Seq)
		}
		var id, seq int
		_, err := fmt.Sscanf(string(f.Payload), "%d:%d", &id, &seq)
		require.NoError(t, err)
		key := fmt.Sprint(id)
		if prev, ok := last[key]; ok {
			require.Equal(t, prev+1, seq, "frames of logger %d out of order", id)
		}
		last[key] = seq
	}
}

func TestSessionDoesNotAllocate(t *testing.T) {
	mb := mailbox.New[packet.Packet]()
	enc := NewEncoder(&critsec.Flag{}, mb.Signal)
	payload := []byte("edge watcher alive")
	allocs := testing.AllocsPerRun(1000, func() {
		enc.Acquire(frame.LevelInfo)
		enc.Write(payload)
		enc.WriteString(" 7")
		enc.Flush()
		enc.Release()
	})
	require.Zero(t, allocs)

	p, ok := mb.TryTake()
	require.True(t, ok)
	frames := parseFrames(t, p.Bytes())
	require.Len(t, frames, 1)
	require.Equal(t, "edge watcher alive 7", string(frames[0].Payload))
}

func TestNestedAcquireOnTimedMutexFaults(t *testing.T) {
	enc := NewEncoder(&critsec.Mutex{Timeout: 20 * time.Millisecond}, nil)
	enc.Acquire(frame.LevelInfo)
	expectFault(t, ErrReentrantAcquire, func() {
		enc.Acquire(frame.LevelInfo)
	})
	require.True(t, enc.Held())
	enc.Release()
	require.False(t, enc.Held())
}
