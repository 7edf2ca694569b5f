// Package devlog is the device log transport: a frame encoder shared by
// task and interrupt contexts, and the levelled Logger in front of it.
package devlog

import (
	"github.com/robotalks/edgelink/pkg/l0/critsec"
	"github.com/robotalks/edgelink/pkg/l0/fault"
	"github.com/robotalks/edgelink/pkg/l0/frame"
	"github.com/robotalks/edgelink/pkg/l0/packet"
)

// Sink receives every finished frame.
// It runs inside the critical section: it must not block and must not log.
type Sink func(packet.Packet)

type encoderState struct {
	payload   [frame.MaxPayload]byte
	n         int
	seq       frame.Seq
	level     frame.Level
	truncated bool
	out       [packet.Capacity]byte
}

// Encoder owns the single shared frame stream.
//
// The only legal call sequence is Acquire, any number of Write, an optional
// Flush, then Release. Acquire enters the critical section, so a session
// excludes every other logger, including ones running in interrupt context.
// A session does not allocate.
type Encoder struct {
	// OnFault is invoked before a fatal fault panics.
	OnFault fault.Reporter

	cell  *critsec.Cell[encoderState]
	guard critsec.Guard[encoderState]
	sink  Sink
}

// NewEncoder creates an Encoder guarded by section and emitting to sink.
func NewEncoder(section critsec.Section, sink Sink) *Encoder {
	return &Encoder{
		cell: critsec.NewCell(section, encoderState{seq: frame.Seq(0).Next()}),
		sink: sink,
	}
}

// Acquire takes the encoder and starts a new frame.
// Acquiring an encoder which is already held is a fatal fault.
func (e *Encoder) Acquire(level frame.Level) {
	guard, err := e.cell.TryAcquire()
	if err != nil {
		fault.Raise(e.OnFault, ErrReentrantAcquire)
	}
	e.guard = guard
	st := guard.Value()
	st.n, st.level, st.truncated = 0, level, false
}

// Write appends p to the current frame. Bytes past frame.MaxPayload are
// dropped and the frame is marked truncated.
// The caller must hold the encoder; this is not checked.
func (e *Encoder) Write(p []byte) {
	st := e.guard.Value()
	n := copy(st.payload[st.n:], p)
	st.n += n
	if n < len(p) {
		st.truncated = true
	}
}

// WriteString is Write for strings.
func (e *Encoder) WriteString(s string) {
	st := e.guard.Value()
	n := copy(st.payload[st.n:], s)
	st.n += n
	if n < len(s) {
		st.truncated = true
	}
}

// Flush is a no-op: finished frames are handed to the sink whole on Release.
func (e *Encoder) Flush() {}

// Release finishes the frame, emits it and leaves the critical section.
// Releasing an encoder which is not held is a fatal fault.
func (e *Encoder) Release() {
	if !e.guard.Holds() {
		fault.Raise(e.OnFault, ErrReleaseOutOfContext)
	}
	guard := e.guard
	st := guard.Value()
	f := frame.Frame{
		Seq:       st.seq,
		Level:     st.level,
		Truncated: st.truncated,
		Payload:   st.payload[:st.n],
	}
	pkt := packet.From(f.AppendTo(st.out[:0]))
	st.seq = st.seq.Next()
	if e.sink != nil {
		e.sink(pkt)
	}
	e.guard = critsec.Guard[encoderState]{}
	if err := guard.Release(); err != nil {
		fault.Raise(e.OnFault, ErrReleaseOutOfContext)
	}
}

// Session runs a full Acquire/Write/Release session. The encoder is released
// even when fn panics.
func (e *Encoder) Session(level frame.Level, fn func(e *Encoder)) {
	e.Acquire(level)
	defer e.Release()
	fn(e)
}

// Held reports whether a session is in progress.
func (e *Encoder) Held() bool {
	return e.cell.Held()
}
