// Package hal defines the hardware collaborators the device tasks consume.
//
// The device core never touches pins, USB endpoints or the watchdog
// directly; it only relies on the contracts below. Board implementations
// live in hal/board (TinyGo), host simulations in hal/sim and hal/wstransport.
package hal

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDisconnected indicates the host went away. It is recoverable:
	// the writer waits for the next connection.
	ErrDisconnected = errors.New("transport disconnected")
	// ErrBufferOverflow indicates a write larger than the transport MTU.
	// It is a configuration fault.
	ErrBufferOverflow = errors.New("transport buffer overflow")
)

// Level is the logic level of a digital input.
type Level int

// Levels.
const (
	Low Level = iota
	High
)

// String implements fmt.Stringer.
func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// EdgeInput is a digital input with edge detection.
type EdgeInput interface {
	// WaitForAnyEdge suspends until the input changes level.
	// It only returns an error when ctx is done.
	WaitForAnyEdge(ctx context.Context) error
	// Level reads the current level.
	Level() Level
}

// Transport is the byte-oriented link to the host (USB CDC-ACM).
type Transport interface {
	// WaitConnection suspends until a host is connected.
	WaitConnection(ctx context.Context) error
	// WritePacket writes one packet. It returns ErrDisconnected when the
	// host is gone and ErrBufferOverflow when p exceeds MaxPacketSize.
	WritePacket(ctx context.Context, p []byte) error
	// MaxPacketSize returns the transport MTU.
	MaxPacketSize() int
}

// Watchdog resets the device unless it is fed in time.
type Watchdog interface {
	Configure(timeout time.Duration) error
	Start() error
	Update()
}
