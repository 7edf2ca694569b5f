package sim

import (
	"context"
	"sync"

	"github.com/robotalks/edgelink/pkg/l0/hal"
	"github.com/robotalks/edgelink/pkg/l0/packet"
)

// Transport is an in-memory hal.Transport. Written packets are delivered
// to the Written channel; a full channel applies backpressure to the writer.
type Transport struct {
	Written chan []byte

	mtu       int
	lock      sync.Mutex
	connected bool
	changedCh chan struct{}
}

// NewTransport creates a disconnected Transport.
// mtu <= 0 means packet.Capacity; backlog is the capacity of Written.
func NewTransport(mtu, backlog int) *Transport {
	if mtu <= 0 {
		mtu = packet.Capacity
	}
	return &Transport{
		Written:   make(chan []byte, backlog),
		mtu:       mtu,
		changedCh: make(chan struct{}),
	}
}

// Connect simulates the host opening the port.
func (t *Transport) Connect() {
	t.setConnected(true)
}

// Disconnect simulates the host closing the port. A writer blocked on the
// Written channel fails with hal.ErrDisconnected.
func (t *Transport) Disconnect() {
	t.setConnected(false)
}

// Connected reports the connection state.
func (t *Transport) Connected() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.connected
}

func (t *Transport) setConnected(connected bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.connected == connected {
		return
	}
	t.connected = connected
	close(t.changedCh)
	t.changedCh = make(chan struct{})
}

func (t *Transport) state() (bool, <-chan struct{}) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.connected, t.changedCh
}

// WaitConnection implements hal.Transport.
func (t *Transport) WaitConnection(ctx context.Context) error {
	for {
		connected, changedCh := t.state()
		if connected {
			return nil
		}
		select {
		case <-changedCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WritePacket implements hal.Transport.
func (t *Transport) WritePacket(ctx context.Context, p []byte) error {
	if len(p) > t.mtu {
		return hal.ErrBufferOverflow
	}
	connected, changedCh := t.state()
	if !connected {
		return hal.ErrDisconnected
	}
	data := append([]byte(nil), p...)
	select {
	case t.Written <- data:
		return nil
	case <-changedCh:
		return hal.ErrDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MaxPacketSize implements hal.Transport.
func (t *Transport) MaxPacketSize() int {
	return t.mtu
}
