//go:build tinygo

// Package board binds the HAL contracts to TinyGo's machine package.
package board

import (
	"context"
	"time"

	"machine"
	"machine/usb"

	"github.com/robotalks/edgelink/pkg/l0/hal"
	"github.com/robotalks/edgelink/pkg/l0/packet"
)

// USBIdentity is what the device reports when it enumerates.
type USBIdentity struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	Serial       string
}

// ApplyUSBIdentity sets the descriptor strings and ids. It must run
// before the USB stack enumerates, i.e. first thing in main.
func ApplyUSBIdentity(id USBIdentity) {
	usb.VendorID = id.VendorID
	usb.ProductID = id.ProductID
	usb.Manufacturer = id.Manufacturer
	usb.Product = id.Product
	usb.Serial = id.Serial
}

// Pin is an input pin raising an edge on every toggle.
type Pin struct {
	pin    machine.Pin
	edgeCh chan struct{}
}

// NewPin configures p as an input in mode and enables its interrupt.
func NewPin(p machine.Pin, mode machine.PinMode) (*Pin, error) {
	pin := &Pin{pin: p, edgeCh: make(chan struct{}, 1)}
	p.Configure(machine.PinConfig{Mode: mode})
	if err := p.SetInterrupt(machine.PinToggle, pin.onEdge); err != nil {
		return nil, err
	}
	return pin, nil
}

// onEdge runs in interrupt context.
func (p *Pin) onEdge(machine.Pin) {
	select {
	case p.edgeCh <- struct{}{}:
	default:
	}
}

// WaitForAnyEdge implements hal.EdgeInput.
func (p *Pin) WaitForAnyEdge(ctx context.Context) error {
	select {
	case <-p.edgeCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Level implements hal.EdgeInput.
func (p *Pin) Level() hal.Level {
	if p.pin.Get() {
		return hal.High
	}
	return hal.Low
}

type dtrReporter interface {
	DTR() bool
}

// CDC is the USB CDC-ACM port behind machine.Serial.
// A host is connected while it asserts DTR.
type CDC struct {
	PollInterval time.Duration
	// MTU is the bulk endpoint max packet size, at most packet.Capacity.
	MTU int

	port machine.Serialer
}

// NewCDC configures machine.Serial with endpoint size mtu.
func NewCDC(mtu int) (*CDC, error) {
	if err := machine.Serial.Configure(machine.UARTConfig{}); err != nil {
		return nil, err
	}
	return &CDC{PollInterval: 10 * time.Millisecond, MTU: mtu, port: machine.Serial}, nil
}

func (c *CDC) connected() bool {
	if r, ok := c.port.(dtrReporter); ok {
		return r.DTR()
	}
	return true
}

// WaitConnection implements hal.Transport.
func (c *CDC) WaitConnection(ctx context.Context) error {
	for !c.connected() {
		select {
		case <-time.After(c.PollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// WritePacket implements hal.Transport.
func (c *CDC) WritePacket(ctx context.Context, p []byte) error {
	if len(p) > c.MaxPacketSize() {
		return hal.ErrBufferOverflow
	}
	if !c.connected() {
		return hal.ErrDisconnected
	}
	if _, err := c.port.Write(p); err != nil {
		return hal.ErrDisconnected
	}
	return nil
}

// MaxPacketSize implements hal.Transport.
func (c *CDC) MaxPacketSize() int {
	if c.MTU <= 0 || c.MTU > packet.Capacity {
		return packet.Capacity
	}
	return c.MTU
}

// Watchdog is the hardware watchdog.
type Watchdog struct{}

// Configure implements hal.Watchdog.
func (Watchdog) Configure(timeout time.Duration) error {
	return machine.Watchdog.Configure(machine.WatchdogConfig{
		TimeoutMillis: uint32(timeout / time.Millisecond),
	})
}

// Start implements hal.Watchdog.
func (Watchdog) Start() error {
	return machine.Watchdog.Start()
}

// Update implements hal.Watchdog.
func (Watchdog) Update() {
	machine.Watchdog.Update()
}
