package tasks

import (
	"context"
	"errors"

	"github.com/robotalks/edgelink/pkg/l0/devlog"
	"github.com/robotalks/edgelink/pkg/l0/fault"
	"github.com/robotalks/edgelink/pkg/l0/hal"
)

// PacketWriter forwards mailbox packets to the host while it is connected.
//
// Disconnection sends it back to waiting for a connection. A buffer
// overflow is a configuration fault and panics. Any other transport error
// ends Run.
type PacketWriter struct {
	Transport hal.Transport
	Mailbox   *PacketMailbox
	Log       *devlog.Logger
	OnFault   fault.Reporter
	// DropStaleOnConnect discards the value left pending from before the
	// connection was established.
	DropStaleOnConnect bool
	// MaxPacketSize is the endpoint size packets must fit in, in addition to
	// the transport's own limit. Zero leaves it to the transport.
	MaxPacketSize int

	connects int
}

// Connects returns how many connections were served.
// It is only meaningful after Run returned.
func (w *PacketWriter) Connects() int {
	return w.connects
}

// NewPacketWriter creates a PacketWriter dropping stale packets on connect.
func NewPacketWriter(t hal.Transport, mb *PacketMailbox, log *devlog.Logger) *PacketWriter {
	return &PacketWriter{Transport: t, Mailbox: mb, Log: log, DropStaleOnConnect: true}
}

// Name implements framework.Named.
func (w *PacketWriter) Name() string {
	return "packet-writer"
}

// Run implements framework.Runnable.
func (w *PacketWriter) Run(ctx context.Context) error {
	for {
		if err := w.Transport.WaitConnection(ctx); err != nil {
			return err
		}
		w.connects++
		if w.DropStaleOnConnect {
			w.Mailbox.Clear()
		}
		w.Log.Infof("connected")

		err := w.pump(ctx)
		if !errors.Is(err, hal.ErrDisconnected) {
			return err
		}
		w.Log.Infof("disconnected")
	}
}

func (w *PacketWriter) pump(ctx context.Context) error {
	for {
		pkt, err := w.Mailbox.Wait(ctx)
		if err != nil {
			return err
		}
		if w.MaxPacketSize > 0 && pkt.Len() > w.MaxPacketSize {
			fault.Raise(w.OnFault, hal.ErrBufferOverflow)
		}
		err = w.Transport.WritePacket(ctx, pkt.Bytes())
		switch {
		case err == nil:
		case errors.Is(err, hal.ErrBufferOverflow):
			fault.Raise(w.OnFault, err)
		default:
			return err
		}
	}
}
