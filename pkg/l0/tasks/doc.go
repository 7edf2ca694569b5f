// Package tasks contains the long running device tasks.
//
// Every task is a framework.Runnable. Tasks receive the shared encoder
// logger and mailbox explicitly and never own them.
package tasks

import (
	"github.com/robotalks/edgelink/pkg/l0/mailbox"
	"github.com/robotalks/edgelink/pkg/l0/packet"
)

// PacketMailbox is the single slot between producers and the USB writer.
type PacketMailbox = mailbox.Mailbox[packet.Packet]

// Default edge messages.
const (
	DefaultFallingMessage = "pulsing...\n"
	DefaultRisingMessage  = "pausing...\n"
)
