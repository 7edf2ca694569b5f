// Package device wires the device singletons and tasks together.
//
// The encoder, its logger and the packet mailbox are created exactly once
// here and handed to the tasks that use them.
package device

import (
	"context"
	"errors"
	"strconv"

	"github.com/robotalks/edgelink/pkg/framework"
	"github.com/robotalks/edgelink/pkg/l0/critsec"
	"github.com/robotalks/edgelink/pkg/l0/devlog"
	"github.com/robotalks/edgelink/pkg/l0/fault"
	"github.com/robotalks/edgelink/pkg/l0/hal"
	"github.com/robotalks/edgelink/pkg/l0/mailbox"
	"github.com/robotalks/edgelink/pkg/l0/packet"
	"github.com/robotalks/edgelink/pkg/l0/tasks"
)

// Hardware are the collaborators provided by the board.
type Hardware struct {
	Section   critsec.Section
	Input     hal.EdgeInput
	Transport hal.Transport
	// Watchdog is optional.
	Watchdog hal.Watchdog
	Clock    framework.TimeSource
	OnFault  fault.Reporter
}

// Device is the assembled firmware.
type Device struct {
	Config  Config
	Encoder *devlog.Encoder
	Log     *devlog.Logger
	Mailbox *tasks.PacketMailbox

	Watcher   *tasks.EdgeWatcher
	Writer    *tasks.PacketWriter
	Heartbeat *tasks.Heartbeat
	Feeder    *tasks.WatchdogFeeder
}

// New assembles a Device. Log frames share the mailbox with edge messages.
func New(cfg Config, hw Hardware) *Device {
	cfg.FillDefaults()
	if hw.Clock == nil {
		hw.Clock = framework.SystemTime
	}
	mb := mailbox.New[packet.Packet]()
	enc := devlog.NewEncoder(hw.Section, mb.Signal)
	enc.OnFault = hw.OnFault
	log := devlog.NewLogger(enc, hw.Clock, cfg.LogLevel)

	d := &Device{
		Config:  cfg,
		Encoder: enc,
		Log:     log,
		Mailbox: mb,
		Watcher: &tasks.EdgeWatcher{
			Input:          hw.Input,
			Mailbox:        mb,
			Log:            log,
			Clock:          hw.Clock,
			FallingMessage: cfg.FallingMessage,
			RisingMessage:  cfg.RisingMessage,
			AliveInterval:  cfg.LoopLogInterval,
		},
		Writer: &tasks.PacketWriter{
			Transport:          hw.Transport,
			Mailbox:            mb,
			Log:                log,
			OnFault:            hw.OnFault,
			DropStaleOnConnect: cfg.DropStaleOnConnect,
			MaxPacketSize:      cfg.USB.PacketSize,
		},
		Heartbeat: &tasks.Heartbeat{
			Log:      log,
			Interval: cfg.HeartbeatInterval,
			Message:  cfg.HeartbeatMessage,
		},
	}
	if hw.Watchdog != nil {
		d.Feeder = &tasks.WatchdogFeeder{
			Watchdog:     hw.Watchdog,
			Timeout:      cfg.WatchdogTimeout,
			FeedInterval: cfg.WatchdogFeedInterval,
		}
	}
	return d
}

// Tasks returns the device tasks in start order.
func (d *Device) Tasks() []framework.Runnable {
	list := []framework.Runnable{d.Writer, d.Watcher, d.Heartbeat}
	if d.Feeder != nil {
		list = append(list, d.Feeder)
	}
	return list
}

// Run starts all tasks and blocks until they stop. The first task failing
// stops the others.
func (d *Device) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.Log.Infof("starting...")
	var runnables []framework.Runnable
	for n, task := range d.Tasks() {
		runnables = append(runnables, cancelOnError(task, framework.NameOf(task, strconv.Itoa(n)), cancel))
	}
	return framework.NewRunnerWith(ctx).Run(runnables...)
}

func cancelOnError(task framework.Runnable, name string, cancel context.CancelFunc) framework.Runnable {
	return framework.NamedRun(name, framework.RunFunc(func(ctx context.Context) error {
		err := task.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			cancel()
		}
		return err
	}))
}
