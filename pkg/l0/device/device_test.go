package device

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/edgelink/pkg/l0/critsec"
	"github.com/robotalks/edgelink/pkg/l0/devlog"
	"github.com/robotalks/edgelink/pkg/l0/fault"
	"github.com/robotalks/edgelink/pkg/l0/frame"
	"github.com/robotalks/edgelink/pkg/l0/hal"
	"github.com/robotalks/edgelink/pkg/l0/hal/sim"
	"github.com/robotalks/edgelink/pkg/l0/packet"
)

func decodeLog(t *testing.T, data []byte) string {
	t.Helper()
	var p frame.Parser
	for _, b := range data {
		if pr := p.Parse(b); pr.Frame != nil {
			rec, err := devlog.DecodeRecord(pr.Frame.Payload)
			require.NoError(t, err)
			return rec.Message
		}
	}
	t.Fatalf("no frame in %q", data)
	return ""
}

func receive(t *testing.T, tr *sim.Transport) []byte {
	t.Helper()
	select {
	case data := <-tr.Written:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("nothing written")
		return nil
	}
}

func TestDeviceEndToEnd(t *testing.T) {
	pin := sim.NewPin(hal.High)
	tr := sim.NewTransport(0, 8)
	wd := &sim.Watchdog{}
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = time.Hour
	cfg.LoopLogInterval = 0
	d := New(cfg, Hardware{
		Section:   &critsec.Mutex{Timeout: time.Second},
		Input:     pin,
		Transport: tr,
		Watchdog:  wd,
	})
	require.Len(t, d.Tasks(), 4)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	tr.Connect()
	assert.Equal(t, "connected", decodeLog(t, receive(t, tr)))

	pin.Inject(hal.Low)
	assert.Equal(t, "pulsing...\n", string(receive(t, tr)))
	pin.Inject(hal.High)
	assert.Equal(t, "pausing...\n", string(receive(t, tr)))

	require.Eventually(t, func() bool { return wd.Feeds() > 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
}

func TestDeviceStopsOnTaskFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WatchdogTimeout = time.Millisecond
	cfg.WatchdogFeedInterval = time.Second
	d := New(cfg, Hardware{
		Section:   &critsec.Mutex{Timeout: time.Second},
		Input:     sim.NewPin(hal.High),
		Transport: sim.NewTransport(0, 1),
		Watchdog:  &sim.Watchdog{},
	})
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "watchdog")
	case <-time.After(2 * time.Second):
		t.Fatal("device did not stop")
	}
}

func TestDevicePacketSizeFaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.USB.PacketSize = 16
	cfg.LogLevel = frame.LevelError
	cfg.DropStaleOnConnect = false
	tr := sim.NewTransport(packet.Capacity, 4)
	tr.Connect()
	var reported *fault.Fault
	d := New(cfg, Hardware{
		Section:   &critsec.Mutex{Timeout: time.Second},
		Input:     sim.NewPin(hal.High),
		Transport: tr,
		OnFault:   func(f *fault.Fault) { reported = f },
	})
	require.Equal(t, 16, d.Writer.MaxPacketSize)

	recovered := make(chan interface{}, 1)
	go func() {
		defer func() { recovered <- recover() }()
		d.Writer.Run(context.Background())
	}()

	d.Mailbox.Signal(packet.FromString(DefaultConfig().FallingMessage))
	assert.Equal(t, "pulsing...\n", string(receive(t, tr)))

	d.Mailbox.Signal(packet.FromString(strings.Repeat("x", 17)))
	select {
	case r := <-recovered:
		f, ok := r.(*fault.Fault)
		require.True(t, ok, "expect *fault.Fault, got %T", r)
		require.ErrorIs(t, f, hal.ErrBufferOverflow)
		require.Same(t, f, reported)
	case <-time.After(2 * time.Second):
		t.Fatal("oversized packet was not a fault")
	}
}

func TestFillDefaults(t *testing.T) {
	var cfg Config
	cfg.FillDefaults()
	def := DefaultConfig()
	assert.Equal(t, def.USB, cfg.USB)
	assert.Equal(t, def.FallingMessage, cfg.FallingMessage)
	assert.Equal(t, def.WatchdogTimeout, cfg.WatchdogTimeout)
	assert.False(t, cfg.DropStaleOnConnect)
	assert.Equal(t, frame.LevelTrace, cfg.LogLevel)
}
