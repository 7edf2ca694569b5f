// Package sh is the interactive shell driving the device simulator.
package sh

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/edgelink/pkg/l0/device"
	"github.com/robotalks/edgelink/pkg/l0/frame"
	"github.com/robotalks/edgelink/pkg/l0/hal"
	"github.com/robotalks/edgelink/pkg/l0/hal/sim"
)

// Link is a simulated host connection the shell can drive.
type Link interface {
	Connect()
	Disconnect()
	Connected() bool
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool

	Shell  *ishell.Shell
	Device *device.Device
	Pin    *sim.Pin
	// Link is nil when the host side is not simulated.
	Link     Link
	Watchdog *sim.Watchdog
}

const (
	shellKey = "$shell"
	prompt   = "edgesim > "
)

var (
	evalOnly bool

	commands = []*ishell.Cmd{
		&LevelCmd,
		&ToggleCmd,
		&PulseCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&LogCmd,
		&HeartbeatCmd,
		&StatusCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(dev *device.Device, pin *sim.Pin) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Device:      dev,
		Pin:         pin,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// WithLink sets the simulated host link.
func (s *Shell) WithLink(link Link) *Shell {
	s.Link = link
	return s
}

// WithWatchdog sets the simulated watchdog reported by status.
func (s *Shell) WithWatchdog(wd *sim.Watchdog) *Shell {
	s.Watchdog = wd
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustHaveLink wraps command func requires a simulated link.
func MustHaveLink(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Link == nil {
			c.Err(fmt.Errorf("host link is not simulated"))
			return
		}
		fn(c)
	}
}

// ParseLevel parses low/high/0/1.
func ParseLevel(s string) (hal.Level, error) {
	switch strings.ToLower(s) {
	case "low", "l", "0":
		return hal.Low, nil
	case "high", "h", "1":
		return hal.High, nil
	}
	return hal.Low, fmt.Errorf("invalid level %q", s)
}

// Pulse drives count low pulses of width with period, returning the pin high.
func (s *Shell) Pulse(count int, width, period time.Duration) {
	for n := 0; n < count; n++ {
		s.Pin.Inject(hal.Low)
		time.Sleep(width)
		s.Pin.Inject(hal.High)
		if n+1 < count && period > width {
			time.Sleep(period - width)
		}
	}
}

// Status renders the simulator state.
func (s *Shell) Status() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pin: %s\n", s.Pin.Level())
	if s.Link != nil {
		fmt.Fprintf(&b, "host: connected=%v\n", s.Link.Connected())
	}
	fmt.Fprintf(&b, "mailbox: pending=%v\n", s.Device.Mailbox.Pending())
	if s.Watchdog != nil {
		fmt.Fprintf(&b, "watchdog: feeds=%d expired=%v\n", s.Watchdog.Feeds(), s.Watchdog.Expired())
	}
	return strings.TrimRight(b.String(), "\n")
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func intArg(args []string, n, def int) (int, error) {
	if len(args) <= n {
		return def, nil
	}
	return strconv.Atoi(args[n])
}

func durationArg(args []string, n int, def time.Duration) (time.Duration, error) {
	if len(args) <= n {
		return def, nil
	}
	return time.ParseDuration(args[n])
}

var (
	// LevelCmd drives the pin to a level.
	LevelCmd = ishell.Cmd{
		Name:    "set",
		Aliases: []string{"s"},
		Help:    "low|high",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("level expected"))
				return
			}
			level, err := ParseLevel(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Pin.Inject(level)
		},
	}

	// ToggleCmd toggles the pin.
	ToggleCmd = ishell.Cmd{
		Name:    "toggle",
		Aliases: []string{"t"},
		Help:    "",
		Func: func(c *ishell.Context) {
			c.Println(ShellFrom(c).Pin.Toggle())
		},
	}

	// PulseCmd generates pulses.
	PulseCmd = ishell.Cmd{
		Name:    "pulse",
		Aliases: []string{"p"},
		Help:    "[COUNT [WIDTH [PERIOD]]]",
		Func: func(c *ishell.Context) {
			count, err := intArg(c.Args, 0, 1)
			if err != nil {
				c.Err(err)
				return
			}
			width, err := durationArg(c.Args, 1, 100*time.Millisecond)
			if err != nil {
				c.Err(err)
				return
			}
			period, err := durationArg(c.Args, 2, 2*width)
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Pulse(count, width, period)
		},
	}

	// ConnectCmd connects the simulated host.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "",
		Func: MustHaveLink(func(c *ishell.Context) {
			ShellFrom(c).Link.Connect()
		}),
	}

	// DisconnectCmd disconnects the simulated host.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: MustHaveLink(func(c *ishell.Context) {
			ShellFrom(c).Link.Disconnect()
		}),
	}

	// LogCmd emits a device log line.
	LogCmd = ishell.Cmd{
		Name: "log",
		Help: "LEVEL MESSAGE...",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("level and message expected"))
				return
			}
			level, err := frame.ParseLevel(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Device.Log.Log(level, strings.Join(c.Args[1:], " "))
		},
	}

	// HeartbeatCmd makes the device heartbeat now.
	HeartbeatCmd = ishell.Cmd{
		Name:    "heartbeat",
		Aliases: []string{"hb"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Device.Heartbeat.Beat()
		},
	}

	// StatusCmd prints the simulator state.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			c.Println(ShellFrom(c).Status())
		},
	}
)
