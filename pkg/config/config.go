// Package config loads the host side configuration.
//
// Values are layered: built-in defaults, then the YAML file, then EDGELINK_*
// environment variables, then command line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/edgelink/pkg/l0/device"
	"github.com/robotalks/edgelink/pkg/l0/frame"
	"github.com/robotalks/edgelink/pkg/l0/packet"
	"github.com/robotalks/edgelink/pkg/l1/env"
)

// EnvPrefix prefixes all environment overrides.
const EnvPrefix = "EDGELINK_"

// Config represents the application configuration.
type Config struct {
	Device  device.Config `yaml:"device"`
	Sim     SimConfig     `yaml:"sim"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// Simulated host links.
const (
	LinkWebSocket = "ws"
	LinkLoopback  = "loopback"
)

// SimConfig configures the host simulator.
type SimConfig struct {
	// Link is LinkWebSocket, serving the CDC link at Listen, or
	// LinkLoopback, decoding the output in process.
	Link string `yaml:"link"`
	// Listen is the address of the websocket CDC link.
	Listen      string `yaml:"listen"`
	InitialHigh bool   `yaml:"initial_high"`
}

// MonitorConfig configures the host monitor.
type MonitorConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	// WebSocketURL reads from a simulator instead of a serial port.
	WebSocketURL string `yaml:"websocket_url"`
	// MQTTBrokerURL, e.g. mqtt://host:port/topic-prefix. Empty disables MQTT.
	MQTTBrokerURL string `yaml:"mqtt_broker_url"`
	DeviceName    string `yaml:"device_name"`
}

// Default returns a default configuration.
func Default() *Config {
	dev := device.DefaultConfig()
	dev.USB.Serial = env.ShortMachineID(8, device.DefaultSerial)
	return &Config{
		Device: dev,
		Sim: SimConfig{
			Link:        LinkWebSocket,
			Listen:      "localhost:8420",
			InitialHigh: true,
		},
		Monitor: MonitorConfig{
			Port:       "/dev/ttyACM0",
			BaudRate:   115200,
			DeviceName: dev.USB.Serial,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults, missing fields keep their default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ensureDefaults()
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) ensureDefaults() {
	def := Default()
	c.Device.FillDefaults()
	if c.Sim.Link == "" {
		c.Sim.Link = def.Sim.Link
	}
	if c.Sim.Listen == "" {
		c.Sim.Listen = def.Sim.Listen
	}
	if c.Monitor.Port == "" {
		c.Monitor.Port = def.Monitor.Port
	}
	if c.Monitor.BaudRate <= 0 {
		c.Monitor.BaudRate = def.Monitor.BaudRate
	}
	if c.Monitor.DeviceName == "" {
		c.Monitor.DeviceName = c.Device.USB.Serial
	}
}

// ApplyEnv overrides values from EDGELINK_* variables read with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"PORT":          &c.Monitor.Port,
		"WS_URL":        &c.Monitor.WebSocketURL,
		"MQTT_URL":      &c.Monitor.MQTTBrokerURL,
		"DEVICE":        &c.Monitor.DeviceName,
		"LISTEN":        &c.Sim.Listen,
		"LINK":          &c.Sim.Link,
		"SERIAL":        &c.Device.USB.Serial,
		"HEARTBEAT_MSG": &c.Device.HeartbeatMessage,
	}
	for name, p := range strs {
		if val := getenv(EnvPrefix + name); val != "" {
			*p = val
		}
	}
	if val := getenv(EnvPrefix + "LOG_LEVEL"); val != "" {
		if err := c.Device.LogLevel.UnmarshalText([]byte(val)); err != nil {
			return fmt.Errorf("%sLOG_LEVEL: %w", EnvPrefix, err)
		}
	}
	return nil
}

// SetupFlags binds command line flags to c.
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	fs.TextVar(&c.Device.LogLevel, "log-level", c.Device.LogLevel, "Device log level")
	fs.BoolVar(&c.Device.DropStaleOnConnect, "drop-stale", c.Device.DropStaleOnConnect, "Drop the pending packet on connect")
	fs.DurationVar(&c.Device.HeartbeatInterval, "heartbeat", c.Device.HeartbeatInterval, "Heartbeat interval")
	fs.DurationVar(&c.Device.LoopLogInterval, "loop-log", c.Device.LoopLogInterval, "Edge watcher alive log interval, 0 disables")
	fs.StringVar(&c.Device.USB.Serial, "serial", c.Device.USB.Serial, "USB serial number")
	fs.StringVar(&c.Sim.Link, "link", c.Sim.Link, "Simulated host link: ws or loopback")
	fs.StringVar(&c.Sim.Listen, "listen", c.Sim.Listen, "Simulated CDC link listen address")
	fs.IntVar(&c.Device.USB.PacketSize, "mtu", c.Device.USB.PacketSize, "CDC bulk endpoint max packet size")
	fs.StringVar(&c.Monitor.Port, "port", c.Monitor.Port, "Serial port")
	fs.IntVar(&c.Monitor.BaudRate, "baud", c.Monitor.BaudRate, "Serial baud rate")
	fs.StringVar(&c.Monitor.WebSocketURL, "ws", c.Monitor.WebSocketURL, "Read from a simulator websocket URL instead of the serial port")
	fs.StringVar(&c.Monitor.MQTTBrokerURL, "mqtt", c.Monitor.MQTTBrokerURL, "MQTT broker URL")
	fs.StringVar(&c.Monitor.DeviceName, "device", c.Monitor.DeviceName, "Device name in MQTT topics")
}

// Parse builds the configuration from a file named by -config (or
// EDGELINK_CONFIG), the environment and the command line.
func Parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Config, error) {
	filename := configFileArg(args)
	if filename == "" {
		filename = getenv(EnvPrefix + "CONFIG")
	}
	cfg := Default()
	if filename != "" {
		var err error
		if cfg, err = Load(filename); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	fs.String("config", filename, "YAML config file")
	cfg.SetupFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values which have no usable fallback.
func (c *Config) Validate() error {
	if c.Sim.Link != LinkWebSocket && c.Sim.Link != LinkLoopback {
		return fmt.Errorf("unknown link %q", c.Sim.Link)
	}
	if c.Device.USB.PacketSize < frame.MaxHeaderSize || c.Device.USB.PacketSize > packet.Capacity {
		return fmt.Errorf("packet size %d out of range [%d, %d]",
			c.Device.USB.PacketSize, frame.MaxHeaderSize, packet.Capacity)
	}
	if c.Device.WatchdogFeedInterval >= c.Device.WatchdogTimeout {
		return fmt.Errorf("watchdog feed interval %v not below timeout %v",
			c.Device.WatchdogFeedInterval, c.Device.WatchdogTimeout)
	}
	return nil
}

func configFileArg(args []string) string {
	for n := 0; n < len(args); n++ {
		arg := args[n]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if len(name) == len(arg) {
			continue
		}
		if name == "config" && n+1 < len(args) {
			return args[n+1]
		}
		if strings.HasPrefix(name, "config=") {
			return strings.TrimPrefix(name, "config=")
		}
	}
	return ""
}

// MustParse is Parse on the process command line, exiting on error.
func MustParse() *Config {
	cfg, err := Parse(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}
