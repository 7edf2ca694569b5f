package device

import (
	"time"

	"github.com/robotalks/edgelink/pkg/l0/frame"
	"github.com/robotalks/edgelink/pkg/l0/tasks"
)

// USB identity defaults.
const (
	DefaultVendorID     uint16 = 0x1209
	DefaultProductID    uint16 = 0x0f0f
	DefaultManufacturer        = "thatpix3l"
	DefaultProduct             = "coolhead"
	DefaultSerial              = "12345678"
	DefaultPacketSize          = 64
)

// DefaultLoopLogInterval rate-limits the edge watcher "alive" line.
const DefaultLoopLogInterval = 5 * time.Second

// USBConfig is the identity the device enumerates with.
type USBConfig struct {
	VendorID     uint16 `yaml:"vendor_id"`
	ProductID    uint16 `yaml:"product_id"`
	Manufacturer string `yaml:"manufacturer"`
	Product      string `yaml:"product"`
	Serial       string `yaml:"serial"`
	// PacketSize is the CDC bulk endpoint max packet size. Longer
	// packets are a buffer overflow fault.
	PacketSize int `yaml:"packet_size"`
}

// Config holds the operating parameters of the device.
type Config struct {
	LogLevel             frame.Level   `yaml:"log_level"`
	FallingMessage       string        `yaml:"falling_message"`
	RisingMessage        string        `yaml:"rising_message"`
	DropStaleOnConnect   bool          `yaml:"drop_stale_on_connect"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	HeartbeatMessage     string        `yaml:"heartbeat_message"`
	LoopLogInterval      time.Duration `yaml:"loop_log_interval"`
	WatchdogTimeout      time.Duration `yaml:"watchdog_timeout"`
	WatchdogFeedInterval time.Duration `yaml:"watchdog_feed_interval"`
	USB                  USBConfig     `yaml:"usb"`
}

// DefaultConfig returns the factory configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel:             frame.LevelInfo,
		FallingMessage:       tasks.DefaultFallingMessage,
		RisingMessage:        tasks.DefaultRisingMessage,
		DropStaleOnConnect:   true,
		HeartbeatInterval:    tasks.DefaultHeartbeatInterval,
		HeartbeatMessage:     "heartbeat",
		LoopLogInterval:      DefaultLoopLogInterval,
		WatchdogTimeout:      tasks.DefaultWatchdogTimeout,
		WatchdogFeedInterval: tasks.DefaultWatchdogFeedInterval,
		USB: USBConfig{
			VendorID:     DefaultVendorID,
			ProductID:    DefaultProductID,
			Manufacturer: DefaultManufacturer,
			Product:      DefaultProduct,
			Serial:       DefaultSerial,
			PacketSize:   DefaultPacketSize,
		},
	}
}

// FillDefaults replaces zero values with factory defaults.
// DropStaleOnConnect and LogLevel are taken as they are.
func (c *Config) FillDefaults() {
	def := DefaultConfig()
	if c.FallingMessage == "" {
		c.FallingMessage = def.FallingMessage
	}
	if c.RisingMessage == "" {
		c.RisingMessage = def.RisingMessage
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.HeartbeatMessage == "" {
		c.HeartbeatMessage = def.HeartbeatMessage
	}
	if c.LoopLogInterval < 0 {
		c.LoopLogInterval = 0
	}
	if c.WatchdogTimeout <= 0 {
		c.WatchdogTimeout = def.WatchdogTimeout
	}
	if c.WatchdogFeedInterval <= 0 {
		c.WatchdogFeedInterval = def.WatchdogFeedInterval
	}
	if c.USB.VendorID == 0 {
		c.USB.VendorID = def.USB.VendorID
	}
	if c.USB.ProductID == 0 {
		c.USB.ProductID = def.USB.ProductID
	}
	if c.USB.Manufacturer == "" {
		c.USB.Manufacturer = def.USB.Manufacturer
	}
	if c.USB.Product == "" {
		c.USB.Product = def.USB.Product
	}
	if c.USB.Serial == "" {
		c.USB.Serial = def.USB.Serial
	}
	if c.USB.PacketSize <= 0 {
		c.USB.PacketSize = def.USB.PacketSize
	}
}
