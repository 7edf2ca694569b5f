// Package frame defines the wire format of log frames multiplexed over the
// device byte stream.
//
// Text messages and log frames share one stream. A frame starts with the
// Sync byte, which never appears in text messages:
//
//	Sync | Seq | Code | [Len] | Payload
//
// Code bit 7 is always set. Bits 0-2 carry the Level, bit 3 marks a payload
// truncated by the encoder, and bits 4-6 carry the payload length when it is
// shorter than 7. Otherwise bits 4-6 are all set and the length follows in
// its own byte.
package frame

import (
	"fmt"
	"strings"

	"github.com/robotalks/edgelink/pkg/l0/packet"
)

// Sync starts every frame.
const Sync byte = 0xff

// Header sizes.
const (
	MinHeaderSize = 3
	MaxHeaderSize = 4
)

// MaxPayload is the largest payload a frame may carry so that the encoded
// frame fits into one packet.
const MaxPayload = packet.Capacity - MaxHeaderSize

const (
	codeEvent     byte = 0x80
	codeTruncated byte = 0x08
	codeLevelMask byte = 0x07
	codeLenMask   byte = 0x70
	shortLenMax        = 7
)

// Seq is the frame sequence number. Valid values are 1 to MaxSeq.
type Seq byte

// MaxSeq is the last sequence number before wrapping to 1.
const MaxSeq Seq = 0xef

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Level is the severity of a log frame.
type Level byte

// Levels.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelPrint
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "PRINT"}

// String implements fmt.Stringer.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "LEVEL?"
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for n, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(n), nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	level, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// Frame is a decoded log frame.
type Frame struct {
	Seq       Seq
	Level     Level
	Truncated bool
	Payload   []byte
}

// Code returns the code byte for the frame.
func (f *Frame) Code() byte {
	code := codeEvent | (byte(f.Level) & codeLevelMask)
	if f.Truncated {
		code |= codeTruncated
	}
	if l := len(f.Payload); l < shortLenMax {
		code |= byte(l) << 4
	} else {
		code |= codeLenMask
	}
	return code
}

// HeaderSize returns the encoded header size for the frame.
func (f *Frame) HeaderSize() int {
	if len(f.Payload) < shortLenMax {
		return MinHeaderSize
	}
	return MaxHeaderSize
}

// AppendTo appends the encoded frame to b.
// The payload must not exceed MaxPayload.
func (f *Frame) AppendTo(b []byte) []byte {
	b = append(b, Sync, byte(f.Seq), f.Code())
	if l := len(f.Payload); l >= shortLenMax {
		b = append(b, byte(l))
	}
	return append(b, f.Payload...)
}

// Bytes returns the encoded frame.
func (f *Frame) Bytes() []byte {
	return f.AppendTo(make([]byte, 0, f.HeaderSize()+len(f.Payload)))
}
