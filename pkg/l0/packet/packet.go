// Package packet defines the fixed-capacity message handed from producers
// to the USB writer.
package packet

// Capacity is the maximum number of bytes a Packet carries.
// It matches the CDC-ACM bulk endpoint max packet size.
const Capacity = 64

// Packet is a byte message with an explicit length.
// It is a value type: copying a Packet copies its bytes.
type Packet struct {
	data [Capacity]byte
	n    int
}

// From copies b into a new Packet. Bytes past Capacity are dropped.
func From(b []byte) Packet {
	var p Packet
	p.n = copy(p.data[:], b)
	return p
}

// FromString copies s into a new Packet. Bytes past Capacity are dropped.
func FromString(s string) Packet {
	var p Packet
	p.n = copy(p.data[:], s)
	return p
}

// Bytes returns the packet content. The slice aliases p.
func (p *Packet) Bytes() []byte {
	return p.data[:p.n]
}

// Len returns the number of bytes in the packet.
func (p Packet) Len() int {
	return p.n
}

// String returns the content as a string.
func (p Packet) String() string {
	return string(p.data[:p.n])
}
