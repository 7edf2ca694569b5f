package monitor

import (
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/robotalks/edgelink/pkg/l0/hal/wstransport"
)

// Ports lists the serial ports of the host.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// OpenSerial opens a CDC-ACM port. DTR is asserted so the device sees
// the host as connected.
func OpenSerial(port string, baudRate int) (io.ReadCloser, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		InitialStatusBits: &serial.ModemOutputBits{
			DTR: true,
			RTS: true,
		},
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return p, nil
}

// OpenWebSocket connects to a simulator link.
func OpenWebSocket(url string) (io.ReadCloser, error) {
	conn, err := wstransport.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", url, err)
	}
	return conn, nil
}
