//go:build tinygo

package main

import (
	"context"
	"machine"

	"github.com/robotalks/edgelink/pkg/l0/critsec"
	"github.com/robotalks/edgelink/pkg/l0/device"
	"github.com/robotalks/edgelink/pkg/l0/fault"
	"github.com/robotalks/edgelink/pkg/l0/hal/board"
)

const edgePin = machine.Pin(16)

func main() {
	cfg := device.DefaultConfig()
	board.ApplyUSBIdentity(board.USBIdentity{
		VendorID:     cfg.USB.VendorID,
		ProductID:    cfg.USB.ProductID,
		Manufacturer: cfg.USB.Manufacturer,
		Product:      cfg.USB.Product,
		Serial:       cfg.USB.Serial,
	})

	pin, err := board.NewPin(edgePin, machine.PinInput)
	if err != nil {
		panic(err)
	}
	cdc, err := board.NewCDC(cfg.USB.PacketSize)
	if err != nil {
		panic(err)
	}
	dev := device.New(cfg, device.Hardware{
		Section:   critsec.Interrupts{},
		Input:     pin,
		Transport: cdc,
		Watchdog:  board.Watchdog{},
		OnFault: func(f *fault.Fault) {
			println(f.Error())
		},
	})
	if err := dev.Run(context.Background()); err != nil {
		panic(err)
	}
}
