package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/edgelink/pkg/cli/sh"
	"github.com/robotalks/edgelink/pkg/config"
	fx "github.com/robotalks/edgelink/pkg/framework"
	"github.com/robotalks/edgelink/pkg/l0/critsec"
	"github.com/robotalks/edgelink/pkg/l0/device"
	"github.com/robotalks/edgelink/pkg/l0/fault"
	"github.com/robotalks/edgelink/pkg/l0/hal"
	"github.com/robotalks/edgelink/pkg/l0/hal/sim"
	"github.com/robotalks/edgelink/pkg/l0/hal/wstransport"
	"github.com/robotalks/edgelink/pkg/l1/monitor"
	"github.com/robotalks/edgelink/pkg/l1/mqtt"
)

func reportFault(f *fault.Fault) {
	glog.Errorf("%v", f)
	glog.Flush()
}

// loopback prints everything written to the simulated link.
func loopback(tr *sim.Transport) fx.Runnable {
	return fx.RunFunc(func(ctx context.Context) error {
		dec := monitor.NewDecoder(&monitor.Printer{Out: os.Stdout})
		for {
			select {
			case data := <-tr.Written:
				dec.Write(data)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

func serveLink(listen string, tr *wstransport.Transport) fx.Runnable {
	return fx.RunFunc(func(ctx context.Context) error {
		srv := &http.Server{Addr: listen, Handler: tr.Mux()}
		glog.Infof("CDC link at ws://%s%s", listen, wstransport.DefaultPath)
		return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
	})
}

func injectFromMQTT(brokerURL, device string, pin *sim.Pin) (fx.Runnable, error) {
	q, err := mqtt.NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	topics := mqtt.Topics{Device: device}
	q.Sub(topics.Inject(), func(_ string, payload []byte) {
		if string(payload) == "toggle" {
			pin.Toggle()
			return
		}
		level, err := sh.ParseLevel(string(payload))
		if err != nil {
			glog.Warningf("inject: %v", err)
			return
		}
		pin.Inject(level)
	})
	return fx.RunFunc(func(ctx context.Context) error {
		if token := q.Connect(); token.Wait() && token.Error() != nil {
			return token.Error()
		}
		<-ctx.Done()
		q.Close()
		return ctx.Err()
	}), nil
}

func main() {
	cfg := config.MustParse()

	initial := hal.Low
	if cfg.Sim.InitialHigh {
		initial = hal.High
	}
	pin := sim.NewPin(initial)
	wd := &sim.Watchdog{}
	hw := device.Hardware{
		Section:  &critsec.Mutex{Timeout: time.Second},
		Input:    pin,
		Watchdog: wd,
		OnFault:  reportFault,
	}

	runner := fx.NewRunner().HandleSignals()
	var link sh.Link
	switch cfg.Sim.Link {
	case config.LinkLoopback:
		tr := sim.NewTransport(cfg.Device.USB.PacketSize, 16)
		hw.Transport, link = tr, tr
		runner.Go(fx.NamedRun("loopback", loopback(tr)))
	default:
		tr := wstransport.New()
		tr.MTU = cfg.Device.USB.PacketSize
		hw.Transport = tr
		runner.Go(fx.NamedRun("link", serveLink(cfg.Sim.Listen, tr)))
	}

	dev := device.New(cfg.Device, hw)
	runner.Go(fx.NamedRun("device", fx.RunFunc(dev.Run)))

	if cfg.Monitor.MQTTBrokerURL != "" {
		inject, err := injectFromMQTT(cfg.Monitor.MQTTBrokerURL, cfg.Monitor.DeviceName, pin)
		if err != nil {
			log.Fatalln(err)
		}
		runner.Go(fx.NamedRun("mqtt-inject", inject))
	}

	s := sh.New(dev, pin).WithLink(link).WithWatchdog(wd)
	if s.Interactive || flag.NArg() > 0 {
		s.Run(flag.Args()...)
		return
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
