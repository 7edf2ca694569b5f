package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/robotalks/edgelink/pkg/config"
	fx "github.com/robotalks/edgelink/pkg/framework"
	"github.com/robotalks/edgelink/pkg/l1/monitor"
	"github.com/robotalks/edgelink/pkg/l1/mqtt"
)

var listPorts bool

func init() {
	flag.BoolVar(&listPorts, "list", listPorts, "List serial ports and exit.")
}

func main() {
	cfg := config.MustParse()
	log.SetFlags(log.Lmicroseconds)

	if listPorts {
		ports, err := monitor.Ports()
		if err != nil {
			log.Fatalln(err)
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return
	}

	var (
		src io.ReadCloser
		err error
	)
	if url := cfg.Monitor.WebSocketURL; url != "" {
		src, err = monitor.OpenWebSocket(url)
	} else {
		src, err = monitor.OpenSerial(cfg.Monitor.Port, cfg.Monitor.BaudRate)
	}
	if err != nil {
		log.Fatalln(err)
	}

	handlers := monitor.Handlers{&monitor.Printer{Out: os.Stdout}}
	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	defer cancel()
	runner.Context = ctx
	if cfg.Monitor.MQTTBrokerURL != "" {
		bridge, err := mqtt.NewBridgeFromURL(cfg.Monitor.MQTTBrokerURL, cfg.Monitor.DeviceName)
		if err != nil {
			log.Fatalln(err)
		}
		handlers = append(handlers, bridge)
		runner.Go(fx.NamedRun("mqtt", bridge))
	}

	mon := monitor.New(src, handlers)
	runner.Go(fx.NamedRun("monitor", fx.RunFunc(func(ctx context.Context) error {
		// the source ending stops the bridge too
		defer cancel()
		return mon.Run(ctx)
	})))
	err = runner.Wait()
	stats := mon.Decoder.Stats()
	log.Printf("lines=%d frames=%d dropped=%d missed=%d", stats.Lines, stats.Frames, stats.Dropped, stats.Missed)
	if err != nil {
		log.Fatalln(err)
	}
}
