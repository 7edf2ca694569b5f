// Package wstransport exposes a simulated CDC-ACM link over websocket.
//
// One client is served at a time. A client hanging up is reported to the
// writer as hal.ErrDisconnected. Each packet is sent as one binary message.
package wstransport

import (
	"context"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/edgelink/pkg/l0/hal"
	"github.com/robotalks/edgelink/pkg/l0/packet"
)

// DefaultPath is where the link is mounted.
const DefaultPath = "/cdc"

type session struct {
	conn   *websocket.Conn
	doneCh chan struct{}
	once   sync.Once
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.doneCh)
	})
}

// Transport implements hal.Transport on top of websocket connections.
type Transport struct {
	MTU int

	lock      sync.Mutex
	current   *session
	changedCh chan struct{}
}

// New creates a Transport.
func New() *Transport {
	return &Transport{MTU: packet.Capacity, changedCh: make(chan struct{})}
}

// Handler returns the websocket handler to mount at DefaultPath.
func (t *Transport) Handler() http.Handler {
	return websocket.Handler(t.serve)
}

// Mux returns a ServeMux with the handler mounted at DefaultPath.
func (t *Transport) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(DefaultPath, t.Handler())
	return mux
}

func (t *Transport) serve(conn *websocket.Conn) {
	s := &session{conn: conn, doneCh: make(chan struct{})}
	if !t.attach(s) {
		glog.Warningf("reject %s: link busy", conn.Request().RemoteAddr)
		return
	}
	glog.V(2).Infof("host connected: %s", conn.Request().RemoteAddr)
	go func() {
		var msg []byte
		for {
			if err := websocket.Message.Receive(conn, &msg); err != nil {
				glog.V(2).Infof("host hang up: %v", err)
				s.close()
				return
			}
		}
	}()
	<-s.doneCh
	t.detach(s)
}

func (t *Transport) attach(s *session) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.current != nil {
		return false
	}
	t.current = s
	t.notifyLocked()
	return true
}

func (t *Transport) detach(s *session) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.current == s {
		t.current = nil
		t.notifyLocked()
	}
}

func (t *Transport) notifyLocked() {
	close(t.changedCh)
	t.changedCh = make(chan struct{})
}

func (t *Transport) state() (*session, <-chan struct{}) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.current, t.changedCh
}

// WaitConnection implements hal.Transport.
func (t *Transport) WaitConnection(ctx context.Context) error {
	for {
		s, changedCh := t.state()
		if s != nil {
			return nil
		}
		select {
		case <-changedCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WritePacket implements hal.Transport.
func (t *Transport) WritePacket(ctx context.Context, p []byte) error {
	if len(p) > t.MaxPacketSize() {
		return hal.ErrBufferOverflow
	}
	s, _ := t.state()
	if s == nil {
		return hal.ErrDisconnected
	}
	if err := websocket.Message.Send(s.conn, p); err != nil {
		glog.V(2).Infof("send failed: %v", err)
		s.close()
		return hal.ErrDisconnected
	}
	return nil
}

// MaxPacketSize implements hal.Transport.
func (t *Transport) MaxPacketSize() int {
	if t.MTU <= 0 {
		return packet.Capacity
	}
	return t.MTU
}

// Dial connects to a simulated link, used by the host monitor.
func Dial(url string) (*websocket.Conn, error) {
	return websocket.Dial(url, "", "http://localhost/")
}
