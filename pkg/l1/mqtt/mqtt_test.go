package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/edgelink/pkg/l0/devlog"
	"github.com/robotalks/edgelink/pkg/l0/frame"
	"github.com/robotalks/edgelink/pkg/l1/monitor"
)

type published struct {
	topic   string
	retain  bool
	payload string
}

type fakeClient struct {
	paho.Client

	lock       sync.Mutex
	pubs       []published
	subscribed []string
	unsubbed   []string
	callback   paho.MessageHandler
}

func (c *fakeClient) Connect() paho.Token { return &paho.DummyToken{} }

func (c *fakeClient) Disconnect(uint) {}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.pubs = append(c.pubs, published{topic: topic, retain: retained, payload: string(payload.([]byte))})
	return &paho.DummyToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.subscribed = append(c.subscribed, topic)
	c.callback = callback
	return &paho.DummyToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	c.unsubbed = append(c.unsubbed, topics...)
	return &paho.DummyToken{}
}

func (c *fakeClient) published() []published {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]published(nil), c.pubs...)
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic, pattern string
		match          bool
	}{
		{"dev/edge", "dev/edge", true},
		{"dev/edge", "dev/log", false},
		{"dev/edge", "+/edge", true},
		{"dev/edge", "#", true},
		{"dev/edge", "dev/#", true},
		{"dev", "dev/#", true},
		{"dev/edge/x", "+/edge", false},
		{"dev", "dev/+", false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.match, MatchTopic(tc.topic, tc.pattern), "%s ~ %s", tc.topic, tc.pattern)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://u:p@broker:1883/edge/?client-id=mon")
	require.NoError(t, err)
	assert.Equal(t, "edge/", prefix)
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.Equal(t, "mon", opts.ClientID)

	opts, prefix, err = ClientOptionsFromURL("ssl://broker:8883")
	require.NoError(t, err)
	assert.Equal(t, "", prefix)
	assert.Equal(t, "ssl://broker:8883", opts.Servers[0].String())
}

func TestQueueDispatch(t *testing.T) {
	client := &fakeClient{}
	q := &Queue{Client: client, TopicPrefix: "edge/"}
	var got []string
	sub1 := q.Sub("dev/inject", func(topic string, payload []byte) {
		got = append(got, "1:"+string(payload))
	})
	sub2 := q.Sub("+/inject", func(topic string, payload []byte) {
		got = append(got, "2:"+topic)
	})
	sub3 := q.Sub("dev/inject", func(topic string, payload []byte) {
		got = append(got, "3:"+string(payload))
	})
	assert.Equal(t, []string{"edge/dev/inject", "edge/+/inject"}, client.subscribed)

	client.callback(client, &fakeMessage{topic: "edge/dev/inject", payload: []byte("low")})
	client.callback(client, &fakeMessage{topic: "other/dev/inject", payload: []byte("high")})
	assert.ElementsMatch(t, []string{"1:low", "2:dev/inject", "3:low"}, got)

	require.NoError(t, sub1.Close())
	assert.Empty(t, client.unsubbed)
	require.NoError(t, sub3.Close())
	require.NoError(t, sub2.Close())
	assert.ElementsMatch(t, []string{"edge/dev/inject", "edge/+/inject"}, client.unsubbed)
}

func TestBridgePublishes(t *testing.T) {
	client := &fakeClient{}
	b := &Bridge{Queue: &Queue{Client: client, TopicPrefix: "edge/"}, Topics: Topics{Device: "dev1"}}
	b.HandleEvent(monitor.Event{Text: "pulsing...\n"})
	b.HandleEvent(monitor.Event{Log: &monitor.LogEntry{
		Seq:    3,
		Level:  frame.LevelWarn,
		Record: devlog.Record{Uptime: 2 * time.Second, Message: "connected"},
		Missed: 1,
		Err:    errors.New("bad"),
	}})

	pubs := client.published()
	require.Len(t, pubs, 2)
	assert.Equal(t, published{topic: "edge/dev1/edge", payload: "pulsing...\n"}, pubs[0])
	assert.Equal(t, "edge/dev1/log", pubs[1].topic)
	var msg LogMessage
	require.NoError(t, json.Unmarshal([]byte(pubs[1].payload), &msg))
	assert.Equal(t, LogMessage{Seq: 3, Level: "warn", Uptime: 2, Message: "connected", Missed: 1, Error: "bad"}, msg)
}

func TestBridgeRunMarksOffline(t *testing.T) {
	client := &fakeClient{}
	b := &Bridge{Queue: &Queue{Client: client}, Topics: Topics{Device: "dev1"}}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	pubs := client.published()
	require.Len(t, pubs, 1)
	assert.Equal(t, published{topic: "dev1/status", retain: true, payload: StatusOffline}, pubs[0])
}

func TestNewBridgeFromURL(t *testing.T) {
	b, err := NewBridgeFromURL("mqtt://localhost:1883/edge/", "dev1")
	require.NoError(t, err)
	assert.Equal(t, "edge/", b.Queue.TopicPrefix)
	assert.Equal(t, "dev1/inject", b.Topics.Inject())
	assert.NotNil(t, b.Queue.OnConnect)
}
