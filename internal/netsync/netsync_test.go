// internal/netsync/netsync_test.go
package netsync

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parksensei/gated/internal/config"
	"github.com/parksensei/gated/internal/slot"
)

// ---- fakes ----

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu sync.Mutex

	connectCalls int
	connectErr   error

	subscribed []string
	subQoS     byte
	handler    mqtt.MessageHandler

	published  []published
	publishErr error

	disconnects int
}

func (f *fakeClient) IsConnected() bool      { return f.connectCalls > 0 && f.connectErr == nil }
func (f *fakeClient) IsConnectionOpen() bool { return f.IsConnected() }

func (f *fakeClient) Connect() mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	return &fakeToken{err: f.connectErr}
}

func (f *fakeClient) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
}

func (f *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{
		topic:   topic,
		qos:     qos,
		payload: payload.([]byte),
	})
	return &fakeToken{err: f.publishErr}
}

func (f *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, topic)
	f.subQoS = qos
	f.handler = cb
	return &fakeToken{}
}

func (f *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{}
}

func (f *fakeClient) Unsubscribe(...string) mqtt.Token { return &fakeToken{} }

func (f *fakeClient) AddRoute(string, mqtt.MessageHandler) {}

func (f *fakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

func (f *fakeClient) publishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// ---- helpers ----

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker:             "broker.example",
		Port:               8883,
		Username:           "gate",
		Password:           "secret",
		CommandTopic:       "door_open",
		StatusTopic:        "parking/rpi/status",
		DetectionTopic:     "parking/rpi/qr",
		QoS:                1,
		ReconnectBackoffMs: 5000,
		ConnectTimeoutMs:   100,
		PublishTimeoutMs:   100,
	}
}

func newTestSync(t *testing.T) (*Sync, *fakeClient) {
	t.Helper()
	s := New(testConfig(), zap.NewNop(), nil)
	fc := &fakeClient{}
	s.newClient = func() mqtt.Client { return fc }
	return s, fc
}

// ---- tests ----

func TestPump_BackoffLimitsAttempts(t *testing.T) {
	s, fc := newTestSync(t)
	fc.connectErr = errors.New("refused")

	start := time.Now()

	s.Pump(start)
	assert.Equal(t, 1, fc.connectCalls)

	// Inside the backoff window: no new attempt, never a busy loop.
	s.Pump(start.Add(time.Second))
	s.Pump(start.Add(4 * time.Second))
	assert.Equal(t, 1, fc.connectCalls)

	// At the backoff boundary a new attempt is allowed.
	s.Pump(start.Add(5 * time.Second))
	assert.Equal(t, 2, fc.connectCalls)
}

func TestPump_NoopWhileConnected(t *testing.T) {
	s, fc := newTestSync(t)
	s.setConnected(true)

	s.Pump(time.Now())
	assert.Equal(t, 0, fc.connectCalls)
}

func TestOnConnect_ResubscribesCommandTopic(t *testing.T) {
	s, fc := newTestSync(t)

	s.onConnect(fc)
	s.setConnected(false)
	s.onConnect(fc)

	require.Len(t, fc.subscribed, 2)
	assert.Equal(t, "door_open", fc.subscribed[0])
	assert.Equal(t, byte(1), fc.subQoS)
	assert.True(t, s.Connected())
}

func TestOnMessage_QueuesAndDropsOnOverflow(t *testing.T) {
	s, _ := newTestSync(t)

	for i := 0; i < commandQueueDepth+5; i++ {
		s.onMessage(nil, &fakeMessage{topic: "door_open", payload: []byte(`{"action":"open"}`)})
	}

	drained := 0
	for {
		select {
		case <-s.Commands():
			drained++
			continue
		default:
		}
		break
	}
	assert.Equal(t, commandQueueDepth, drained)
}

func TestPublishStatusIfChanged_Deduplicates(t *testing.T) {
	s, fc := newTestSync(t)
	s.client = fc
	s.setConnected(true)

	snap := slot.Snapshot{slot.Occupied, slot.Available, slot.Occupied}
	now := time.Now()

	s.PublishStatusIfChanged(now, snap)
	require.Equal(t, 1, fc.publishCount())

	// Unchanged snapshot across consecutive ticks: at most one publish.
	s.PublishStatusIfChanged(now.Add(10*time.Millisecond), snap.Clone())
	assert.Equal(t, 1, fc.publishCount())

	changed := snap.Clone()
	changed[1] = slot.Occupied
	s.PublishStatusIfChanged(now.Add(20*time.Millisecond), changed)
	assert.Equal(t, 2, fc.publishCount())
}

func TestPublishStatusIfChanged_PayloadShape(t *testing.T) {
	s, fc := newTestSync(t)
	s.client = fc
	s.setConnected(true)

	now := time.Date(2025, 11, 7, 10, 30, 0, 0, time.UTC)
	s.PublishStatusIfChanged(now, slot.Snapshot{slot.Occupied, slot.Available})

	require.Equal(t, 1, fc.publishCount())
	assert.Equal(t, "parking/rpi/status", fc.published[0].topic)

	var msg struct {
		Slots []struct {
			SlotNumber int    `json:"slotNumber"`
			Status     string `json:"status"`
		} `json:"slots"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(fc.published[0].payload, &msg))

	require.Len(t, msg.Slots, 2)
	assert.Equal(t, 1, msg.Slots[0].SlotNumber)
	assert.Equal(t, "occupied", msg.Slots[0].Status)
	assert.Equal(t, 2, msg.Slots[1].SlotNumber)
	assert.Equal(t, "available", msg.Slots[1].Status)
	assert.Equal(t, "2025-11-07T10:30:00", msg.Timestamp)
}

func TestPublishStatusIfChanged_SkippedWhileDisconnected(t *testing.T) {
	s, fc := newTestSync(t)
	s.client = fc

	snap := slot.Snapshot{slot.Available}
	s.PublishStatusIfChanged(time.Now(), snap)
	assert.Equal(t, 0, fc.publishCount())

	// Once connected, the next tick carries the current state.
	s.setConnected(true)
	s.PublishStatusIfChanged(time.Now(), snap)
	assert.Equal(t, 1, fc.publishCount())
}

func TestPublishStatusIfChanged_FailureDropsBaseline(t *testing.T) {
	s, fc := newTestSync(t)
	s.client = fc
	s.setConnected(true)
	fc.publishErr = errors.New("broker gone")

	snap := slot.Snapshot{slot.Available}
	s.PublishStatusIfChanged(time.Now(), snap)

	// The async token confirmation clears the baseline, so the same
	// snapshot is re-sent on a later tick.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.lastPublished == nil
	}, time.Second, 5*time.Millisecond)

	fc.publishErr = nil
	s.PublishStatusIfChanged(time.Now(), snap)
	assert.Equal(t, 2, fc.publishCount())
}

func TestPublishDetection(t *testing.T) {
	s, fc := newTestSync(t)
	s.client = fc

	d := Detection{QRData: "USER123", Camera: "entry", Barrier: "entry", Timestamp: "2025-11-07T10:30:00"}
	require.Error(t, s.PublishDetection(d), "disconnected publish must fail")

	s.setConnected(true)
	require.NoError(t, s.PublishDetection(d))
	require.Equal(t, 1, fc.publishCount())
	assert.Equal(t, "parking/rpi/qr", fc.published[0].topic)

	var got Detection
	require.NoError(t, json.Unmarshal(fc.published[0].payload, &got))
	assert.NotEmpty(t, got.EventID)
	got.EventID = ""
	assert.Equal(t, d, got)
}
