// internal/netsync/netsync.go
package netsync

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parksensei/gated/internal/config"
	"github.com/parksensei/gated/internal/metrics"
	"github.com/parksensei/gated/internal/slot"
)

// commandQueueDepth bounds inbound commands buffered between the paho
// delivery goroutine and the control loop. Overflow drops the command.
const commandQueueDepth = 16

const timestampLayout = "2006-01-02T15:04:05"

// Sync owns the single logical connection to the message bus. The
// control loop drives it via Pump once per tick; reconnect attempts
// are rate-limited to one per backoff interval, never a busy loop.
//
// Paho delivers inbound messages on its own goroutine, so everything
// it touches (connected flag, command queue) is guarded; the control
// loop never blocks on it for an unbounded duration.
type Sync struct {
	cfg config.MQTTConfig

	client    mqtt.Client
	newClient func() mqtt.Client

	commands chan []byte

	mu            sync.Mutex
	connected     bool
	lastAttempt   time.Time
	lastPublished slot.Snapshot

	connectTimeout time.Duration
	publishTimeout time.Duration
	backoff        time.Duration

	log *zap.Logger
	m   *metrics.Metrics
}

// New creates a disconnected Sync. The first Pump call attempts the
// initial connect.
func New(cfg config.MQTTConfig, log *zap.Logger, m *metrics.Metrics) *Sync {
	s := &Sync{
		cfg:            cfg,
		commands:       make(chan []byte, commandQueueDepth),
		connectTimeout: time.Duration(cfg.ConnectTimeoutMs) * time.Millisecond,
		publishTimeout: time.Duration(cfg.PublishTimeoutMs) * time.Millisecond,
		backoff:        time.Duration(cfg.ReconnectBackoffMs) * time.Millisecond,
		log:            log,
		m:              m,
	}
	s.newClient = func() mqtt.Client {
		return mqtt.NewClient(s.clientOptions())
	}
	return s
}

func (s *Sync) clientOptions() *mqtt.ClientOptions {
	scheme := "tcp"
	if s.cfg.TLS {
		scheme = "ssl"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, s.cfg.Broker, s.cfg.Port))
	opts.SetClientID(fmt.Sprintf("%s-%s", s.cfg.ClientIDPrefix, uuid.NewString()[:8]))
	opts.SetUsername(s.cfg.Username)
	opts.SetPassword(s.cfg.Password)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectTimeout(s.connectTimeout)

	// The control loop owns reconnect cadence; paho must not race it.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	if s.cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		s.onConnect(c)
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		s.setConnected(false)
		s.log.Warn("broker connection lost", zap.Error(err))
	})

	return opts
}

// onConnect (re-)subscribes the command topic. Runs on every connect,
// so a reconnect restores the subscription.
func (s *Sync) onConnect(c mqtt.Client) {
	s.setConnected(true)
	s.log.Info("broker connected",
		zap.String("broker", s.cfg.Broker),
		zap.String("topic", s.cfg.CommandTopic))

	token := c.Subscribe(s.cfg.CommandTopic, s.cfg.QoS, s.onMessage)
	go func() {
		if !token.WaitTimeout(s.connectTimeout) {
			s.log.Error("command subscription timeout",
				zap.String("topic", s.cfg.CommandTopic))
			return
		}
		if err := token.Error(); err != nil {
			s.log.Error("command subscription failed",
				zap.String("topic", s.cfg.CommandTopic),
				zap.Error(err))
		}
	}()
}

// onMessage runs on the paho delivery goroutine. It hands the payload
// to the bounded queue the control loop drains once per tick.
func (s *Sync) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	select {
	case s.commands <- payload:
	default:
		s.log.Warn("command queue full, dropping command",
			zap.String("topic", msg.Topic()))
	}
}

// Commands exposes the inbound command queue.
func (s *Sync) Commands() <-chan []byte {
	return s.commands
}

// Pump advances the connection lifecycle. While disconnected it makes
// at most one connect attempt per backoff interval; the handshake is
// bounded by the configured connect timeout. While connected it is a
// no-op; paho services the transport on its own goroutines.
func (s *Sync) Pump(now time.Time) {
	if s.Connected() {
		return
	}

	s.mu.Lock()
	if !s.lastAttempt.IsZero() && now.Sub(s.lastAttempt) < s.backoff {
		s.mu.Unlock()
		return
	}
	s.lastAttempt = now
	s.mu.Unlock()

	if s.m != nil {
		s.m.ReconnectAttempts.Inc()
	}

	if s.client == nil {
		s.client = s.newClient()
	}

	s.log.Info("connecting to broker",
		zap.String("broker", s.cfg.Broker),
		zap.Int("port", s.cfg.Port))

	token := s.client.Connect()
	if !token.WaitTimeout(s.connectTimeout) {
		s.log.Warn("broker connect timeout",
			zap.Duration("timeout", s.connectTimeout))
		return
	}
	if err := token.Error(); err != nil {
		s.log.Warn("broker connect failed", zap.Error(err))
		return
	}
	// Connected state and subscription are handled by onConnect.
}

// Connected reports the current connection state.
func (s *Sync) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Sync) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
	if s.m != nil {
		if v {
			s.m.Connected.Set(1)
		} else {
			s.m.Connected.Set(0)
		}
	}
}

// Close disconnects from the broker.
func (s *Sync) Close() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	s.setConnected(false)
	s.log.Info("broker disconnected")
}
