// internal/netsync/publish.go
package netsync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parksensei/gated/internal/slot"
)

// statusMessage is the outbound slot status payload: one entry per
// virtual slot, ordered by slot number ascending.
type statusMessage struct {
	Slots     []slotEntry `json:"slots"`
	Timestamp string      `json:"timestamp"`
}

type slotEntry struct {
	SlotNumber int    `json:"slotNumber"`
	Status     string `json:"status"`
}

// Detection is one externally-decoded identifier event, forwarded
// verbatim from the decoding collaborator. EventID is assigned at
// publish time.
type Detection struct {
	EventID   string `json:"eventId"`
	QRData    string `json:"qrData"`
	Camera    string `json:"camera"`
	Barrier   string `json:"barrier"`
	Timestamp string `json:"timestamp"`
}

// PublishStatusIfChanged publishes the snapshot when it differs from
// the last published one. Unchanged snapshots are a no-op. While
// disconnected the change is simply not published this cycle; the
// baseline is untouched so the next connected tick carries it.
func (s *Sync) PublishStatusIfChanged(now time.Time, snap slot.Snapshot) {
	s.mu.Lock()
	unchanged := s.lastPublished != nil && snap.Equal(s.lastPublished)
	s.mu.Unlock()

	if unchanged {
		return
	}
	if !s.Connected() {
		return
	}

	msg := statusMessage{
		Slots:     make([]slotEntry, len(snap)),
		Timestamp: now.Format(timestampLayout),
	}
	for i, st := range snap {
		msg.Slots[i] = slotEntry{SlotNumber: i + 1, Status: st.String()}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("status serialization failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.lastPublished = snap.Clone()
	s.mu.Unlock()

	s.publish(s.cfg.StatusTopic, payload, func(err error) {
		if err == nil {
			if s.m != nil {
				s.m.StatusPublishes.Inc()
			}
			return
		}
		// Drop the baseline so the state is re-sent on the next change
		// or the next tick, whichever comes first.
		s.mu.Lock()
		s.lastPublished = nil
		s.mu.Unlock()
	})
}

// PublishDetection forwards one detection event to the detection topic.
func (s *Sync) PublishDetection(d Detection) error {
	if !s.Connected() {
		return fmt.Errorf("netsync: not connected")
	}

	d.EventID = uuid.NewString()

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("netsync: detection serialization: %w", err)
	}

	s.publish(s.cfg.DetectionTopic, payload, nil)
	return nil
}

// publish fires the message and confirms the token off the control
// loop goroutine, so a slow broker ack never stalls a tick.
func (s *Sync) publish(topic string, payload []byte, done func(error)) {
	token := s.client.Publish(topic, s.cfg.QoS, false, payload)

	go func() {
		var err error
		if !token.WaitTimeout(s.publishTimeout) {
			err = fmt.Errorf("netsync: publish timeout on %s", topic)
		} else {
			err = token.Error()
		}

		if err != nil {
			if s.m != nil {
				s.m.PublishFailures.Inc()
			}
			s.log.Warn("publish failed",
				zap.String("topic", topic),
				zap.Error(err))
		}
		if done != nil {
			done(err)
		}
	}()
}
