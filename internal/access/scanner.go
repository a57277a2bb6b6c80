// internal/access/scanner.go
package access

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parksensei/gated/internal/barrier"
	"github.com/parksensei/gated/internal/metrics"
)

// grantQueueDepth bounds granted scans waiting for the control loop.
const grantQueueDepth = 8

// Decoded is one identifier handed in by the external decoding
// collaborator, tagged with the camera that saw it.
type Decoded struct {
	Data   string
	Camera string // "entry" or "exit"
}

// Grant is a validated scan ready to actuate a barrier. It travels
// through a bounded queue consumed once per control tick, so no shared
// flag is ever mutated across goroutines.
type Grant struct {
	Barrier barrier.ID
	Data    string
	Camera  string
	At      time.Time
}

// Scanner turns decoded identifiers into barrier grants. Handle runs
// on the decoder's goroutine; the control loop drains Grants.
type Scanner struct {
	validator *Validator // nil skips remote validation
	cooldown  time.Duration

	mu       sync.Mutex
	lastSeen map[string]time.Time

	grants chan Grant

	log *zap.Logger
	m   *metrics.Metrics
}

// NewScanner creates a scanner with a per-identifier cooldown window.
func NewScanner(validator *Validator, cooldown time.Duration, log *zap.Logger, m *metrics.Metrics) *Scanner {
	return &Scanner{
		validator: validator,
		cooldown:  cooldown,
		lastSeen:  make(map[string]time.Time),
		grants:    make(chan Grant, grantQueueDepth),
		log:       log,
		m:         m,
	}
}

// Grants exposes the validated scan queue.
func (s *Scanner) Grants() <-chan Grant {
	return s.grants
}

// Handle processes one decoded identifier: cooldown, validation, then
// enqueue. Repeat sightings of the same identifier on the same camera
// inside the cooldown window are ignored, so one car does not trigger
// the barrier repeatedly. A denied scan also consumes its cooldown
// slot; the same scan is not retried.
func (s *Scanner) Handle(now time.Time, d Decoded) bool {
	if d.Data == "" {
		return false
	}

	id := barrier.ID(d.Camera)
	if id != barrier.Entry && id != barrier.Exit {
		s.log.Warn("scan from unknown camera",
			zap.String("camera", d.Camera))
		return false
	}

	key := d.Camera + "|" + d.Data

	s.mu.Lock()
	if last, ok := s.lastSeen[key]; ok && now.Sub(last) < s.cooldown {
		s.mu.Unlock()
		return false
	}
	s.lastSeen[key] = now
	s.mu.Unlock()

	if s.validator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.validator.client.Timeout)
		granted := s.validator.Validate(ctx, d.Data)
		cancel()
		if !granted {
			if s.m != nil {
				s.m.ScansDenied.Inc()
			}
			s.log.Info("scan denied",
				zap.String("camera", d.Camera),
				zap.String("data", d.Data))
			return false
		}
	}

	g := Grant{Barrier: id, Data: d.Data, Camera: d.Camera, At: now}

	select {
	case s.grants <- g:
		if s.m != nil {
			s.m.ScansGranted.Inc()
		}
		s.log.Info("scan granted",
			zap.String("camera", d.Camera),
			zap.String("data", d.Data))
		return true
	default:
		s.log.Warn("grant queue full, dropping scan",
			zap.String("camera", d.Camera))
		return false
	}
}
