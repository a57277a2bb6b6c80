// internal/controller/controller.go
package controller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/parksensei/gated/internal/access"
	"github.com/parksensei/gated/internal/barrier"
	"github.com/parksensei/gated/internal/dispatch"
	"github.com/parksensei/gated/internal/display"
	"github.com/parksensei/gated/internal/metrics"
	"github.com/parksensei/gated/internal/netsync"
	"github.com/parksensei/gated/internal/sensor"
	"github.com/parksensei/gated/internal/slot"
)

// Bus is the network-synchronization surface the controller drives.
// Satisfied by *netsync.Sync.
type Bus interface {
	Commands() <-chan []byte
	PublishStatusIfChanged(now time.Time, snap slot.Snapshot)
	PublishDetection(d netsync.Detection) error
	Pump(now time.Time)
	Connected() bool
	Close()
}

// Controller is the single cooperative control tick. All component
// state is touched only from the Run goroutine; inbound work arrives
// through bounded queues drained once per tick. No step blocks beyond
// the bounded broker handshake inside Pump.
type Controller struct {
	monitor *sensor.Monitor
	mapper  *slot.Mapper

	barriers   map[barrier.ID]*barrier.Controller
	dispatcher *dispatch.Dispatcher
	sync       Bus
	scanner    *access.Scanner // may be nil
	screen     *display.Manager

	interval          time.Duration
	statusLogInterval time.Duration
	lastStatusLog     time.Time

	snapshot slot.Snapshot

	m   *metrics.Metrics
	log *zap.Logger
}

// Config wires the controller. All fields except Scanner are required.
type Config struct {
	Monitor    *sensor.Monitor
	Mapper     *slot.Mapper
	Barriers   map[barrier.ID]*barrier.Controller
	Dispatcher *dispatch.Dispatcher
	Sync       Bus
	Scanner    *access.Scanner
	Screen     *display.Manager

	Interval          time.Duration
	StatusLogInterval time.Duration

	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func New(cfg Config) (*Controller, error) {
	if cfg.Monitor == nil || cfg.Mapper == nil || cfg.Dispatcher == nil || cfg.Sync == nil ||
		len(cfg.Barriers) == 0 || cfg.Screen == nil || cfg.Log == nil {
		return nil, errors.New("controller: missing required component")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("controller: interval must be > 0")
	}
	return &Controller{
		monitor:           cfg.Monitor,
		mapper:            cfg.Mapper,
		barriers:          cfg.Barriers,
		dispatcher:        cfg.Dispatcher,
		sync:              cfg.Sync,
		scanner:           cfg.Scanner,
		screen:            cfg.Screen,
		interval:          cfg.Interval,
		statusLogInterval: cfg.StatusLogInterval,
		m:                 cfg.Metrics,
		log:               cfg.Log,
	}, nil
}

// Run drives the control loop until the context is canceled, then
// performs the cooperative shutdown: barriers to the safe closed
// position, display cleared, broker disconnected.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Info("control loop started",
		zap.Duration("interval", c.interval))

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case <-ticker.C:
			c.Tick(time.Now())
		}
	}
}

// Tick performs one control cycle, in order: drain inbound commands
// and grants, poll sensors, translate, publish on change, evaluate
// barrier deadlines, expire display messages, pump the connection.
func (c *Controller) Tick(now time.Time) {
	if c.m != nil {
		c.m.Ticks.Inc()
	}

	c.drainCommands(now)
	c.drainGrants(now)

	changed := c.monitor.Poll()
	snap := c.mapper.Translate(c.monitor.Occupied())
	c.snapshot = snap

	// The snapshot compared here always reflects this tick's poll;
	// a change is never published one tick late.
	c.sync.PublishStatusIfChanged(now, snap)

	if len(changed) > 0 {
		sum := slot.Summarize(snap)
		c.log.Info("occupancy changed",
			zap.Ints("sensors", changed),
			zap.Int("occupied", sum.Occupied),
			zap.Int("available", sum.Available))
		c.screen.SetAvailable(sum.Available)
		if c.m != nil {
			c.m.SlotsOccupied.Set(float64(sum.Occupied))
			c.m.SlotsAvailable.Set(float64(sum.Available))
		}
	}

	for _, b := range c.barriers {
		b.Tick(now)
	}

	c.screen.Tick(now)
	c.sync.Pump(now)

	c.maybeLogStatus(now)
}

func (c *Controller) drainCommands(now time.Time) {
	for {
		select {
		case payload := <-c.sync.Commands():
			id, err := c.dispatcher.Dispatch(now, payload)
			if c.m == nil {
				continue
			}
			if err != nil {
				c.m.CommandsRejected.Inc()
			} else {
				c.m.CommandsAccepted.Inc()
				c.m.BarrierOpens.WithLabelValues(string(id)).Inc()
			}
		default:
			return
		}
	}
}

func (c *Controller) drainGrants(now time.Time) {
	if c.scanner == nil {
		return
	}
	for {
		select {
		case g := <-c.scanner.Grants():
			b, ok := c.barriers[g.Barrier]
			if !ok {
				continue
			}
			if err := b.Open(now); err != nil {
				c.log.Error("barrier open failed",
					zap.String("barrier", string(g.Barrier)),
					zap.Error(err))
				continue
			}
			if c.m != nil {
				c.m.BarrierOpens.WithLabelValues(string(g.Barrier)).Inc()
			}
			if err := c.sync.PublishDetection(netsync.Detection{
				QRData:    g.Data,
				Camera:    g.Camera,
				Barrier:   string(g.Barrier),
				Timestamp: g.At.Format("2006-01-02T15:04:05"),
			}); err != nil {
				c.log.Warn("detection publish skipped", zap.Error(err))
			}
		default:
			return
		}
	}
}

func (c *Controller) maybeLogStatus(now time.Time) {
	if c.statusLogInterval <= 0 {
		return
	}
	if !c.lastStatusLog.IsZero() && now.Sub(c.lastStatusLog) < c.statusLogInterval {
		return
	}
	c.lastStatusLog = now

	sum := slot.Summarize(c.snapshot)
	fields := []zap.Field{
		zap.Bool("connected", c.sync.Connected()),
		zap.Int("occupied", sum.Occupied),
		zap.Int("available", sum.Available),
		zap.Float64("occupancy_pct", sum.Rate),
	}
	for id, b := range c.barriers {
		fields = append(fields, zap.String("barrier_"+string(id), b.State()))
	}
	c.log.Info("system status", fields...)
}

func (c *Controller) shutdown() {
	c.log.Info("control loop stopping")

	for id, b := range c.barriers {
		if err := b.Close(); err != nil {
			c.log.Error("barrier close failed on shutdown",
				zap.String("barrier", string(id)),
				zap.Error(err))
		}
	}

	c.screen.Shutdown()
	c.sync.Close()

	c.log.Info("control loop stopped")
}
