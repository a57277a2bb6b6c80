// internal/barrier/barrier.go
package barrier

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/parksensei/gated/internal/hardware"
)

// ID names one physical barrier.
type ID string

const (
	Entry ID = "entry"
	Exit  ID = "exit"
)

// Controller owns one barrier: its actuator handle and its auto-close
// deadline. The machine has exactly two states, Closed and Open; there
// is no intermediate position because the servo absorbs the transition.
// Barriers are independent: entry and exit never share a controller.
type Controller struct {
	id  ID
	act hardware.Actuator

	openDuration time.Duration

	open     bool
	openedAt time.Time

	log *zap.Logger
}

// New creates a closed controller. The actuator is not touched here;
// the caller drives the initial closed position during startup.
func New(id ID, act hardware.Actuator, openDuration time.Duration, log *zap.Logger) (*Controller, error) {
	if act == nil {
		return nil, errors.New("barrier: actuator required")
	}
	if openDuration <= 0 {
		return nil, errors.New("barrier: open duration must be > 0")
	}
	return &Controller{
		id:           id,
		act:          act,
		openDuration: openDuration,
		log:          log,
	}, nil
}

// Open drives the barrier to the open position and arms the auto-close
// deadline. Opening an already-open barrier resets the deadline: a
// re-trigger extends the window rather than ignoring the command.
func (c *Controller) Open(now time.Time) error {
	if err := c.act.SetOpen(true); err != nil {
		return err
	}

	if c.open {
		c.log.Info("barrier re-triggered, deadline extended",
			zap.String("barrier", string(c.id)))
	} else {
		c.log.Info("barrier opened",
			zap.String("barrier", string(c.id)))
	}

	c.open = true
	c.openedAt = now
	return nil
}

// Tick evaluates the auto-close deadline. Called once per control
// cycle; a failed actuation keeps the barrier logically open so the
// close is retried next tick.
func (c *Controller) Tick(now time.Time) {
	if !c.open {
		return
	}
	if now.Sub(c.openedAt) < c.openDuration {
		return
	}

	if err := c.act.SetOpen(false); err != nil {
		c.log.Warn("barrier close failed, retrying next tick",
			zap.String("barrier", string(c.id)),
			zap.Error(err))
		return
	}

	c.log.Info("barrier auto-closed",
		zap.String("barrier", string(c.id)))
	c.open = false
	c.openedAt = time.Time{}
}

// Close drives the barrier to the safe closed position unconditionally.
// Used at startup and shutdown.
func (c *Controller) Close() error {
	c.open = false
	c.openedAt = time.Time{}
	return c.act.SetOpen(false)
}

// IsOpen reports the current logical position.
func (c *Controller) IsOpen() bool {
	return c.open
}

// State returns "open" or "closed" for status logging.
func (c *Controller) State() string {
	if c.open {
		return "open"
	}
	return "closed"
}

// ID returns the barrier identity.
func (c *Controller) ID() ID {
	return c.id
}
