// internal/dispatch/dispatch.go
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parksensei/gated/internal/barrier"
)

// Command is one inbound remote command, parsed from a bus payload.
// userId, slotNumber and timestamp are passthrough fields the core does
// not interpret beyond logging and display.
type Command struct {
	Action     string `json:"action"`
	Barrier    string `json:"barrier"`
	UserID     string `json:"userId"`
	SlotNumber int    `json:"slotNumber"`
	Timestamp  string `json:"timestamp"`
}

var (
	ErrBadPayload     = errors.New("dispatch: malformed payload")
	ErrUnknownAction  = errors.New("dispatch: unknown action")
	ErrUnknownBarrier = errors.New("dispatch: unknown barrier")
)

// Notifier receives display-worthy events derived from valid commands.
type Notifier interface {
	Welcome(slotNumber int, userID string)
	ThankYou()
}

// Dispatcher decodes inbound commands and routes them to the matching
// barrier controller. Invalid input is discarded with a diagnostic and
// never mutates barrier state.
type Dispatcher struct {
	barriers map[barrier.ID]*barrier.Controller
	notify   Notifier // may be nil
	log      *zap.Logger
}

// New creates a dispatcher over the given controllers.
func New(barriers map[barrier.ID]*barrier.Controller, notify Notifier, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		barriers: barriers,
		notify:   notify,
		log:      log,
	}
}

// Dispatch handles one raw command payload and returns the barrier it
// actuated. The action and barrier fields are matched
// case-insensitively.
func (d *Dispatcher) Dispatch(now time.Time, payload []byte) (barrier.ID, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		d.log.Warn("command payload rejected", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	action := strings.ToLower(strings.TrimSpace(cmd.Action))
	if action != "open" {
		d.log.Warn("command action rejected",
			zap.String("action", cmd.Action))
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}

	id := barrier.ID(strings.ToLower(strings.TrimSpace(cmd.Barrier)))
	ctrl, ok := d.barriers[id]
	if !ok {
		d.log.Warn("command barrier rejected",
			zap.String("barrier", cmd.Barrier))
		return "", fmt.Errorf("%w: %q", ErrUnknownBarrier, cmd.Barrier)
	}

	d.log.Info("open command accepted",
		zap.String("barrier", string(id)),
		zap.String("user", cmd.UserID),
		zap.Int("slot", cmd.SlotNumber))

	if err := ctrl.Open(now); err != nil {
		d.log.Error("barrier open failed",
			zap.String("barrier", string(id)),
			zap.Error(err))
		return "", err
	}

	if d.notify != nil {
		switch id {
		case barrier.Entry:
			d.notify.Welcome(cmd.SlotNumber, cmd.UserID)
		case barrier.Exit:
			d.notify.ThankYou()
		}
	}

	return id, nil
}
