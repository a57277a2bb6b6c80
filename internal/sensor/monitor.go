// internal/sensor/monitor.go
package sensor

import (
	"errors"

	"go.uber.org/zap"

	"github.com/parksensei/gated/internal/hardware"
)

// Monitor samples a fixed set of physical occupancy sensors and tracks
// their debounced state. Debouncing is edge-triggered: any read that
// differs from the recorded value is accepted immediately, with no
// temporal filtering window.
type Monitor struct {
	inputs    []hardware.Input
	activeLow bool

	occupied []bool
	seeded   []bool

	log *zap.Logger
}

// New creates a monitor over immutable sensor wiring.
func New(inputs []hardware.Input, activeLow bool, log *zap.Logger) (*Monitor, error) {
	if len(inputs) == 0 {
		return nil, errors.New("sensor: at least one input required")
	}
	return &Monitor{
		inputs:    inputs,
		activeLow: activeLow,
		occupied:  make([]bool, len(inputs)),
		seeded:    make([]bool, len(inputs)),
		log:       log,
	}, nil
}

// Poll reads every sensor once and returns the indices whose debounced
// occupancy changed since the previous poll.
//
// The first successful read of a sensor seeds its baseline instead of
// reporting a transition, so startup never emits a spurious change.
// A failed read leaves the sensor untouched this cycle; it is retried
// on the next poll.
func (m *Monitor) Poll() []int {
	var changed []int

	for i, in := range m.inputs {
		level, err := in.ReadDigital()
		if err != nil {
			m.log.Warn("sensor read failed",
				zap.Int("sensor", i),
				zap.Error(err))
			continue
		}

		occupied := level
		if m.activeLow {
			occupied = !level
		}

		if !m.seeded[i] {
			m.seeded[i] = true
			m.occupied[i] = occupied
			continue
		}

		if occupied != m.occupied[i] {
			m.occupied[i] = occupied
			changed = append(changed, i)
		}
	}

	return changed
}

// Occupied returns a copy of the current debounced occupancy vector.
func (m *Monitor) Occupied() []bool {
	out := make([]bool, len(m.occupied))
	copy(out, m.occupied)
	return out
}

// Count returns the number of wired physical sensors.
func (m *Monitor) Count() int {
	return len(m.inputs)
}
