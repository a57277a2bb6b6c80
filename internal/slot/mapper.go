// internal/slot/mapper.go
package slot

import (
	"fmt"
)

// Mapper projects a small physical-sensor vector onto the larger fixed
// virtual slot space. The mapping is static configuration loaded once;
// slots with no mapped sensor are pinned Occupied by policy so the lot
// never advertises spaces it cannot observe.
type Mapper struct {
	total int

	// sensorFor[i] holds the physical sensor feeding slot i+1, or -1.
	sensorFor []int
}

// NewMapper builds the projection table.
// mapping[i] names the 1-based virtual slot fed by physical sensor i.
// A slot claimed by more than one sensor is a configuration error.
func NewMapper(total int, mapping []int) (*Mapper, error) {
	if total < len(mapping) {
		return nil, fmt.Errorf(
			"slot: %d virtual slots cannot hold %d sensors",
			total, len(mapping),
		)
	}

	sensorFor := make([]int, total)
	for i := range sensorFor {
		sensorFor[i] = -1
	}

	for sensor, slotNum := range mapping {
		if slotNum < 1 || slotNum > total {
			return nil, fmt.Errorf(
				"slot: sensor %d mapped to slot %d outside 1..%d",
				sensor, slotNum, total,
			)
		}
		if prev := sensorFor[slotNum-1]; prev != -1 {
			return nil, fmt.Errorf(
				"slot: slot %d claimed by both sensor %d and sensor %d",
				slotNum, prev, sensor,
			)
		}
		sensorFor[slotNum-1] = sensor
	}

	return &Mapper{total: total, sensorFor: sensorFor}, nil
}

// Translate maps debounced physical occupancy onto the virtual slot
// vector. The result always has exactly Total() entries.
func (m *Mapper) Translate(occupied []bool) Snapshot {
	snap := make(Snapshot, m.total)

	for i, sensor := range m.sensorFor {
		switch {
		case sensor == -1:
			snap[i] = Occupied
		case sensor < len(occupied) && occupied[sensor]:
			snap[i] = Occupied
		default:
			snap[i] = Available
		}
	}

	return snap
}

// Total returns the size of the virtual slot space.
func (m *Mapper) Total() int {
	return m.total
}

// ---- OCCUPANCY SUMMARY ----

type Summary struct {
	Total     int
	Occupied  int
	Available int
	Rate      float64 // percent
}

// Summarize computes occupancy statistics for one snapshot.
func Summarize(s Snapshot) Summary {
	sum := Summary{Total: len(s)}
	for _, st := range s {
		if st == Occupied {
			sum.Occupied++
		}
	}
	sum.Available = sum.Total - sum.Occupied
	if sum.Total > 0 {
		sum.Rate = float64(sum.Occupied) / float64(sum.Total) * 100
	}
	return sum
}

// AvailableNumbers lists the 1-based numbers of available slots.
func AvailableNumbers(s Snapshot) []int {
	var out []int
	for i, st := range s {
		if st == Available {
			out = append(out, i+1)
		}
	}
	return out
}
