// internal/slot/slot.go
package slot

// Status is the externally reported state of one virtual slot.
type Status uint8

const (
	Available Status = iota
	Occupied
)

func (s Status) String() string {
	if s == Occupied {
		return "occupied"
	}
	return "available"
}

// Snapshot is the full ordered vector of virtual-slot statuses at one
// instant. Index i holds slot number i+1. It contains no logic and no
// memory of the past beyond current state.
type Snapshot []Status

// Equal reports whether two snapshots carry identical statuses.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
