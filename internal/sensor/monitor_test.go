// internal/sensor/monitor_test.go
package sensor

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/parksensei/gated/internal/hardware"
)

type fakeInput struct {
	level bool
	err   error
}

func (f *fakeInput) ReadDigital() (bool, error) {
	return f.level, f.err
}

func newMonitor(t *testing.T, inputs ...*fakeInput) (*Monitor, []*fakeInput) {
	t.Helper()
	hw := make([]hardware.Input, len(inputs))
	for i, in := range inputs {
		hw[i] = in
	}
	m, err := New(hw, true, zap.NewNop())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return m, inputs
}

func TestPoll_FirstPollSeedsWithoutChanges(t *testing.T) {
	// Active-low: a low level means occupied from the very first read.
	m, _ := newMonitor(t, &fakeInput{level: false}, &fakeInput{level: true})

	if changed := m.Poll(); changed != nil {
		t.Fatalf("first poll reported changes: %v", changed)
	}

	occ := m.Occupied()
	if !occ[0] || occ[1] {
		t.Fatalf("seeded occupancy wrong: %v", occ)
	}
}

func TestPoll_EdgeTriggered(t *testing.T) {
	m, ins := newMonitor(t, &fakeInput{level: true}, &fakeInput{level: true})
	m.Poll() // seed

	ins[1].level = false // occupied
	changed := m.Poll()
	if len(changed) != 1 || changed[0] != 1 {
		t.Fatalf("expected change on sensor 1, got %v", changed)
	}

	// Unchanged level reports nothing on the next poll.
	if changed := m.Poll(); changed != nil {
		t.Fatalf("steady state reported changes: %v", changed)
	}

	// Any differing read is accepted immediately, no smoothing.
	ins[1].level = true
	changed = m.Poll()
	if len(changed) != 1 || changed[0] != 1 {
		t.Fatalf("expected change back on sensor 1, got %v", changed)
	}
}

func TestPoll_ReadFailureIsNoChange(t *testing.T) {
	m, ins := newMonitor(t, &fakeInput{level: true})
	m.Poll() // seed

	ins[0].err = errors.New("bus fault")
	ins[0].level = false
	if changed := m.Poll(); changed != nil {
		t.Fatalf("failed read reported changes: %v", changed)
	}

	// Recovery on the next tick picks the transition up.
	ins[0].err = nil
	changed := m.Poll()
	if len(changed) != 1 || changed[0] != 0 {
		t.Fatalf("expected change after recovery, got %v", changed)
	}
}

func TestPoll_FailedSeedRetries(t *testing.T) {
	m, ins := newMonitor(t, &fakeInput{level: false, err: errors.New("boot fault")})

	if changed := m.Poll(); changed != nil {
		t.Fatalf("failed seed reported changes: %v", changed)
	}

	// The seed happens on the first successful read and is still silent.
	ins[0].err = nil
	if changed := m.Poll(); changed != nil {
		t.Fatalf("late seed reported changes: %v", changed)
	}
	if occ := m.Occupied(); !occ[0] {
		t.Fatalf("late seed missed occupancy: %v", occ)
	}
}

func TestNew_RequiresInputs(t *testing.T) {
	if _, err := New(nil, true, zap.NewNop()); err == nil {
		t.Fatalf("expected error for empty input set")
	}
}
