// internal/display/display_test.go
package display

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeScreen struct {
	lines   [][2]string
	cleared int
}

func (f *fakeScreen) Show(line1, line2 string) error {
	f.lines = append(f.lines, [2]string{line1, line2})
	return nil
}

func (f *fakeScreen) Clear() error {
	f.cleared++
	return nil
}

func (f *fakeScreen) last() [2]string {
	if len(f.lines) == 0 {
		return [2]string{}
	}
	return f.lines[len(f.lines)-1]
}

func TestWelcome_ShowsSlotNumber(t *testing.T) {
	scr := &fakeScreen{}
	m := New(scr, 5*time.Second, zap.NewNop())

	m.Welcome(7, "USER123")
	if got := scr.last(); got != [2]string{"Welcome!", "Slot: 7"} {
		t.Fatalf("welcome lines: %v", got)
	}

	m.Welcome(0, "USER123")
	if got := scr.last(); got[1] != "Drive In" {
		t.Fatalf("welcome without slot: %v", got)
	}
}

func TestTick_ExpiresMessageToIdle(t *testing.T) {
	scr := &fakeScreen{}
	m := New(scr, 5*time.Second, zap.NewNop())

	base := time.Now()
	m.now = func() time.Time { return base }

	m.SetAvailable(12)
	m.ThankYou()

	// Before the deadline nothing changes.
	m.Tick(base.Add(4 * time.Second))
	if got := scr.last(); got[0] != "Thank You!" {
		t.Fatalf("message expired early: %v", got)
	}

	m.Tick(base.Add(5 * time.Second))
	if got := scr.last(); got[1] != "Available: 12" {
		t.Fatalf("idle line missing: %v", got)
	}

	// Expired message does not re-render on later ticks.
	n := len(scr.lines)
	m.Tick(base.Add(6 * time.Second))
	if len(scr.lines) != n {
		t.Fatalf("tick rendered without a change")
	}
}

func TestSetAvailable_DoesNotInterruptMessage(t *testing.T) {
	scr := &fakeScreen{}
	m := New(scr, 5*time.Second, zap.NewNop())

	m.ThankYou()
	m.SetAvailable(3)
	if got := scr.last(); got[0] != "Thank You!" {
		t.Fatalf("availability update clobbered message: %v", got)
	}
}

func TestNilScreen_IsNoop(t *testing.T) {
	m := New(nil, 5*time.Second, zap.NewNop())
	m.Welcome(1, "u")
	m.ThankYou()
	m.SetAvailable(1)
	m.Tick(time.Now())
	m.Shutdown()
}
