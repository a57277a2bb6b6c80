// internal/display/display.go
package display

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Screen is the 16x2 character display boundary. The concrete I2C
// driver lives outside the core; tests and headless deployments use
// the console screen below.
type Screen interface {
	Show(line1, line2 string) error
	Clear() error
}

// Manager renders transient messages with a fixed display duration and
// falls back to an idle availability line. All calls happen on the
// control loop goroutine.
type Manager struct {
	screen   Screen
	duration time.Duration

	messageUntil time.Time
	available    int

	now func() time.Time

	log *zap.Logger
}

// New creates a manager over the given screen. A nil screen disables
// the display entirely.
func New(screen Screen, duration time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		screen:   screen,
		duration: duration,
		now:      time.Now,
		log:      log,
	}
}

// Welcome shows the entry greeting with the assigned slot number.
func (m *Manager) Welcome(slotNumber int, userID string) {
	if m == nil || m.screen == nil {
		return
	}
	line2 := "Drive In"
	if slotNumber > 0 {
		line2 = fmt.Sprintf("Slot: %d", slotNumber)
	}
	m.show("Welcome!", line2)
}

// ThankYou shows the exit farewell.
func (m *Manager) ThankYou() {
	if m == nil || m.screen == nil {
		return
	}
	m.show("Thank You!", "Drive Safe!")
}

// SetAvailable updates the idle availability count. Rendered when no
// transient message is on screen.
func (m *Manager) SetAvailable(count int) {
	if m == nil || m.screen == nil {
		return
	}
	m.available = count
	if m.messageUntil.IsZero() {
		m.idle()
	}
}

// Tick expires the current transient message.
func (m *Manager) Tick(now time.Time) {
	if m == nil || m.screen == nil {
		return
	}
	if m.messageUntil.IsZero() || now.Before(m.messageUntil) {
		return
	}
	m.messageUntil = time.Time{}
	m.idle()
}

// Shutdown clears the screen.
func (m *Manager) Shutdown() {
	if m == nil || m.screen == nil {
		return
	}
	if err := m.screen.Clear(); err != nil {
		m.log.Warn("display clear failed", zap.Error(err))
	}
}

func (m *Manager) show(line1, line2 string) {
	if err := m.screen.Show(line1, line2); err != nil {
		m.log.Warn("display write failed", zap.Error(err))
		return
	}
	m.messageUntil = m.now().Add(m.duration)
}

func (m *Manager) idle() {
	line2 := fmt.Sprintf("Available: %d", m.available)
	if err := m.screen.Show("P  Smart Park", line2); err != nil {
		m.log.Warn("display write failed", zap.Error(err))
	}
}

// ---- CONSOLE SCREEN ----

// ConsoleScreen mirrors display lines into the log. Used when no LCD
// is wired.
type ConsoleScreen struct {
	Log *zap.Logger
}

func (c *ConsoleScreen) Show(line1, line2 string) error {
	c.Log.Info("display",
		zap.String("line1", line1),
		zap.String("line2", line2))
	return nil
}

func (c *ConsoleScreen) Clear() error {
	return nil
}
