// internal/hardware/rpio.go
package hardware

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// Servo pulse geometry at 50 Hz: 0 degrees = 2.5% duty, 180 degrees = 12.5%.
const (
	servoHz    = 50
	servoCycle = 2048
)

// Board owns the memory-mapped GPIO range. Exactly one instance exists
// per process; Close releases the mapping.
type Board struct {
	opened bool
}

// OpenBoard maps the GPIO memory range. Failure here is fatal at startup:
// the control loop must not start without working hardware access.
func OpenBoard() (*Board, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("hardware: gpio open: %w", err)
	}
	return &Board{opened: true}, nil
}

func (b *Board) Close() error {
	if !b.opened {
		return nil
	}
	b.opened = false
	return rpio.Close()
}

// ---- DIGITAL INPUT ----

type digitalInput struct {
	pin rpio.Pin
}

// NewInput configures a BCM pin as a pulled-up digital input.
func (b *Board) NewInput(bcm int) Input {
	pin := rpio.Pin(bcm)
	pin.Input()
	pin.PullUp()
	return &digitalInput{pin: pin}
}

func (d *digitalInput) ReadDigital() (bool, error) {
	return d.pin.Read() == rpio.High, nil
}

// ---- SERVO ACTUATOR ----

type servo struct {
	pin         rpio.Pin
	openAngle   int
	closedAngle int
}

// NewServo configures a BCM pin for hardware PWM servo drive.
// Only the PWM-capable pins (GPIO 12, 13, 18, 19) can back a barrier.
func (b *Board) NewServo(bcm, openAngle, closedAngle int) Actuator {
	pin := rpio.Pin(bcm)
	pin.Mode(rpio.Pwm)
	pin.Freq(servoHz * servoCycle)
	return &servo{
		pin:         pin,
		openAngle:   openAngle,
		closedAngle: closedAngle,
	}
}

func (s *servo) SetOpen(open bool) error {
	angle := s.closedAngle
	if open {
		angle = s.openAngle
	}
	s.pin.DutyCycle(dutyForAngle(angle), servoCycle)
	return nil
}

func dutyForAngle(angle int) uint32 {
	if angle < 0 {
		angle = 0
	}
	if angle > 180 {
		angle = 180
	}
	pct := 2.5 + (float64(angle)/180.0)*10.0
	return uint32(pct / 100.0 * float64(servoCycle))
}
