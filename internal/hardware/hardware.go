// internal/hardware/hardware.go
package hardware

// Input reads a raw digital level from one wired sensor.
// The level is reported as-is; polarity conventions belong to the caller.
type Input interface {
	ReadDigital() (bool, error)
}

// Actuator drives one barrier to its open or closed position.
// Actuation is modeled as instantaneous; the physical servo absorbs
// the transition time on its own.
type Actuator interface {
	SetOpen(open bool) error
}
