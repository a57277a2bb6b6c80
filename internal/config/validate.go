// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	g := cfg.Gate

	// ------------------------------------------------------------
	// SENSOR GEOMETRY VALIDATION
	// ------------------------------------------------------------

	if len(g.Sensors.Pins) == 0 {
		return fmt.Errorf("sensors: at least one pin required")
	}

	if len(g.Sensors.SlotMapping) != len(g.Sensors.Pins) {
		return fmt.Errorf(
			"sensors: slot_mapping has %d entries for %d pins",
			len(g.Sensors.SlotMapping),
			len(g.Sensors.Pins),
		)
	}

	if g.Sensors.TotalSlots != 0 && g.Sensors.TotalSlots < len(g.Sensors.Pins) {
		return fmt.Errorf(
			"sensors: total_slots %d is smaller than the physical sensor count %d",
			g.Sensors.TotalSlots,
			len(g.Sensors.Pins),
		)
	}

	// pins must be distinct
	seenPin := make(map[int]int)
	for i, pin := range g.Sensors.Pins {
		if pin < 0 {
			return fmt.Errorf("sensors: pin %d is negative", pin)
		}
		if prev, dup := seenPin[pin]; dup {
			return fmt.Errorf(
				"sensors: pin %d used by both sensor %d and sensor %d",
				pin, prev, i,
			)
		}
		seenPin[pin] = i
	}

	// mapping must be injective and in range
	total := g.Sensors.TotalSlots
	if total == 0 {
		total = DefaultTotalSlots
	}
	seenSlot := make(map[int]int)
	for i, slot := range g.Sensors.SlotMapping {
		if slot < 1 || slot > total {
			return fmt.Errorf(
				"sensors: slot_mapping[%d]=%d outside 1..%d",
				i, slot, total,
			)
		}
		if prev, dup := seenSlot[slot]; dup {
			return fmt.Errorf(
				"sensors: slot %d mapped by both sensor %d and sensor %d",
				slot, prev, i,
			)
		}
		seenSlot[slot] = i
	}

	// ------------------------------------------------------------
	// BARRIER VALIDATION
	// ------------------------------------------------------------

	if g.Barriers.EntryPin < 0 || g.Barriers.ExitPin < 0 {
		return fmt.Errorf("barriers: pins must be non-negative")
	}
	if g.Barriers.EntryPin == g.Barriers.ExitPin {
		return fmt.Errorf(
			"barriers: entry and exit share pin %d",
			g.Barriers.EntryPin,
		)
	}
	if g.Barriers.OpenDurationMs < 0 {
		return fmt.Errorf("barriers: open_duration_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// MQTT VALIDATION
	// ------------------------------------------------------------

	if g.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker required")
	}
	if g.MQTT.Username == "" || g.MQTT.Password == "" {
		return fmt.Errorf(
			"mqtt: credentials missing (set %s and %s)",
			EnvMQTTUsername, EnvMQTTPassword,
		)
	}
	if g.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt: qos %d out of range", g.MQTT.QoS)
	}
	if g.MQTT.Port < 0 || g.MQTT.Port > 65535 {
		return fmt.Errorf("mqtt: port %d out of range", g.MQTT.Port)
	}

	// ------------------------------------------------------------
	// TIMING VALIDATION
	// ------------------------------------------------------------

	if g.PollIntervalMs < 0 {
		return fmt.Errorf("poll_interval_ms must be >= 0")
	}
	if g.MQTT.ReconnectBackoffMs < 0 {
		return fmt.Errorf("mqtt: reconnect_backoff_ms must be >= 0")
	}
	if g.MQTT.ConnectTimeoutMs < 0 {
		return fmt.Errorf("mqtt: connect_timeout_ms must be >= 0")
	}

	return nil
}
