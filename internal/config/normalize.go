// internal/config/normalize.go
package config

// Defaults applied by Normalize. Values mirror the deployed gate hardware.
const (
	DefaultPollIntervalMs     = 10
	DefaultStatusLogIntervalS = 60

	DefaultTotalSlots = 20

	DefaultOpenDurationMs = 5000
	DefaultOpenAngle      = 90

	DefaultMQTTPort           = 1883
	DefaultMQTTTLSPort        = 8883
	DefaultQoS                = 1
	DefaultReconnectBackoffMs = 5000
	DefaultConnectTimeoutMs   = 3000
	DefaultPublishTimeoutMs   = 2000
	DefaultClientIDPrefix     = "rpi-parking"

	DefaultCommandTopic   = "door_open"
	DefaultStatusTopic    = "parking/rpi/status"
	DefaultDetectionTopic = "parking/rpi/qr"

	DefaultAccessTimeoutMs = 5000
	DefaultCooldownS       = 5

	DefaultMessageDurationS = 5
	DefaultMetricsPath      = "/metrics"
	DefaultLogLevel         = "info"
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	g := &cfg.Gate

	if g.PollIntervalMs == 0 {
		g.PollIntervalMs = DefaultPollIntervalMs
	}
	if g.StatusLogIntervalS == 0 {
		g.StatusLogIntervalS = DefaultStatusLogIntervalS
	}

	if g.Sensors.TotalSlots == 0 {
		g.Sensors.TotalSlots = DefaultTotalSlots
	}

	if g.Barriers.OpenDurationMs == 0 {
		g.Barriers.OpenDurationMs = DefaultOpenDurationMs
	}
	if g.Barriers.OpenAngle == 0 {
		g.Barriers.OpenAngle = DefaultOpenAngle
	}
	// ClosedAngle deliberately defaults to 0 degrees.

	if g.MQTT.Port == 0 {
		if g.MQTT.TLS {
			g.MQTT.Port = DefaultMQTTTLSPort
		} else {
			g.MQTT.Port = DefaultMQTTPort
		}
	}
	if g.MQTT.QoS == 0 {
		g.MQTT.QoS = DefaultQoS
	}
	if g.MQTT.ReconnectBackoffMs == 0 {
		g.MQTT.ReconnectBackoffMs = DefaultReconnectBackoffMs
	}
	if g.MQTT.ConnectTimeoutMs == 0 {
		g.MQTT.ConnectTimeoutMs = DefaultConnectTimeoutMs
	}
	if g.MQTT.PublishTimeoutMs == 0 {
		g.MQTT.PublishTimeoutMs = DefaultPublishTimeoutMs
	}
	if g.MQTT.ClientIDPrefix == "" {
		g.MQTT.ClientIDPrefix = DefaultClientIDPrefix
	}
	if g.MQTT.CommandTopic == "" {
		g.MQTT.CommandTopic = DefaultCommandTopic
	}
	if g.MQTT.StatusTopic == "" {
		g.MQTT.StatusTopic = DefaultStatusTopic
	}
	if g.MQTT.DetectionTopic == "" {
		g.MQTT.DetectionTopic = DefaultDetectionTopic
	}

	if g.Access.TimeoutMs == 0 {
		g.Access.TimeoutMs = DefaultAccessTimeoutMs
	}
	if g.Access.CooldownS == 0 {
		g.Access.CooldownS = DefaultCooldownS
	}

	if g.Display.MessageDurationS == 0 {
		g.Display.MessageDurationS = DefaultMessageDurationS
	}

	if g.Metrics.Path == "" {
		g.Metrics.Path = DefaultMetricsPath
	}

	if g.Log.Level == "" {
		g.Log.Level = DefaultLogLevel
	}
}
