// internal/config/config.go
package config

type Config struct {
	Gate GateConfig `yaml:"gate"`
}

type GateConfig struct {
	PollIntervalMs     int `yaml:"poll_interval_ms"`
	StatusLogIntervalS int `yaml:"status_log_interval_s"`

	MQTT     MQTTConfig    `yaml:"mqtt"`
	Sensors  SensorConfig  `yaml:"sensors"`
	Barriers BarrierConfig `yaml:"barriers"`
	Access   AccessConfig  `yaml:"access"`
	Display  DisplayConfig `yaml:"display"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Log      LogConfig     `yaml:"log"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Port   int    `yaml:"port"`
	TLS    bool   `yaml:"tls"`

	// Credentials are environment-only. They never appear in the yaml file.
	Username string `yaml:"-"`
	Password string `yaml:"-"`

	ClientIDPrefix string `yaml:"client_id_prefix"`

	CommandTopic   string `yaml:"command_topic"`
	StatusTopic    string `yaml:"status_topic"`
	DetectionTopic string `yaml:"detection_topic"`

	QoS byte `yaml:"qos"`

	ReconnectBackoffMs int `yaml:"reconnect_backoff_ms"`
	ConnectTimeoutMs   int `yaml:"connect_timeout_ms"`
	PublishTimeoutMs   int `yaml:"publish_timeout_ms"`
}

// ---- SENSOR GEOMETRY ----

type SensorConfig struct {
	Pins []int `yaml:"pins"`

	// SlotMapping[i] is the 1-based virtual slot fed by physical sensor i.
	SlotMapping []int `yaml:"slot_mapping"`

	TotalSlots int  `yaml:"total_slots"`
	ActiveLow  bool `yaml:"active_low"`
}

// ---- BARRIERS ----

type BarrierConfig struct {
	EntryPin int `yaml:"entry_pin"`
	ExitPin  int `yaml:"exit_pin"`

	OpenDurationMs int `yaml:"open_duration_ms"`

	OpenAngle   int `yaml:"open_angle"`
	ClosedAngle int `yaml:"closed_angle"`
}

// ---- ACCESS ----

type AccessConfig struct {
	// ValidationURL empty disables credential validation entirely.
	ValidationURL string `yaml:"validation_url"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	CooldownS     int    `yaml:"cooldown_s"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	Enabled          bool `yaml:"enabled"`
	MessageDurationS int  `yaml:"message_duration_s"`
}

// ---- METRICS ----

type MetricsConfig struct {
	// ListenAddress empty disables the metrics listener.
	ListenAddress string `yaml:"listen_address"`
	Path          string `yaml:"path"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}
