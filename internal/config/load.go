// internal/config/load.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables carrying broker credentials.
// The yaml file must never contain secrets.
const (
	EnvMQTTUsername = "MQTT_USERNAME"
	EnvMQTTPassword = "MQTT_PASSWORD"
)

// Load reads and decodes the yaml configuration file and merges
// environment-only credentials. It performs no validation;
// call Validate() and then Normalize() afterwards.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.Gate.MQTT.Username = os.Getenv(EnvMQTTUsername)
	cfg.Gate.MQTT.Password = os.Getenv(EnvMQTTPassword)

	return &cfg, nil
}
