package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/vlreinier/DFRobot-PH-2024/pkg/calibration"
	"github.com/vlreinier/DFRobot-PH-2024/pkg/ph"
)

type MQTTConfig struct {
	Server            string `json:"server"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	ClientID          string `json:"client_id"`
	StateTopic        string `json:"state_topic"`
	DiscoveryTopic    string `json:"discovery_topic,omitempty"`
	DiscoveryName     string `json:"discovery_name,omitempty"`
	DiscoveryUniqueID string `json:"discovery_unique_id,omitempty"`
}

type OutputConfig struct {
	Type string      `json:"type"`
	MQTT *MQTTConfig `json:"mqtt,omitempty"`
}

type Config struct {
	I2CBus     string `json:"i2c_bus"`
	I2CAddress int    `json:"i2c_address"`
	// Channel is the ADS1115 input the probe board is wired to.
	Channel    int    `json:"channel"`
	SampleRate int    `json:"sample_rate"`
	SensorType string `json:"sensor_type"`
	// SimulationMv centers the fake sensor's readings.
	SimulationMv float64 `json:"simulation_mv,omitempty"`

	CalibrationPath string `json:"calibration_path"`
	RoundTo         int    `json:"round_to"`

	// TemperatureC enables temperature compensation when set.
	TemperatureC           *float64 `json:"temperature_c,omitempty"`
	TemperatureCoefficient float64  `json:"temperature_coefficient"`

	IntervalMs int            `json:"interval_ms"`
	Outputs    []OutputConfig `json:"outputs"`
}

func DefaultConfig() Config {
	return Config{
		I2CBus:                 "1",
		I2CAddress:             0x48,
		Channel:                0,
		SampleRate:             128,
		SensorType:             "real",
		SimulationMv:           calibration.DefaultNeutralVoltage,
		CalibrationPath:        calibration.DefaultPath,
		RoundTo:                ph.DefaultRoundTo,
		TemperatureCoefficient: ph.DefaultTemperatureCoefficient,
		IntervalMs:             1000,
		Outputs:                []OutputConfig{{Type: "console"}},
	}
}

// Load returns the defaults overlaid with the JSON file at path, if given.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, pkgerrors.Wrap(err, "read config")
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, pkgerrors.Wrap(err, "parse config")
		}
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample_rate must be > 0")
	}
	if c.Channel < 0 || c.Channel > 3 {
		return fmt.Errorf("channel %d out of range 0-3", c.Channel)
	}
	switch c.SensorType {
	case "real", "simulation":
	default:
		return fmt.Errorf("unknown sensor_type %q", c.SensorType)
	}
	for _, o := range c.Outputs {
		switch strings.ToLower(o.Type) {
		case "console", "mqtt":
		default:
			return fmt.Errorf("unknown output type %q", o.Type)
		}
	}
	return nil
}

// ParseIntOrHex parses a decimal or 0x-prefixed hex integer, for I2C
// addresses given on the command line.
func ParseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 0)
		return int(v), err
	}
	v, err := strconv.Atoi(s)
	return v, err
}

// ParseCSV splits a comma-separated list, dropping empty entries.
func ParseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
