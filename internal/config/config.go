package config

// Configuration loading and validation for rtutool

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TheCount/go-modbus-rtu/modbus"
)

// DirectionConfig names the modem output driving the transceiver direction
// input. Explicit direction control needs both delays; if either is missing,
// direction switching is left to the transceiver.
type DirectionConfig struct {
	Pin       string         `yaml:"pin"`                  // "rts" or "dtr"
	PreDelay  *time.Duration `yaml:"pre_delay,omitempty"`  // e.g. "200us"
	PostDelay *time.Duration `yaml:"post_delay,omitempty"` // e.g. "100us"
}

// SerialConfig describes the serial line.
type SerialConfig struct {
	Device    string           `yaml:"device"`
	BaudRate  int              `yaml:"baud_rate"`
	DataBits  int              `yaml:"data_bits"`
	StopBits  int              `yaml:"stop_bits"`
	Parity    string           `yaml:"parity"` // "none", "even", "odd"
	Direction *DirectionConfig `yaml:"direction,omitempty"`
}

// RangeConfig describes one register range of the responder.
type RangeConfig struct {
	Type  string `yaml:"type"` // "coils", "discrete", "holding", "input"
	Start uint16 `yaml:"start"`
	Len   uint16 `yaml:"len"`
}

// Config is the rtutool configuration.
type Config struct {
	Serial          SerialConfig  `yaml:"serial"`
	Unit            uint8         `yaml:"unit"`
	ResponseTimeout time.Duration `yaml:"response_timeout"`
	Registers       []RangeConfig `yaml:"registers"`
}

// Default returns the configuration used for missing fields.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:   "/dev/ttyUSB0",
			BaudRate: 9600,
			DataBits: 8,
			StopBits: 1,
			Parity:   "none",
		},
		Unit:            1,
		ResponseTimeout: time.Second,
	}
}

// Load reads the YAML configuration at path, fills in defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration, fills in defaults, and validates the
// result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine would reject.
func (cfg *Config) Validate() error {
	if cfg.Serial.Device == "" {
		return fmt.Errorf("serial.device is required")
	}
	if cfg.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", cfg.Serial.BaudRate)
	}
	if cfg.Serial.DataBits < 5 || cfg.Serial.DataBits > 8 {
		return fmt.Errorf("serial.data_bits must be in [5,8], got %d", cfg.Serial.DataBits)
	}
	if cfg.Serial.StopBits != 1 && cfg.Serial.StopBits != 2 {
		return fmt.Errorf("serial.stop_bits must be 1 or 2, got %d", cfg.Serial.StopBits)
	}
	if _, err := modbus.ParseParity(cfg.Serial.Parity); err != nil {
		return fmt.Errorf("serial.parity: %w", err)
	}
	if d := cfg.Serial.Direction; d != nil {
		if _, err := modbus.ParseModemLine(d.Pin); err != nil {
			return fmt.Errorf("serial.direction.pin: %w", err)
		}
		for name, delay := range map[string]*time.Duration{
			"pre_delay": d.PreDelay, "post_delay": d.PostDelay,
		} {
			if delay != nil && *delay < 0 {
				return fmt.Errorf("serial.direction.%s must not be negative", name)
			}
		}
	}
	if !modbus.UnitID(cfg.Unit).IsValid() || modbus.UnitID(cfg.Unit).IsBroadcast() {
		return fmt.Errorf("unit must be in [1,247], got %d", cfg.Unit)
	}
	if cfg.ResponseTimeout <= 0 {
		return fmt.Errorf("response_timeout must be positive, got %s", cfg.ResponseTimeout)
	}
	if _, err := cfg.DataRanges(); err != nil {
		return err
	}
	return nil
}

// Options returns the engine options for this configuration.
func (cfg *Config) Options() []modbus.RTUOption {
	parity, _ := modbus.ParseParity(cfg.Serial.Parity)
	opts := []modbus.RTUOption{
		modbus.WithBaudRate(cfg.Serial.BaudRate),
		modbus.WithDataBits(cfg.Serial.DataBits),
		modbus.WithStopBits(cfg.Serial.StopBits),
		modbus.WithParity(parity),
		modbus.WithResponseTimeout(cfg.ResponseTimeout),
	}
	if d := cfg.Serial.Direction; d != nil {
		ml, _ := modbus.ParseModemLine(d.Pin)
		opts = append(opts, modbus.WithModemLineDirection(
			ml, delayOrAbsent(d.PreDelay), delayOrAbsent(d.PostDelay)))
	}
	return opts
}

// delayOrAbsent maps a missing delay to modbus.NoDelay.
func delayOrAbsent(d *time.Duration) time.Duration {
	if d == nil {
		return modbus.NoDelay
	}
	return *d
}

// DataRanges returns the register ranges of the responder.
func (cfg *Config) DataRanges() ([]modbus.DataRange, error) {
	result := make([]modbus.DataRange, 0, len(cfg.Registers))
	for i, rc := range cfg.Registers {
		dt, err := modbus.ParseDataType(rc.Type)
		if err != nil {
			return nil, fmt.Errorf("registers[%d]: %w", i, err)
		}
		dr := modbus.DataRange{Type: dt, StartAddress: rc.Start, Len: rc.Len}
		if err := dr.Validate(); err != nil {
			return nil, fmt.Errorf("registers[%d]: %w", i, err)
		}
		result = append(result, dr)
	}
	return result, nil
}
