// Package config loads the host tool configuration from YAML
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"tlcmux/host/blend"
	"tlcmux/host/serial"
	"tlcmux/host/sim"
)

// Drivers
const (
	DriverSerial = "serial"
	DriverSim    = "sim"
)

type Serial struct {
	Device        string `yaml:"device"`          // e.g. /dev/ttyUSB0
	Baud          int    `yaml:"baud"`            // e.g. 57600
	ReadTimeoutMs int    `yaml:"read_timeout_ms"` // 0 blocks forever
	SettleMs      int    `yaml:"settle_ms"`       // wait for the board reset after opening
}

type Sim struct {
	Drivers   int    `yaml:"drivers"`
	Rows      int    `yaml:"rows"`
	AddrBytes int    `yaml:"addr_bytes"`
	Version   string `yaml:"version"` // "1" or "2"
}

type Scroll struct {
	Image      string `yaml:"image"`
	BlendSteps int    `yaml:"blend_steps"`
	Rate       string `yaml:"rate"` // e.g. 30Hz, empty runs as fast as the device answers
}

type Config struct {
	Driver   string `yaml:"driver"` // "serial" | "sim"
	Serial   Serial `yaml:"serial"`
	Sim      Sim    `yaml:"sim"`
	Scroll   Scroll `yaml:"scroll"`
	Trace    string `yaml:"trace,omitempty"` // CBOR trace output path
	LogLevel string `yaml:"log_level"`
}

// Load reads the config file at path and fills in defaults
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Default returns the configuration used when no file is given
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

// applyDefaults fills in missing values
func applyDefaults(c *Config) {
	if c.Driver == "" {
		c.Driver = DriverSerial
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	def := serial.DefaultConfig("")
	if c.Serial.Device == "" {
		c.Serial.Device = "/dev/ttyUSB0"
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Baud
	}
	if c.Serial.SettleMs == 0 {
		c.Serial.SettleMs = def.Settle
	}

	simDef := sim.DefaultConfig()
	if c.Sim.Drivers == 0 {
		c.Sim.Drivers = simDef.Drivers
	}
	if c.Sim.Rows == 0 {
		c.Sim.Rows = simDef.Rows
	}
	if c.Sim.AddrBytes == 0 {
		c.Sim.AddrBytes = simDef.AddrBytes
	}
	if c.Sim.Version == "" {
		c.Sim.Version = string(simDef.Version)
	}

	if c.Scroll.BlendSteps == 0 {
		c.Scroll.BlendSteps = blend.DefaultSteps
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSerial, DriverSim:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Serial.Baud < 0 || c.Serial.ReadTimeoutMs < 0 || c.Serial.SettleMs < 0 {
		return fmt.Errorf("serial: negative baud or timing")
	}
	if len(c.Sim.Version) != 1 {
		return fmt.Errorf("sim.version must be a single character, got %q", c.Sim.Version)
	}
	if c.Scroll.BlendSteps < 1 {
		return fmt.Errorf("scroll.blend_steps must be positive, got %d", c.Scroll.BlendSteps)
	}
	if _, err := c.ScrollPeriod(); err != nil {
		return err
	}
	return nil
}

// SerialConfig returns the port settings
func (c *Config) SerialConfig() *serial.Config {
	return &serial.Config{
		Device:      c.Serial.Device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadTimeoutMs,
		Settle:      c.Serial.SettleMs,
	}
}

// SimConfig returns the simulated device settings
func (c *Config) SimConfig() sim.Config {
	cfg := sim.Config{
		Drivers:   c.Sim.Drivers,
		Rows:      c.Sim.Rows,
		AddrBytes: c.Sim.AddrBytes,
	}
	if c.Sim.Version != "" {
		cfg.Version = c.Sim.Version[0]
	}
	return cfg
}

// ScrollRate parses scroll.rate. An empty rate is zero.
func (c *Config) ScrollRate() (physic.Frequency, error) {
	var f physic.Frequency
	if c.Scroll.Rate == "" {
		return 0, nil
	}
	if err := f.Set(c.Scroll.Rate); err != nil {
		return 0, fmt.Errorf("scroll.rate: %w", err)
	}
	if f < 0 {
		return 0, fmt.Errorf("scroll.rate: negative frequency %s", f)
	}
	return f, nil
}

// ScrollPeriod returns the time between frames, zero for unpaced
func (c *Config) ScrollPeriod() (time.Duration, error) {
	f, err := c.ScrollRate()
	if err != nil || f == 0 {
		return 0, err
	}
	return f.Period(), nil
}

// Level returns the parsed log level
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
