package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tlcmux.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, DriverSerial, c.Driver)
	assert.Equal(t, 57600, c.Serial.Baud)
	assert.Equal(t, 2000, c.Serial.SettleMs)
	assert.Equal(t, 0, c.Serial.ReadTimeoutMs)
	assert.Equal(t, 3, c.Sim.Drivers)
	assert.Equal(t, 8, c.Sim.Rows)
	assert.Equal(t, 5, c.Scroll.BlendSteps)
	assert.Equal(t, zerolog.InfoLevel, c.Level())
	assert.NoError(t, c.Validate())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
driver: sim
serial:
  device: /dev/ttyACM1
  read_timeout_ms: 500
sim:
  drivers: 4
  rows: 2
  addr_bytes: 2
  version: "2"
scroll:
  image: banner.png
  blend_steps: 8
  rate: 25Hz
log_level: debug
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSim, c.Driver)
	assert.Equal(t, zerolog.DebugLevel, c.Level())

	sc := c.SerialConfig()
	assert.Equal(t, "/dev/ttyACM1", sc.Device)
	assert.Equal(t, 57600, sc.Baud)
	assert.Equal(t, 500, sc.ReadTimeout)
	assert.Equal(t, 2000, sc.Settle)

	simCfg := c.SimConfig()
	assert.Equal(t, byte('2'), simCfg.Version)
	assert.Equal(t, 4, simCfg.Drivers)
	assert.Equal(t, 2, simCfg.Rows)
	assert.Equal(t, 2, simCfg.AddrBytes)

	assert.Equal(t, "banner.png", c.Scroll.Image)
	assert.Equal(t, 8, c.Scroll.BlendSteps)

	rate, err := c.ScrollRate()
	require.NoError(t, err)
	assert.Equal(t, 25*physic.Hertz, rate)

	period, err := c.ScrollPeriod()
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, period)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "driver: usb\n"},
		{"bad log level", "log_level: loud\n"},
		{"bad rate", "scroll:\n  rate: fast\n"},
		{"negative steps", "scroll:\n  blend_steps: -1\n"},
		{"long version", "sim:\n  version: \"12\"\n"},
		{"not yaml", "driver: [sim\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUnpacedScroll(t *testing.T) {
	period, err := Default().ScrollPeriod()
	require.NoError(t, err)
	assert.Zero(t, period)
}

func TestSaveLoad(t *testing.T) {
	c := Default()
	c.Driver = DriverSim
	c.Scroll.Rate = "10Hz"
	c.Trace = "session.cbor"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
