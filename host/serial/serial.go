package serial

import (
	"io"
	"time"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards any unread input and unsent output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate; must match the sketch's Serial.begin
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int

	// Settle delay in milliseconds after opening. Opening the port resets
	// most Arduino boards and the sketch ignores input until it is running.
	Settle int
}

// DefaultConfig returns a default configuration for the Tlc5940Mux serial sketch
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        57600,
		ReadTimeout: 0,
		Settle:      2000,
	}
}

func (c *Config) readTimeout() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Millisecond
}
