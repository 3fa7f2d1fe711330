// Package sim emulates a Tlc5940Mux serial sketch in memory.
//
// The grayscale array is kept in the same packed layout the firmware uses
// (rows of 24 bytes per driver, highest channel first), so raw row and
// array writes interoperate with per-channel reads exactly as on hardware.
package sim

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3"

	"tlcmux/protocol"
)

// Config describes the simulated hardware
type Config struct {
	Version   byte
	Drivers   int
	Rows      int
	AddrBytes int
}

// DefaultConfig returns a three driver, eight row matrix
func DefaultConfig() Config {
	return Config{
		Version:   '1',
		Drivers:   3,
		Rows:      8,
		AddrBytes: 1,
	}
}

// Device is an in-memory device implementing conn.Conn
type Device struct {
	cfg      Config
	rowBytes int

	mu       sync.Mutex
	array    []byte
	commands *registry
	count    int
}

// New creates a simulated device with all channels at zero
func New(cfg Config) (*Device, error) {
	if cfg.Drivers < 1 || cfg.Drivers > 0xFF {
		return nil, fmt.Errorf("sim: invalid driver count %d", cfg.Drivers)
	}
	if cfg.Rows < 1 || cfg.Rows > 0xFF {
		return nil, fmt.Errorf("sim: invalid row count %d", cfg.Rows)
	}
	if cfg.AddrBytes != 1 && cfg.AddrBytes != 2 {
		return nil, fmt.Errorf("sim: invalid address width %d", cfg.AddrBytes)
	}
	if cfg.Version == 0 {
		cfg.Version = '1'
	}

	d := &Device{
		cfg:      cfg,
		rowBytes: cfg.Drivers * protocol.PackedBytesPerDriver,
		commands: newRegistry(),
	}
	d.array = make([]byte, d.rowBytes*cfg.Rows)
	d.registerCommands()
	return d, nil
}

func (d *Device) String() string {
	return fmt.Sprintf("sim(%dx%d)", d.cfg.Drivers, d.cfg.Rows)
}

// Duplex implements conn.Conn
func (d *Device) Duplex() conn.Duplex {
	return conn.Half
}

// Tx implements conn.Conn. It executes the request in w and fills r with
// the response; len(r) must match the response size of the command.
func (d *Device) Tx(w, r []byte) error {
	if len(w) == 0 {
		return fmt.Errorf("sim: %w: empty request", protocol.ErrProtocol)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cmd := w[0]
	name := protocol.CommandName(cmd)
	args := protocol.NewSliceInputBuffer(w[1:])

	data, err := d.commands.dispatch(cmd, args)
	if err != nil {
		return fmt.Errorf("sim: %s: %w", name, err)
	}
	if args.Available() != 0 {
		return fmt.Errorf("sim: %s: %w: %d trailing request bytes", name, protocol.ErrProtocol, args.Available())
	}

	resp := append(data, cmd)
	if len(resp) != len(r) {
		return fmt.Errorf("sim: %s: %w: response is %d bytes, read buffer is %d", name, protocol.ErrProtocol, len(resp), len(r))
	}
	copy(r, resp)
	d.count++
	return nil
}

// Count returns the number of completed transactions
func (d *Device) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Row returns a copy of the packed grayscale data of row
func (d *Device) Row(row int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.row(row)...)
}

// Value returns the current value of one channel
func (d *Device) Value(row, channel int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(protocol.PackedValue(d.row(row), channel))
}

func (d *Device) row(row int) []byte {
	return d.array[row*d.rowBytes : (row+1)*d.rowBytes]
}

var _ conn.Conn = (*Device)(nil)
