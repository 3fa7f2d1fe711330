package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tlcmux/protocol"
)

func newDevice(t *testing.T, cfg Config) *Device {
	t.Helper()
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

func tx(t *testing.T, d *Device, respLen int, req ...byte) []byte {
	t.Helper()
	r := make([]byte, respLen)
	require.NoError(t, d.Tx(req, r))
	return r
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no drivers", Config{Drivers: 0, Rows: 8, AddrBytes: 1}},
		{"too many rows", Config{Drivers: 1, Rows: 256, AddrBytes: 1}},
		{"bad address width", Config{Drivers: 1, Rows: 8, AddrBytes: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestInfo(t *testing.T) {
	d := newDevice(t, Config{Version: '2', Drivers: 3, Rows: 8, AddrBytes: 2})
	assert.Equal(t, []byte{'2', 3, 8, '2', 'i'}, tx(t, d, 5, 'i'))
	assert.Equal(t, 1, d.Count())
}

func TestSetGetPackedLayout(t *testing.T) {
	d := newDevice(t, Config{Drivers: 1, Rows: 2, AddrBytes: 1})

	// channel 15 is shifted out first, so it lands at the start of the row
	tx(t, d, 1, 's', 1, 15, 0x0A, 0xBC)
	row := d.Row(1)
	assert.Equal(t, []byte{0xAB, 0xC0}, row[:2])

	assert.Equal(t, []byte{0x0A, 0xBC, 'g'}, tx(t, d, 3, 'g', 1, 15))
	assert.Equal(t, 0xABC, d.Value(1, 15))
	assert.Equal(t, 0, d.Value(1, 14))
	assert.Equal(t, make([]byte, 24), d.Row(0))
}

func TestSetRowGetRow(t *testing.T) {
	d := newDevice(t, Config{Drivers: 1, Rows: 1, AddrBytes: 1})

	req := []byte{'S', 0}
	want := []byte{}
	for ch := 0; ch < 16; ch++ {
		v := protocol.Encode16(uint16(ch * 256))
		req = append(req, v[:]...)
		want = append(want, v[:]...)
	}
	tx(t, d, 1, req...)

	resp := tx(t, d, 33, 'G', 0)
	assert.Equal(t, want, resp[:32])
	assert.Equal(t, byte('G'), resp[32])
}

func TestSetAllAndClear(t *testing.T) {
	d := newDevice(t, Config{Drivers: 2, Rows: 3, AddrBytes: 1})

	tx(t, d, 1, 't', 0x03, 0xE8)
	for row := 0; row < 3; row++ {
		for ch := 0; ch < 32; ch++ {
			require.Equal(t, 1000, d.Value(row, ch))
		}
	}

	tx(t, d, 1, 'T', 2, 0x00, 0x01)
	assert.Equal(t, 1, d.Value(2, 31))
	assert.Equal(t, 1000, d.Value(1, 31))

	tx(t, d, 1, 'c', 1)
	assert.Equal(t, 0, d.Value(1, 5))
	assert.Equal(t, 1000, d.Value(0, 5))

	tx(t, d, 1, 'C')
	assert.Equal(t, 0, d.Value(0, 5))
	assert.Equal(t, 0, d.Value(2, 31))
}

func TestModifyRowAndArray(t *testing.T) {
	d := newDevice(t, Config{Drivers: 1, Rows: 2, AddrBytes: 1})

	values := make([]uint16, 16)
	for i := range values {
		values[i] = uint16(i * 100)
	}
	packed := protocol.PackRow(values)

	tx(t, d, 1, append([]byte{'m', 1}, packed...)...)
	assert.Equal(t, 700, d.Value(1, 7))

	// second half of row 0 and first half of row 1
	patch := make([]byte, 24)
	for i := range patch {
		patch[i] = 0xFF
	}
	tx(t, d, 1, append([]byte{'M', 0, 12, 0, 24}, patch...)...)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, d.Row(0)[:12])
	assert.Equal(t, 4095, d.Value(0, 0))
	assert.Equal(t, 4095, d.Value(1, 15))
	assert.Equal(t, 0, d.Value(1, 0))
}

func TestRejectsMalformedRequests(t *testing.T) {
	d := newDevice(t, Config{Drivers: 1, Rows: 2, AddrBytes: 1})

	tests := []struct {
		name    string
		req     []byte
		respLen int
	}{
		{"empty", nil, 1},
		{"unknown command", []byte{'x'}, 1},
		{"row out of range", []byte{'c', 2}, 1},
		{"channel out of range", []byte{'g', 0, 16}, 3},
		{"value out of range", []byte{'t', 0x10, 0x00}, 1},
		{"truncated value", []byte{'t', 0x01}, 1},
		{"trailing bytes", []byte{'C', 0}, 1},
		{"wrong read size", []byte{'C'}, 2},
		{"array overrun", []byte{'M', 0, 40, 0, 10, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Tx(tt.req, make([]byte, tt.respLen))
			assert.ErrorIs(t, err, protocol.ErrProtocol)
		})
	}
	assert.Zero(t, d.Count())
}

func TestTwoByteAddresses(t *testing.T) {
	d := newDevice(t, Config{Drivers: 20, Rows: 1, AddrBytes: 2})

	tx(t, d, 1, 's', 0, 0x01, 0x3F, 0x0F, 0xFF)
	assert.Equal(t, 4095, d.Value(0, 319))
	assert.Equal(t, []byte{0x0F, 0xFF, 'g'}, tx(t, d, 3, 'g', 0, 0x01, 0x3F))
}
