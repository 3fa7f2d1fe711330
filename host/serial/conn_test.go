package serial

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tlcmux/protocol"
)

// fakePort records writes and serves reads from a fixed buffer
type fakePort struct {
	written  bytes.Buffer
	input    *bytes.Reader
	writeErr error
	readErr  error
	shortW   bool
	flushed  int
	closed   bool
}

func newFakePort(input []byte) *fakePort {
	return &fakePort{input: bytes.NewReader(input)}
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.shortW {
		b = b[:len(b)-1]
	}
	return p.written.Write(b)
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	// one byte at a time, like a slow line
	if len(b) > 1 {
		b = b[:1]
	}
	return p.input.Read(b)
}

func (p *fakePort) Flush() error { p.flushed++; return nil }
func (p *fakePort) Close() error { p.closed = true; return nil }

func TestConnTx(t *testing.T) {
	port := newFakePort([]byte{0x0F, 0xFF, 'g'})
	c := NewConn(port, "fake", 0)

	r := make([]byte, 3)
	require.NoError(t, c.Tx([]byte{'g', 1, 2}, r))

	assert.Equal(t, []byte{'g', 1, 2}, port.written.Bytes())
	assert.Equal(t, []byte{0x0F, 0xFF, 'g'}, r)
	assert.Equal(t, "serial(fake)", c.String())
}

func TestConnShortReadWithoutTimeout(t *testing.T) {
	c := NewConn(newFakePort([]byte{'C'}), "fake", 0)

	err := c.Tx([]byte{'G', 0}, make([]byte, 4))
	assert.ErrorIs(t, err, protocol.ErrProtocol)
	assert.NotErrorIs(t, err, protocol.ErrTimeout)
}

func TestConnShortReadWithTimeout(t *testing.T) {
	c := NewConn(newFakePort(nil), "fake", 100*time.Millisecond)

	err := c.Tx([]byte{'C'}, make([]byte, 1))
	assert.ErrorIs(t, err, protocol.ErrTimeout)
	assert.NotErrorIs(t, err, protocol.ErrChannel)
}

func TestConnDeadlineError(t *testing.T) {
	port := newFakePort(nil)
	port.readErr = os.ErrDeadlineExceeded
	c := NewConn(port, "fake", 0)

	err := c.Tx([]byte{'C'}, make([]byte, 1))
	assert.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestConnWriteFailure(t *testing.T) {
	port := newFakePort([]byte{'C'})
	port.writeErr = errors.New("device unplugged")
	c := NewConn(port, "fake", 0)

	err := c.Tx([]byte{'C'}, make([]byte, 1))
	assert.ErrorIs(t, err, protocol.ErrChannel)
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestConnIncompleteWrite(t *testing.T) {
	port := newFakePort([]byte{'C'})
	port.shortW = true
	c := NewConn(port, "fake", 0)

	err := c.Tx([]byte{'c', 0}, make([]byte, 1))
	assert.ErrorIs(t, err, protocol.ErrChannel)
}

func TestConnReadFailure(t *testing.T) {
	port := newFakePort(nil)
	port.readErr = io.ErrClosedPipe
	c := NewConn(port, "fake", 0)

	err := c.Tx([]byte{'C'}, make([]byte, 1))
	assert.ErrorIs(t, err, protocol.ErrChannel)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestConnFlushClose(t *testing.T) {
	port := newFakePort(nil)
	c := NewConn(port, "fake", 0)

	require.NoError(t, c.Flush())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, port.flushed)
	assert.True(t, port.closed)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
	assert.Equal(t, 57600, cfg.Baud)
	assert.Zero(t, cfg.readTimeout())
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}
