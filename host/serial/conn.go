package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3"

	"tlcmux/protocol"
)

// Conn runs half-duplex request/response transactions over a Port.
// Each Tx writes the whole request and then blocks until exactly len(r)
// bytes have been read.
type Conn struct {
	port    Port
	name    string
	timeout time.Duration
}

// NewConn wraps port. timeout is the port's read timeout; when it is
// non-zero an early end of input is reported as protocol.ErrTimeout.
func NewConn(port Port, name string, timeout time.Duration) *Conn {
	return &Conn{
		port:    port,
		name:    name,
		timeout: timeout,
	}
}

// OpenConn opens the native port described by cfg and wraps it
func OpenConn(cfg *Config) (*Conn, error) {
	port, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return NewConn(port, cfg.Device, cfg.readTimeout()), nil
}

func (c *Conn) String() string {
	return "serial(" + c.name + ")"
}

// Duplex implements conn.Conn
func (c *Conn) Duplex() conn.Duplex {
	return conn.Half
}

// Tx implements conn.Conn
func (c *Conn) Tx(w, r []byte) error {
	if len(w) > 0 {
		n, err := c.port.Write(w)
		if err != nil {
			return fmt.Errorf("%w: write: %w", protocol.ErrChannel, err)
		}
		if n != len(w) {
			return fmt.Errorf("%w: incomplete write: %d/%d bytes", protocol.ErrChannel, n, len(w))
		}
	}

	if len(r) == 0 {
		return nil
	}

	n, err := io.ReadFull(c.port, r)
	if err == nil {
		return nil
	}

	var te interface{ Timeout() bool }
	switch {
	case errors.As(err, &te) && te.Timeout():
		return fmt.Errorf("%w: read %d/%d bytes: %w", protocol.ErrTimeout, n, len(r), err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if c.timeout > 0 {
			return fmt.Errorf("%w: read %d/%d bytes within %v", protocol.ErrTimeout, n, len(r), c.timeout)
		}
		return fmt.Errorf("%w: short read: %d/%d bytes", protocol.ErrProtocol, n, len(r))
	default:
		return fmt.Errorf("%w: read: %w", protocol.ErrChannel, err)
	}
}

// Flush discards pending input, e.g. to resynchronize after a protocol error
func (c *Conn) Flush() error {
	return c.port.Flush()
}

// Close closes the underlying port
func (c *Conn) Close() error {
	return c.port.Close()
}

var _ conn.Conn = (*Conn)(nil)
