// Package tlcmux is the host side client for a Tlc5940Mux serial device.
//
// A Client owns its channel for its whole lifetime. Every operation is a
// single blocking transaction: the request is written, then the fixed-size
// response is read and its trailing echo byte checked. Nothing is retried;
// after a protocol error the framing is unknown and the session should be
// closed.
package tlcmux

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3"

	"tlcmux/protocol"
)

// Client talks to one device over a half-duplex channel
type Client struct {
	conn  conn.Conn
	shape Shape
	log   zerolog.Logger

	// one outstanding request at a time
	mu  sync.Mutex
	out *protocol.ScratchOutput
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger used for per-transaction debug output
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New queries the device shape over c and returns a ready client
func New(c conn.Conn, opts ...Option) (*Client, error) {
	cl := &Client{
		conn: c,
		log:  zerolog.Nop(),
		out:  protocol.NewScratchOutput(64),
	}
	for _, opt := range opts {
		opt(cl)
	}

	resp, err := cl.exchange(protocol.CmdInfo, protocol.InfoResponseSize-protocol.EchoSize, nil)
	if err != nil {
		return nil, err
	}
	shape, err := parseInfo(resp)
	if err != nil {
		return nil, fmt.Errorf("info: %w", err)
	}
	cl.shape = shape

	cl.log.Info().
		Str("conn", c.String()).
		Str("version", string(shape.Version)).
		Int("drivers", shape.Drivers).
		Int("rows", shape.Rows).
		Int("addr_bytes", shape.AddrBytes).
		Msg("device connected")

	return cl, nil
}

// Shape returns the device shape read at connection time
func (c *Client) Shape() Shape {
	return c.shape
}

// Close closes the channel if it can be closed
func (c *Client) Close() error {
	if closer, ok := c.conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// exchange sends cmd with the arguments written by args and returns the
// dataLen response bytes that precede the echo.
func (c *Client) exchange(cmd byte, dataLen int, args func(out protocol.OutputBuffer) error) ([]byte, error) {
	name := protocol.CommandName(cmd)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.out.Reset()
	protocol.EncodeByte(c.out, cmd)
	if args != nil {
		if err := args(c.out); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	req := c.out.Result()
	resp := make([]byte, dataLen+protocol.EchoSize)

	start := time.Now()
	if err := c.conn.Tx(req, resp); err != nil {
		if !errors.Is(err, protocol.ErrChannel) && !errors.Is(err, protocol.ErrTimeout) && !errors.Is(err, protocol.ErrProtocol) {
			err = fmt.Errorf("%w: %w", protocol.ErrChannel, err)
		}
		c.log.Debug().Err(err).Str("cmd", name).Msg("transaction failed")
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	c.log.Debug().
		Str("cmd", name).
		Int("sent", len(req)).
		Int("received", len(resp)).
		Dur("took", time.Since(start)).
		Msg("transaction")

	if got := resp[dataLen]; got != cmd {
		return nil, fmt.Errorf("%s: %w", name, &protocol.EchoError{Cmd: cmd, Got: got})
	}
	return resp[:dataLen], nil
}

// validate returns the first failed check
func validate(checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) checkRow(row int) error {
	return protocol.CheckRange("row", row, 0, c.shape.Rows-1)
}

func (c *Client) checkChannel(channel int) error {
	return protocol.CheckRange("channel", channel, 0, c.shape.Channels()-1)
}

func checkValue(value int) error {
	return protocol.CheckRange("value", value, 0, protocol.MaxValue)
}

func checkLength(arg string, n, want int) error {
	return protocol.CheckRange(arg, n, want, want)
}

func rowArg(row int) func(out protocol.OutputBuffer) error {
	return func(out protocol.OutputBuffer) error {
		protocol.EncodeByte(out, byte(row))
		return nil
	}
}

func (c *Client) invalid(cmd byte, err error) error {
	return fmt.Errorf("%s: %w", protocol.CommandName(cmd), err)
}
