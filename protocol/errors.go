package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks a request rejected before anything was sent.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProtocol marks a response that does not match the request framing.
	// The session should be torn down after it.
	ErrProtocol = errors.New("protocol error")

	// ErrAddressOverflow marks a channel that does not fit the device's
	// channel address width.
	ErrAddressOverflow = errors.New("channel address overflow")

	// ErrChannel marks a read or write failure of the underlying byte channel.
	ErrChannel = errors.New("channel error")

	// ErrTimeout marks a read that hit the channel's read deadline.
	ErrTimeout = errors.New("channel timeout")
)

// RangeError reports an argument outside its allowed bounds
type RangeError struct {
	Arg   string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	if e.Min == e.Max {
		return fmt.Sprintf("invalid %s %d (want %d)", e.Arg, e.Value, e.Min)
	}
	return fmt.Sprintf("invalid %s %d (want %d..%d)", e.Arg, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidArgument
}

// EchoError reports a response whose trailing byte is not the command echo
type EchoError struct {
	Cmd byte
	Got byte
}

func (e *EchoError) Error() string {
	return fmt.Sprintf("invalid response to %s: expected echo %q, got 0x%02x", CommandName(e.Cmd), e.Cmd, e.Got)
}

func (e *EchoError) Unwrap() error {
	return ErrProtocol
}

// CheckRange returns a *RangeError if v is outside [min, max]
func CheckRange(arg string, v, min, max int) error {
	if v < min || v > max {
		return &RangeError{Arg: arg, Value: v, Min: min, Max: max}
	}
	return nil
}
