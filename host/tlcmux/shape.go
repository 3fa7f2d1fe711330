package tlcmux

import (
	"fmt"

	"tlcmux/protocol"
)

// Shape describes the addressable layout reported by the device
type Shape struct {
	Version   byte // protocol version character
	Drivers   int  // TLC5940 chips per row
	Rows      int  // multiplexed rows
	AddrBytes int  // channel address width, 1 or 2
}

// Channels returns the number of channels in one row
func (s Shape) Channels() int {
	return s.Drivers * protocol.ChannelsPerDriver
}

// RowBytes returns the packed size of one row
func (s Shape) RowBytes() int {
	return s.Drivers * protocol.PackedBytesPerDriver
}

// ArrayBytes returns the packed size of the whole grayscale array
func (s Shape) ArrayBytes() int {
	return s.RowBytes() * s.Rows
}

func (s Shape) String() string {
	return fmt.Sprintf("v%c %d drivers x %d rows, %d-byte channel addresses", s.Version, s.Drivers, s.Rows, s.AddrBytes)
}

// parseInfo decodes the body of an info response
func parseInfo(resp []byte) (Shape, error) {
	s := Shape{
		Version: resp[0],
		Drivers: int(resp[1]),
		Rows:    int(resp[2]),
	}
	switch resp[3] {
	case '1':
		s.AddrBytes = 1
	case '2':
		s.AddrBytes = 2
	default:
		return Shape{}, fmt.Errorf("%w: invalid channel address width %q", protocol.ErrProtocol, resp[3])
	}
	if s.Drivers == 0 || s.Rows == 0 {
		return Shape{}, fmt.Errorf("%w: device reports %d drivers and %d rows", protocol.ErrProtocol, s.Drivers, s.Rows)
	}
	return s, nil
}
