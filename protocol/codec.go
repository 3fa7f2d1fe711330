package protocol

import "fmt"

// Encode16 splits v into big-endian bytes
func Encode16(v uint16) [2]byte {
	return [2]byte{byte(v >> 8), byte(v)}
}

// Unpack16Pair joins two big-endian bytes. Devices answer get queries with
// plain 16-bit values, so this is not the inverse of PackChannelPair.
func Unpack16Pair(b0, b1 byte) uint16 {
	return uint16(b0)<<8 | uint16(b1)
}

// EncodeChannelAddr encodes a channel index using the device's address width
func EncodeChannelAddr(channel, addrBytes int) ([]byte, error) {
	if channel < 0 {
		return nil, &RangeError{Arg: "channel", Value: channel, Min: 0, Max: 0xFFFF}
	}
	if addrBytes == 1 {
		if channel > 0xFF {
			return nil, fmt.Errorf("%w: channel %d does not fit a 1-byte address", ErrAddressOverflow, channel)
		}
		return []byte{byte(channel)}, nil
	}
	if channel > 0xFFFF {
		return nil, fmt.Errorf("%w: channel %d does not fit a 2-byte address", ErrAddressOverflow, channel)
	}
	b := Encode16(uint16(channel))
	return b[:], nil
}

// PackChannelPair packs two 12-bit values into three bytes in shift
// register order: all 12 bits of last, then all 12 bits of next.
func PackChannelPair(last, next uint16) [3]byte {
	return [3]byte{
		byte(last >> 4),
		byte(last<<4 | next>>8),
		byte(next),
	}
}

// UnpackChannelPair reverses PackChannelPair
func UnpackChannelPair(b [3]byte) (last, next uint16) {
	last = uint16(b[0])<<4 | uint16(b[1])>>4
	next = uint16(b[1]&0x0F)<<8 | uint16(b[2])
	return last, next
}

// PackRow packs a row of channel values into its wire layout.
// It panics if len(values) is odd.
func PackRow(values []uint16) []byte {
	return AppendPackedRow(make([]byte, 0, len(values)/2*3), values)
}

// AppendPackedRow appends the packed form of values to dst. Pairs are
// emitted from the highest channel down, the order the drivers shift in.
func AppendPackedRow(dst []byte, values []uint16) []byte {
	if len(values)%2 != 0 {
		panic(fmt.Sprintf("protocol: cannot pack odd row length %d", len(values)))
	}
	for hi := len(values) - 1; hi > 0; hi -= 2 {
		p := PackChannelPair(values[hi], values[hi-1])
		dst = append(dst, p[:]...)
	}
	return dst
}

// UnpackRow reverses PackRow
func UnpackRow(packed []byte) []uint16 {
	n := len(packed) / 3 * 2
	values := make([]uint16, n)
	for i := 0; i+2 < len(packed); i += 3 {
		hi := n - 1 - i/3*2
		values[hi], values[hi-1] = UnpackChannelPair([3]byte{packed[i], packed[i+1], packed[i+2]})
	}
	return values
}

// packedIndex locates channel inside a packed row. mid reports whether the
// value starts on the low nibble of the byte at idx.
func packedIndex(rowLen, channel int) (idx int, mid bool) {
	index8 := rowLen/3*2 - 1 - channel
	return index8 * 3 >> 1, index8&1 == 1
}

// PackedValue reads one channel out of a packed row
func PackedValue(packed []byte, channel int) uint16 {
	idx, mid := packedIndex(len(packed), channel)
	if mid {
		return uint16(packed[idx]&0x0F)<<8 | uint16(packed[idx+1])
	}
	return uint16(packed[idx])<<4 | uint16(packed[idx+1])>>4
}

// SetPackedValue writes one channel into a packed row, leaving the
// neighbouring channel's nibble intact.
func SetPackedValue(packed []byte, channel int, v uint16) {
	idx, mid := packedIndex(len(packed), channel)
	if mid {
		packed[idx] = packed[idx]&0xF0 | byte(v>>8)&0x0F
		packed[idx+1] = byte(v)
		return
	}
	packed[idx] = byte(v >> 4)
	packed[idx+1] = byte(v<<4) | packed[idx+1]&0x0F
}
