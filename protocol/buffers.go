package protocol

import "fmt"

// InputBuffer provides an abstraction for reading request arguments
type InputBuffer interface {
	// Data returns the available data slice
	Data() []byte

	// Available returns the number of bytes available
	Available() int

	// Pop removes n bytes from the front of the buffer
	Pop(n int)
}

// OutputBuffer provides an abstraction for writing request frames
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int
}

// SliceInputBuffer implements InputBuffer using a byte slice
type SliceInputBuffer struct {
	data []byte
}

// NewSliceInputBuffer creates a new SliceInputBuffer
func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte {
	return s.data
}

func (s *SliceInputBuffer) Available() int {
	return len(s.data)
}

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput implements OutputBuffer on a reusable growable slice
type ScratchOutput struct {
	buf []byte
}

// NewScratchOutput creates a new ScratchOutput with the given capacity hint
func NewScratchOutput(capacity int) *ScratchOutput {
	return &ScratchOutput{buf: make([]byte, 0, capacity)}
}

func (s *ScratchOutput) Output(data []byte) {
	s.buf = append(s.buf, data...)
}

func (s *ScratchOutput) CurPosition() int {
	return len(s.buf)
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.buf = s.buf[:0]
}

// EncodeByte writes a single byte argument
func EncodeByte(output OutputBuffer, v byte) {
	output.Output([]byte{v})
}

// EncodeValue writes a big-endian 16-bit argument
func EncodeValue(output OutputBuffer, v uint16) {
	b := Encode16(v)
	output.Output(b[:])
}

// DecodeByte reads a single byte argument
func DecodeByte(input InputBuffer) (byte, error) {
	if input.Available() < 1 {
		return 0, fmt.Errorf("%w: missing byte argument", ErrProtocol)
	}
	v := input.Data()[0]
	input.Pop(1)
	return v, nil
}

// DecodeValue reads a big-endian 16-bit argument
func DecodeValue(input InputBuffer) (uint16, error) {
	if input.Available() < ValueSize {
		return 0, fmt.Errorf("%w: need %d bytes for value, have %d", ErrProtocol, ValueSize, input.Available())
	}
	data := input.Data()
	v := Unpack16Pair(data[0], data[1])
	input.Pop(ValueSize)
	return v, nil
}

// DecodeChannelAddr reads a channel address of the given width
func DecodeChannelAddr(input InputBuffer, addrBytes int) (int, error) {
	if addrBytes == 1 {
		b, err := DecodeByte(input)
		return int(b), err
	}
	v, err := DecodeValue(input)
	return int(v), err
}

// DecodeBytes reads n raw bytes. The result aliases the input.
func DecodeBytes(input InputBuffer, n int) ([]byte, error) {
	if input.Available() < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrProtocol, n, input.Available())
	}
	b := input.Data()[:n]
	input.Pop(n)
	return b, nil
}
