// Package trace records protocol exchanges to a CBOR event stream.
//
// A Recorder sits between the client and the duplex channel. Every Tx is
// written as one Event, so a trace file can be replayed with Reader to see
// exactly which bytes crossed the wire and how long the device took.
package trace

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"periph.io/x/conn/v3"

	"tlcmux/protocol"
)

// MaxPayload is the largest request or response stored in an event
const MaxPayload = 4096

// Event is one request/response exchange
type Event struct {
	Timestamp time.Time     `cbor:"1,keyasint"`
	Session   string        `cbor:"2,keyasint"`
	Seq       uint64        `cbor:"3,keyasint"`
	Cmd       byte          `cbor:"4,keyasint"`
	Request   []byte        `cbor:"5,keyasint,omitempty"`
	Response  []byte        `cbor:"6,keyasint,omitempty"`
	Truncated bool          `cbor:"7,keyasint,omitempty"`
	Duration  time.Duration `cbor:"8,keyasint"`
	Error     string        `cbor:"9,keyasint,omitempty"`
}

// CommandName returns the name of the traced command
func (e Event) CommandName() string {
	return protocol.CommandName(e.Cmd)
}

func (e Event) String() string {
	s := fmt.Sprintf("#%d %s %s tx=% x rx=% x", e.Seq, e.Duration, e.CommandName(), e.Request, e.Response)
	if e.Truncated {
		s += " (truncated)"
	}
	if e.Error != "" {
		s += " error=" + e.Error
	}
	return s
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	if encMode, err = encOpts.EncMode(); err != nil {
		panic(fmt.Sprintf("trace: cbor encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	if decMode, err = decOpts.DecMode(); err != nil {
		panic(fmt.Sprintf("trace: cbor decoder mode: %v", err))
	}
}

// Recorder is a conn.Conn that logs every exchange of the wrapped channel
type Recorder struct {
	next    conn.Conn
	session string
	now     func() time.Time

	mu     sync.Mutex
	enc    *cbor.Encoder
	closer io.Closer
	seq    uint64
	err    error
}

// NewRecorder traces exchanges on next to w
func NewRecorder(next conn.Conn, w io.Writer) *Recorder {
	r := &Recorder{
		next:    next,
		session: uuid.New().String(),
		now:     time.Now,
		enc:     encMode.NewEncoder(w),
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// Create traces exchanges on next to a new file at path
func Create(next conn.Conn, path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return NewRecorder(next, f), nil
}

// Session returns the id stamped on every event of this recorder
func (r *Recorder) Session() string {
	return r.session
}

// Err returns the first error hit while writing events
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) String() string {
	return "trace(" + r.next.String() + ")"
}

func (r *Recorder) Duplex() conn.Duplex {
	return r.next.Duplex()
}

// Tx forwards to the wrapped channel and records the exchange. Trace write
// failures never fail the exchange; see Err.
func (r *Recorder) Tx(w, rd []byte) error {
	start := r.now()
	err := r.next.Tx(w, rd)
	elapsed := r.now().Sub(start)

	ev := Event{
		Timestamp: start,
		Session:   r.session,
		Duration:  elapsed,
	}
	if len(w) > 0 {
		ev.Cmd = w[0]
	}
	ev.Request, ev.Truncated = clip(w)
	if err != nil {
		ev.Error = err.Error()
	} else {
		var cut bool
		ev.Response, cut = clip(rd)
		ev.Truncated = ev.Truncated || cut
	}

	r.mu.Lock()
	ev.Seq = r.seq
	r.seq++
	if r.err == nil {
		r.err = r.enc.Encode(ev)
	}
	r.mu.Unlock()

	return err
}

func clip(b []byte) ([]byte, bool) {
	if len(b) > MaxPayload {
		return append([]byte(nil), b[:MaxPayload]...), true
	}
	return append([]byte(nil), b...), false
}

// Close closes the trace output and then the wrapped channel if it can be
// closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	var err error
	if r.closer != nil {
		err = r.closer.Close()
		r.closer = nil
	}
	r.mu.Unlock()

	if c, ok := r.next.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ conn.Conn = (*Recorder)(nil)

// Reader reads events written by a Recorder
type Reader struct {
	dec    *cbor.Decoder
	closer io.Closer
}

// NewReader reads events from r
func NewReader(r io.Reader) *Reader {
	rd := &Reader{dec: decMode.NewDecoder(r)}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd
}

// Open reads events from the trace file at path
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return NewReader(f), nil
}

// Next returns the next event, or io.EOF at the end of the stream
func (r *Reader) Next() (Event, error) {
	var ev Event
	if err := r.dec.Decode(&ev); err != nil {
		if err == io.EOF {
			return Event{}, io.EOF
		}
		return Event{}, fmt.Errorf("trace: %w", err)
	}
	return ev, nil
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
