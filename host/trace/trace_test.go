package trace

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tlcmux/host/sim"
	"tlcmux/host/tlcmux"
	"tlcmux/protocol"
)

func newSim(t *testing.T, cfg sim.Config) *sim.Device {
	t.Helper()
	d, err := sim.New(cfg)
	require.NoError(t, err)
	return d
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var events []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(newSim(t, sim.DefaultConfig()), &buf)

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	c, err := tlcmux.New(rec)
	require.NoError(t, err)
	require.NoError(t, c.Set(1, 2, 300))
	_, err = c.Get(1, 2)
	require.NoError(t, err)
	require.NoError(t, rec.Err())

	events := readAll(t, NewReader(&buf))
	require.Len(t, events, 3)

	for i, ev := range events {
		assert.Equal(t, uint64(i), ev.Seq)
		assert.Equal(t, rec.Session(), ev.Session)
		assert.Equal(t, time.Millisecond, ev.Duration)
		assert.Empty(t, ev.Error)
	}

	assert.Equal(t, "info", events[0].CommandName())
	assert.Equal(t, []byte{'i'}, events[0].Request)
	assert.Equal(t, []byte{'1', 3, 8, '1', 'i'}, events[0].Response)

	assert.Equal(t, protocol.CmdSet, events[1].Cmd)
	assert.Equal(t, []byte{'s', 1, 2, 0x01, 0x2C}, events[1].Request)
	assert.Equal(t, []byte{'s'}, events[1].Response)

	assert.Equal(t, []byte{0x01, 0x2C, 'g'}, events[2].Response)
	assert.True(t, events[2].Timestamp.After(events[1].Timestamp))
}

func TestRecorderTruncatesLargePayloads(t *testing.T) {
	var buf bytes.Buffer
	dev := newSim(t, sim.Config{Version: '1', Drivers: 20, Rows: 10, AddrBytes: 2})
	rec := NewRecorder(dev, &buf)

	c, err := tlcmux.New(rec)
	require.NoError(t, err)
	frame := make([]byte, c.Shape().ArrayBytes())
	require.NoError(t, c.ModifyArray(0, frame))

	events := readAll(t, NewReader(&buf))
	require.Len(t, events, 2)
	assert.False(t, events[0].Truncated)
	assert.True(t, events[1].Truncated)
	assert.Len(t, events[1].Request, MaxPayload)
	assert.Equal(t, []byte{'M'}, events[1].Response)
}

func TestRecorderRecordsErrors(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(newSim(t, sim.DefaultConfig()), &buf)

	err := rec.Tx([]byte{'x'}, make([]byte, 1))
	require.ErrorIs(t, err, protocol.ErrProtocol)

	events := readAll(t, NewReader(&buf))
	require.Len(t, events, 1)
	assert.Equal(t, byte('x'), events[0].Cmd)
	assert.Equal(t, "unknown", events[0].CommandName())
	assert.Nil(t, events[0].Response)
	assert.Contains(t, events[0].Error, "unknown command")
	assert.Contains(t, events[0].String(), "error=")
}

func TestRecorderDelegates(t *testing.T) {
	dev := newSim(t, sim.DefaultConfig())
	rec := NewRecorder(dev, io.Discard)
	assert.Equal(t, "trace("+dev.String()+")", rec.String())
	assert.Equal(t, dev.Duplex(), rec.Duplex())
	assert.NoError(t, rec.Close())
}

func TestCreateAndOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cbor")

	rec, err := Create(newSim(t, sim.DefaultConfig()), path)
	require.NoError(t, err)
	c, err := tlcmux.New(rec)
	require.NoError(t, err)
	require.NoError(t, c.Clear())
	require.NoError(t, rec.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	events := readAll(t, r)
	require.Len(t, events, 2)
	assert.Equal(t, protocol.CmdClear, events[1].Cmd)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.cbor"))
	assert.Error(t, err)
}
