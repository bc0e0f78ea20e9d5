// internal/tunnel/tunnel_test.go
package tunnel

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	frames [][]byte
	err    error
}

func (f *fakeSender) SendFrame(frame []byte) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

type fakeSource struct {
	frames [][]byte
	err    error
}

func (f *fakeSource) RecvFrame() ([]byte, error) {
	if len(f.frames) == 0 {
		if f.err != nil {
			return nil, f.err
		}
		return nil, io.EOF
	}
	fr := f.frames[0]
	f.frames = f.frames[1:]
	return fr, nil
}

// slots wraps raw characters one per slot, no terminator.
func slots(s string) []byte {
	out := make([]byte, SlotSize*len(s))
	for i := 0; i < len(s); i++ {
		out[SlotSize*i] = s[i]
	}
	return out
}

func TestEncode_Command(t *testing.T) {
	frame := Encode("ver")
	require.Len(t, frame, 16)
	assert.Equal(t, byte('v'), frame[0])
	assert.Equal(t, byte('e'), frame[4])
	assert.Equal(t, byte('r'), frame[8])
	assert.Equal(t, CR, frame[12])
}

func TestEncode_Empty(t *testing.T) {
	assert.Equal(t, []byte{CR, 0, 0, 0}, Encode(""))
}

func TestEncodeEscape(t *testing.T) {
	frame := EncodeEscape()
	require.Len(t, frame, 4)
	assert.Equal(t, byte(27), frame[0])
}

func TestRoundTrip(t *testing.T) {
	var got []string
	rx := NewRx(func(line string) { got = append(got, line) })

	rx.Accept(Encode("ver"))

	assert.Equal(t, "ver", rx.LastReceived())
	assert.Empty(t, got, "CR stores without emitting")
	assert.Empty(t, rx.Pending())
}

func TestRx_NewlineEmits(t *testing.T) {
	var got []string
	rx := NewRx(func(line string) { got = append(got, line) })

	rx.Accept(slots("ok 1\n"))
	assert.Equal(t, []string{"ok 1"}, got)
	assert.Empty(t, rx.LastReceived())

	rx.Accept(slots("ok 2\r"))
	assert.Equal(t, []string{"ok 1"}, got)
	assert.Equal(t, "ok 2", rx.LastReceived())
}

func TestRx_SentinelsIndependent(t *testing.T) {
	var got []string
	rx := NewRx(func(line string) { got = append(got, line) })

	rx.Accept(slots("ver\r\n"))
	assert.Equal(t, []string{""}, got)
	assert.Equal(t, "ver", rx.LastReceived())

	rx.Accept(slots("ok\n"))
	assert.Equal(t, []string{"", "ok"}, got)
	assert.Equal(t, "ver", rx.LastReceived())
}

func TestRx_SplitLineCarriesOver(t *testing.T) {
	var got []string
	rx := NewRx(func(line string) { got = append(got, line) })

	rx.Accept(slots("hel"))
	assert.Empty(t, got)
	assert.Equal(t, "hel", rx.Pending())

	rx.Accept(slots("lo\n"))
	assert.Equal(t, []string{"hello"}, got)
}

func TestRx_PartialSlot(t *testing.T) {
	rx := NewRx(nil)
	rx.Accept([]byte{'a', 0, 0, 0, 'b'})
	assert.Equal(t, "ab", rx.Pending())
}

func TestTx_SendAndEscape(t *testing.T) {
	out := &fakeSender{}
	tx, err := NewTx(out, nil)
	require.NoError(t, err)

	require.NoError(t, tx.Send("ver"))
	require.NoError(t, tx.Escape())

	require.Len(t, out.frames, 2)
	assert.Equal(t, Encode("ver"), out.frames[0])
	assert.Equal(t, EncodeEscape(), out.frames[1])

	out.err = errors.New("link down")
	assert.Error(t, tx.Send("ver"))

	_, err = NewTx(nil, nil)
	assert.Error(t, err)
}

func TestPump_DeliversUntilEOF(t *testing.T) {
	var got []string
	rx := NewRx(func(line string) { got = append(got, line) })
	src := &fakeSource{frames: [][]byte{slots("a\n"), slots("b\n")}}

	require.NoError(t, Pump(context.Background(), src, rx))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestPump_SourceError(t *testing.T) {
	boom := errors.New("boom")
	err := Pump(context.Background(), &fakeSource{err: boom}, NewRx(nil))
	assert.ErrorIs(t, err, boom)
}

func TestPump_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Pump(ctx, &fakeSource{frames: [][]byte{slots("a\n")}}, NewRx(nil))
	assert.ErrorIs(t, err, context.Canceled)
}
