// internal/tunnel/stream/conn_test.go
package stream

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/fpga-regmap/internal/tunnel"
)

func pipe(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	ca, cb := New(a, 0), New(b, 0)
	t.Cleanup(func() {
		_ = ca.Close()
		_ = cb.Close()
	})
	return ca, cb
}

func TestConn_FrameRoundTrip(t *testing.T) {
	a, b := pipe(t)

	errc := make(chan error, 1)
	go func() { errc <- a.SendFrame(tunnel.Encode("ver")) }()

	frame, err := b.RecvFrame()
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.Equal(t, tunnel.Encode("ver"), frame)
}

func TestConn_HeaderLayout(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	go func() { _ = New(a, 0).SendFrame(tunnel.EncodeEscape()) }()

	buf := make([]byte, headerLen+4)
	_, err := io.ReadFull(b, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{'R', 'T', 0x01, 0x00, 0x04, 27, 0, 0, 0}, buf)
}

func TestConn_BadMagic(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	go func() { _, _ = a.Write([]byte{'R', 'I', 0x01, 0x00, 0x00}) }()

	_, err := New(b, 0).RecvFrame()
	assert.ErrorContains(t, err, "bad magic")
}

func TestConn_EOF(t *testing.T) {
	a, b := pipe(t)
	_ = a.Close()

	_, err := b.RecvFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestConn_OversizeFrame(t *testing.T) {
	a, _ := pipe(t)
	assert.Error(t, a.SendFrame(make([]byte, MaxFrame+1)))
}

func TestDial_RequiresEndpoint(t *testing.T) {
	_, err := Dial(Config{})
	assert.Error(t, err)
}
