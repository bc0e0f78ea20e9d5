// internal/tunnel/serialport/port_test.go
package serialport

import (
	"bytes"
	"io"
	"testing"

	"github.com/goburrow/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedLine returns reads in fixed chunks, like a UART with a short FIFO.
type chunkedLine struct {
	reads   [][]byte
	written bytes.Buffer
}

func (c *chunkedLine) Read(p []byte) (int, error) {
	if len(c.reads) == 0 {
		return 0, io.EOF
	}
	r := c.reads[0]
	c.reads = c.reads[1:]
	if r == nil {
		return 0, serial.ErrTimeout
	}
	return copy(p, r), nil
}

func (c *chunkedLine) Write(p []byte) (int, error) { return c.written.Write(p) }
func (c *chunkedLine) Close() error { return nil }

func TestRecvFrame_CarriesPartialSlots(t *testing.T) {
	line := &chunkedLine{reads: [][]byte{
		{'o', 0, 0, 0, 'k', 0},
		nil, // timeout
		{0, 0, '\n'},
		{0, 0, 0},
	}}
	p := New(line)

	f, err := p.RecvFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte{'o', 0, 0, 0}, f)

	f, err = p.RecvFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte{'k', 0, 0, 0}, f)

	f, err = p.RecvFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte{'\n', 0, 0, 0}, f)

	_, err = p.RecvFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSendFrame_WritesAll(t *testing.T) {
	line := &chunkedLine{}
	p := New(line)

	require.NoError(t, p.SendFrame([]byte{27, 0, 0, 0}))
	assert.Equal(t, []byte{27, 0, 0, 0}, line.written.Bytes())
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)

	_, err = Open(Config{Address: "/dev/null", BaudRate: 0})
	assert.Error(t, err)
}
