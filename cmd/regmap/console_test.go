// cmd/regmap/console_test.go
package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/fpga-regmap/internal/config"
	"github.com/tamzrod/fpga-regmap/internal/devices"
	"github.com/tamzrod/fpga-regmap/internal/regmap"
	"github.com/tamzrod/fpga-regmap/internal/tunnel"
)

type loopback struct{ rx *tunnel.Rx }

// SendFrame echoes the command, CR terminated, then answers "ok".
func (l loopback) SendFrame(frame []byte) error {
	echo := append([]byte(nil), frame...)
	echo = append(echo, 'o', 0, 0, 0, 'k', 0, 0, 0, tunnel.LF, 0, 0, 0)
	l.rx.Accept(echo)
	return nil
}

func newTestConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	return newConsoleFor(t, []config.DeviceConfig{
		{Kind: config.KindVersion},
		{Kind: config.KindDac, Offset: 0x1000, Channels: 2},
	})
}

func newConsoleFor(t *testing.T, devs []config.DeviceConfig) (*console, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Config{Regmap: config.RegmapConfig{
		Name:    "Board",
		Devices: devs,
	}}
	require.NoError(t, config.Validate(cfg))
	config.Normalize(cfg)

	root, err := devices.Build(cfg.Regmap)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt, err := start(context.Background(), cfg.Regmap, regmap.Flatten(root), options{}, log)
	require.NoError(t, err)
	t.Cleanup(rt.close)

	rt.rx = tunnel.NewRx(nil)
	rt.tx, err = tunnel.NewTx(loopback{rx: rt.rx}, log)
	require.NoError(t, err)

	var out bytes.Buffer
	return &console{rt: rt, out: &out}, &out
}

func TestConsole_WriteRead(t *testing.T) {
	c, out := newTestConsole(t)

	assert.False(t, c.exec("write Board.Version.ScratchPad 0xdeadbeef"))
	assert.Contains(t, out.String(), "ok")
	out.Reset()

	c.exec("read Board.Version.ScratchPad")
	assert.Contains(t, out.String(), "0xdeadbeef")
	out.Reset()

	c.exec("write Board.Version.FpgaVersion 1")
	assert.Contains(t, out.String(), "not writable")
}

func TestConsole_DerivedValue(t *testing.T) {
	c, out := newTestConsole(t)

	c.exec("write Board.Dac.Code[1] 21845")
	out.Reset()

	c.exec("read Board.Dac.Voltage[1]")
	assert.Contains(t, out.String(), "1.000 V")
}

func TestConsole_Map(t *testing.T) {
	c, out := newTestConsole(t)

	c.exec("map Board.Dac")
	s := out.String()
	assert.Contains(t, s, "Board.Dac.Code[0]")
	assert.Contains(t, s, "(derived)")
	assert.NotContains(t, s, "Board.Version")
}

func TestConsole_MapSkipsHiddenAndDisabledDevices(t *testing.T) {
	c, out := newConsoleFor(t, []config.DeviceConfig{
		{Kind: config.KindVersion},
		{Kind: config.KindDac, Offset: 0x1000, Channels: 2},
		{Kind: config.KindMetadata, Offset: 0x2000, Hidden: true},
		{Kind: config.KindEth, Offset: 0x4000, Disabled: true},
	})

	c.exec("map")
	s := out.String()
	assert.Contains(t, s, "[Board.Dac] Digital to analog converter")
	assert.Contains(t, s, "Board.Version.ScratchPad")
	assert.NotContains(t, s, "Board.Metadata")
	assert.NotContains(t, s, "Board.Eth")
}

func TestConsole_MapModeFilter(t *testing.T) {
	c, out := newTestConsole(t)

	c.exec("map Board.Dac WO")
	s := out.String()
	assert.Contains(t, s, "Board.Dac.Load")
	assert.NotContains(t, s, "Board.Dac.Code[0]")
	assert.NotContains(t, s, "(derived)")
	out.Reset()

	c.exec("map Board xx")
	assert.Contains(t, out.String(), "unknown mode")
}

func TestConsole_Tunnel(t *testing.T) {
	c, out := newTestConsole(t)

	c.exec("send ver")
	assert.Contains(t, out.String(), ">> ver")
	out.Reset()

	c.exec("last")
	assert.Contains(t, out.String(), `"ver"`)
}

func TestConsole_StatusAndQuit(t *testing.T) {
	c, out := newTestConsole(t)

	c.exec("status")
	assert.Contains(t, out.String(), "health=disabled")

	assert.True(t, c.exec("quit"))
	assert.False(t, c.exec("# comment"))
}
