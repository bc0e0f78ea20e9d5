// cmd/regmap/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/tamzrod/fpga-regmap/internal/config"
	"github.com/tamzrod/fpga-regmap/internal/devices"
	"github.com/tamzrod/fpga-regmap/internal/export"
	"github.com/tamzrod/fpga-regmap/internal/poller"
	"github.com/tamzrod/fpga-regmap/internal/regmap"
	"github.com/tamzrod/fpga-regmap/internal/status"
	"github.com/tamzrod/fpga-regmap/internal/tunnel"
	"github.com/tamzrod/fpga-regmap/internal/tunnel/serialport"
	"github.com/tamzrod/fpga-regmap/internal/tunnel/stream"
	"github.com/tamzrod/fpga-regmap/internal/writer"
)

type options struct {
	ConfigFile string
	Dump       string
	Out        string
	All        bool
	Poll       bool
	Console    bool
	LogLevel   string
}

func main() {
	var opts options
	flag.StringVar(&opts.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&opts.Dump, "dump", "", "Dump the address map: text, yaml, cbor")
	flag.StringVar(&opts.Out, "out", "", "Dump output file (default stdout)")
	flag.BoolVar(&opts.All, "all", false, "Include hidden registers in the dump")
	flag.BoolVar(&opts.Poll, "poll", false, "Poll the register source")
	flag.BoolVar(&opts.Console, "console", false, "Start the interactive console")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	log := setupLogging(opts.LogLevel, os.Stderr)

	if err := run(opts, log); err != nil {
		log.Error("regmap failed", "err", err)
		os.Exit(1)
	}
}

func setupLogging(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(log)
	return log
}

func run(opts options, log *slog.Logger) error {
	if opts.ConfigFile == "" {
		return errors.New("usage: regmap -config <config.yaml> [-dump text|yaml|cbor] [-poll] [-console]")
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	rm := cfg.Regmap

	// --------------------
	// Build device tree
	// --------------------

	root, err := devices.Build(rm)
	if err != nil {
		return fmt.Errorf("device build failed: %w", err)
	}
	m := regmap.Flatten(root)
	log.Info("address map built", "root", root.Name(), "size", fmt.Sprintf("%#x", root.Size()),
		"fields", len(m.Entries), "links", len(m.Links))

	if opts.Dump != "" {
		if err := dump(m, opts); err != nil {
			return err
		}
		if !opts.Poll && !opts.Console {
			return nil
		}
	}
	if !opts.Poll && !opts.Console {
		return errors.New("nothing to do: pass -dump, -poll or -console")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := start(ctx, rm, m, opts, log)
	if err != nil {
		return err
	}
	defer rt.close()

	if opts.Console {
		return runConsole(ctx, stop, rt, log)
	}

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func dump(m *regmap.AddressMap, opts options) error {
	w := io.Writer(os.Stdout)
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return fmt.Errorf("dump: %w", err)
		}
		defer f.Close()
		w = f
	}
	return export.Write(w, m, export.Format(opts.Dump), opts.All)
}

// runtime is everything a running session owns.
type runtime struct {
	m       *regmap.AddressMap
	shadow  *regmap.Shadow
	writer  writer.Writer
	tracker *status.Tracker
	tx      *tunnel.Tx
	rx      *tunnel.Rx
	lines   chan string

	closers []func() error
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i]()
	}
}

func start(ctx context.Context, rm config.RegmapConfig, m *regmap.AddressMap, opts options, log *slog.Logger) (*runtime, error) {
	rt := &runtime{
		m:       m,
		shadow:  regmap.NewShadow(),
		tracker: status.NewTracker(staleAge(rm.Poll.IntervalMs)),
		lines:   make(chan string, 64),
	}

	var sim regmap.Memory
	if rm.Source.Mode == config.SourceSim {
		size := rm.Source.Size
		if size == 0 {
			size = m.Root.Address() + m.Root.Size()
		}
		sim = regmap.NewImage(size)
		log.Info("simulated register source", "size", fmt.Sprintf("%#x", size))
	}

	// ---- writer ----
	mem, closeMem, err := writer.BuildMemory(rm.Source, sim)
	if err != nil {
		return nil, fmt.Errorf("writer build failed: %w", err)
	}
	rt.closers = append(rt.closers, closeMem)

	rt.writer, err = writer.New(m, mem, rt.shadow, log.With("component", "writer"))
	if err != nil {
		rt.close()
		return nil, err
	}

	// ---- poller ----
	if opts.Poll {
		p, closePoller, err := poller.Build(rm, m, sim)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("poller build failed: %w", err)
		}
		rt.closers = append(rt.closers, closePoller)
		log.Info("poller ready", "blocks", len(p.Reads()), "elements", p.Entries(),
			"interval_ms", rm.Poll.IntervalMs)

		out := make(chan poller.PollResult)
		go orchestrate(ctx, out, rt, log.With("component", "poller"))
		go p.Run(ctx, out)
	} else {
		rt.tracker.Disable()
	}

	// ---- tunnel (opt-in) ----
	if rm.Tunnel != nil {
		if err := rt.openTunnel(ctx, *rm.Tunnel, log.With("component", "tunnel")); err != nil {
			rt.close()
			return nil, err
		}
	}

	return rt, nil
}

// staleAge marks the source stale after three missed cycles.
func staleAge(intervalMs int) time.Duration {
	return 3 * time.Duration(intervalMs) * time.Millisecond
}

// orchestrate consumes poll results: shadow update, health tracking and
// a 1 Hz seconds-in-error ticker.
func orchestrate(ctx context.Context, in <-chan poller.PollResult, rt *runtime, log *slog.Logger) {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-in:
			res.Store(rt.shadow)
			if rt.tracker.Observe(res.Err) {
				snap := rt.tracker.Snapshot()
				if res.Err != nil {
					log.Warn("poll failed", "err", res.Err, "error_code", snap.LastErrorCode)
				} else {
					log.Info("poll ok", "samples", len(res.Samples))
				}
			}

		case <-secTicker.C:
			if rt.tracker.Tick() {
				snap := rt.tracker.Snapshot()
				if snap.Health == status.HealthStale {
					log.Warn("source stale", "last_good", snap.LastGood)
				} else {
					log.Debug("still in error", "seconds", snap.SecondsInError)
				}
			}
		}
	}
}

func (rt *runtime) openTunnel(ctx context.Context, tc config.TunnelConfig, log *slog.Logger) error {
	timeout := time.Duration(tc.TimeoutMs) * time.Millisecond

	var (
		out tunnel.FrameSender
		src tunnel.FrameSource
	)
	switch tc.Transport {
	case config.TunnelTCP:
		c, err := stream.Dial(stream.Config{Endpoint: tc.Endpoint, Timeout: timeout})
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, c.Close)
		out, src = c, c
	case config.TunnelSerial:
		p, err := serialport.Open(serialport.Config{Address: tc.Address, BaudRate: tc.BaudRate, Timeout: timeout})
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, p.Close)
		out, src = p, p
	default:
		return fmt.Errorf("tunnel: unknown transport %q", tc.Transport)
	}

	tx, err := tunnel.NewTx(out, log)
	if err != nil {
		return err
	}
	rt.tx = tx
	rt.rx = tunnel.NewRx(func(line string) {
		log.Debug("tunnel line", "line", line)
		select {
		case rt.lines <- line:
		default:
			log.Warn("tunnel line dropped", "line", line)
		}
	})

	go func() {
		if err := tunnel.Pump(ctx, src, rt.rx); err != nil && ctx.Err() == nil {
			log.Error("tunnel receive stopped", "err", err)
		}
	}()
	log.Info("tunnel open", "transport", tc.Transport)
	return nil
}

// interactive reports whether stdin is a terminal.
func interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
